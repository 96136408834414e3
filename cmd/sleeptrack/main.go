package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sleeptrack/internal/bootstrap"
	insightdto "sleeptrack/internal/modules/insight/dto"
	sessiondomain "sleeptrack/internal/modules/session/domain"
	sessiondto "sleeptrack/internal/modules/session/dto"
	"sleeptrack/internal/platform/config"
	apperrors "sleeptrack/internal/platform/errors"
)

type globalFlags struct {
	dataDir  string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		if h := hint(err); h != "" {
			_, _ = fmt.Fprintln(os.Stderr, "hint:", h)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "sleeptrack",
		Short:         "Reconcile, score and summarize sleep sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data", ".", "data directory")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace|debug|info|warn|error (overrides config)")

	root.AddCommand(newSyncCmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newDaysCmd(flags))
	root.AddCommand(newStatsCmd(flags))
	root.AddCommand(newProviderCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

// withApp loads config, wires the app and closes it after fn.
func withApp(flags *globalFlags, fn func(app *bootstrap.App) error) error {
	cfg, err := config.New(flags.dataDir)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cfg.WithLogLevel(flags.logLevel), os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the sleeptrack terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !isTTY() {
				return fmt.Errorf("tui needs an interactive terminal")
			}
			return withApp(flags, bootstrap.RunTUI)
		},
	}
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	var provider, since, file string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync sessions from a provider or a record file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				ctx := context.Background()
				if file != "" {
					records, err := readRecords(file)
					if err != nil {
						return err
					}
					tally, err := app.SessionCLI.Import(ctx, records)
					if err != nil {
						return err
					}
					printTally(cmd, file, tally)
					return nil
				}

				name := provider
				if name == "" {
					name = app.Config.File.Sync.Provider
				}
				var sinceAt time.Time
				if since != "" {
					parsed, _, err := parseTime(since, app.Config.FallbackZone)
					if err != nil {
						return err
					}
					sinceAt = parsed
				}
				out, err := app.SessionCLI.SyncProvider(ctx, name, sinceAt)
				if err != nil {
					return err
				}
				if !out.Available {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "provider %q unavailable (%s); nothing synced\n", out.Provider, out.Availability)
					return nil
				}
				printTally(cmd, out.Provider, out.Tally)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider name (defaults to sync.provider in config)")
	cmd.Flags().StringVar(&since, "since", "", "only fetch records ending after this time")
	cmd.Flags().StringVar(&file, "file", "", "YAML or JSON record file to import instead of a provider")
	return cmd
}

func readRecords(path string) ([]sessiondto.RecordInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []sessiondto.RecordInput
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: parse records %s: %v", apperrors.ErrInvalidInput, path, err)
	}
	return records, nil
}

func printTally(cmd *cobra.Command, source string, tally sessiondto.SyncOutput) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "synced %s: inserted=%d updated=%d skipped=%d\n", source, tally.Inserted, tally.Updated, tally.Skipped)
}

func newSessionCmd(flags *globalFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Manage stored sessions"}
	session.AddCommand(
		newSessionAddCmd(flags),
		newSessionEditCmd(flags),
		newSessionDeleteCmd(flags),
		newSessionShowCmd(flags),
		newSessionListCmd(flags),
		newSessionExportCmd(flags),
	)
	return session
}

type entryFlags struct {
	start, end, offset, source, notes string
	rating                            int
	clearRating                       bool
}

func (f *entryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "session start (RFC 3339, or local 2006-01-02T15:04)")
	cmd.Flags().StringVar(&f.end, "end", "", "session end")
	cmd.Flags().StringVar(&f.offset, "offset", "", "UTC offset of the session, e.g. +02:00")
	cmd.Flags().StringVar(&f.source, "source", "", "source label")
	cmd.Flags().IntVar(&f.rating, "rating", 0, "user rating 1..5")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
}

func newSessionAddCmd(flags *globalFlags) *cobra.Command {
	entry := &entryFlags{}
	cmd := &cobra.Command{
		Use:   "add --start <time> --end <time>",
		Short: "Add a manual session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(entry.start) == "" || strings.TrimSpace(entry.end) == "" {
				return fmt.Errorf("--start and --end are required")
			}
			return withApp(flags, func(app *bootstrap.App) error {
				input := sessiondto.ManualEntryInput{SourceLabel: entry.source, Notes: entry.notes}
				if err := applyRange(&input, entry, app.Config.FallbackZone); err != nil {
					return err
				}
				if cmd.Flags().Changed("rating") {
					rating := entry.rating
					input.Rating = &rating
				}
				out, err := app.SessionCLI.Submit(context.Background(), input)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session added: %s score=%d\n", out.SessionID, out.Score)
				return nil
			})
		},
	}
	entry.bind(cmd)
	return cmd
}

func newSessionEditCmd(flags *globalFlags) *cobra.Command {
	entry := &entryFlags{}
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a stored session; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				ctx := context.Background()
				current, err := app.SessionCLI.Show(ctx, args[0])
				if err != nil {
					return err
				}
				input := sessiondto.ManualEntryInput{
					ID:            current.ID,
					Start:         current.Start,
					End:           current.End,
					OffsetSeconds: current.OffsetSeconds,
					SourceLabel:   current.SourceLabel,
					Rating:        current.Rating,
					Notes:         current.Notes,
				}
				changed := cmd.Flags().Changed
				if err := applyEdit(&input, entry, changed, app.Config.FallbackZone); err != nil {
					return err
				}
				if changed("source") {
					input.SourceLabel = entry.source
				}
				if changed("notes") {
					input.Notes = entry.notes
				}
				if changed("rating") {
					rating := entry.rating
					input.Rating = &rating
				}
				if entry.clearRating {
					input.Rating = nil
				}
				out, err := app.SessionCLI.Submit(ctx, input)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session updated: %s score=%d\n", out.SessionID, out.Score)
				return nil
			})
		},
	}
	entry.bind(cmd)
	cmd.Flags().BoolVar(&entry.clearRating, "clear-rating", false, "remove the user rating")
	return cmd
}

// applyRange parses start, end and offset into input. Without --offset, an
// explicit zone in --start is kept as the session offset.
func applyRange(input *sessiondto.ManualEntryInput, entry *entryFlags, fallback *time.Location) error {
	loc := fallback
	var offset *int
	if entry.offset != "" {
		seconds, err := parseOffset(entry.offset)
		if err != nil {
			return err
		}
		offset = &seconds
		loc = time.FixedZone("", seconds)
	}
	start, zoned, err := parseTime(entry.start, loc)
	if err != nil {
		return err
	}
	end, _, err := parseTime(entry.end, loc)
	if err != nil {
		return err
	}
	if offset == nil && zoned {
		_, seconds := start.Zone()
		offset = &seconds
	}
	input.Start = start
	input.End = end
	input.OffsetSeconds = offset
	return nil
}

// applyEdit overlays the range flags that were set on input, which holds the
// stored session. Untouched bounds keep their instants and the stored offset
// only changes through --offset or a zoned --start.
func applyEdit(input *sessiondto.ManualEntryInput, entry *entryFlags, changed func(string) bool, fallback *time.Location) error {
	if changed("offset") {
		seconds, err := parseOffset(entry.offset)
		if err != nil {
			return err
		}
		input.OffsetSeconds = &seconds
	}
	zoneOf := func() *time.Location {
		if input.OffsetSeconds != nil {
			return time.FixedZone("", *input.OffsetSeconds)
		}
		return fallback
	}
	if changed("start") {
		start, zoned, err := parseTime(entry.start, zoneOf())
		if err != nil {
			return err
		}
		if zoned && !changed("offset") {
			_, seconds := start.Zone()
			input.OffsetSeconds = &seconds
		}
		input.Start = start
	}
	if changed("end") {
		end, _, err := parseTime(entry.end, zoneOf())
		if err != nil {
			return err
		}
		input.End = end
	}
	return nil
}

func newSessionDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				if err := app.SessionCLI.Delete(context.Background(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session deleted: %s\n", args[0])
				return nil
			})
		},
	}
}

func newSessionShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				session, err := app.SessionCLI.Show(context.Background(), args[0])
				if err != nil {
					return err
				}
				raw, err := yaml.Marshal(session)
				if err != nil {
					return err
				}
				_, _ = cmd.OutOrStdout().Write(raw)
				return nil
			})
		},
	}
}

func newSessionListCmd(flags *globalFlags) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored sessions by start time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				fromAt, toAt, err := parseBounds(from, to, app.Config.FallbackZone)
				if err != nil {
					return err
				}
				sessions, err := app.SessionCLI.List(context.Background(), fromAt, toAt)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				renderSessions(cmd.OutOrStdout(), sessions, app.Config.FallbackZone)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first start time included")
	cmd.Flags().StringVar(&to, "to", "", "first start time excluded")
	return cmd
}

func newSessionExportCmd(flags *globalFlags) *cobra.Command {
	var format, dir, from, to string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions as markdown notes, YAML or JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				fromAt, toAt, err := parseBounds(from, to, app.Config.FallbackZone)
				if err != nil {
					return err
				}
				out, err := app.SessionCLI.Export(context.Background(), sessiondto.ExportInput{
					Format: format,
					Dir:    dir,
					From:   fromAt,
					To:     toAt,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions as %s\n", out.Count, out.Format)
				for _, path := range out.Paths {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  "+path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "md", "export format: md|yaml|json")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (defaults to export.dir in config)")
	cmd.Flags().StringVar(&from, "from", "", "first start time included")
	cmd.Flags().StringVar(&to, "to", "", "first start time excluded")
	return cmd
}

type rangeFlags struct {
	from, to string
	last     int
}

func (f *rangeFlags) bind(cmd *cobra.Command, defaultLast int) {
	cmd.Flags().StringVar(&f.from, "from", "", "first date included")
	cmd.Flags().StringVar(&f.to, "to", "", "first date excluded")
	cmd.Flags().IntVar(&f.last, "last", defaultLast, "trailing number of days, ignored with --from/--to")
}

func (f *rangeFlags) input(zone *time.Location) (insightdto.RangeInput, error) {
	if f.from == "" && f.to == "" {
		return insightdto.RangeInput{LastDays: f.last}, nil
	}
	from, to, err := parseBounds(f.from, f.to, zone)
	if err != nil {
		return insightdto.RangeInput{}, err
	}
	return insightdto.RangeInput{From: from, To: to}, nil
}

func newDaysCmd(flags *globalFlags) *cobra.Command {
	rng := &rangeFlags{}
	cmd := &cobra.Command{
		Use:   "days",
		Short: "Per-day sleep summaries, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				input, err := rng.input(app.Config.FallbackZone)
				if err != nil {
					return err
				}
				days, err := app.InsightCLI.Days(context.Background(), input)
				if err != nil {
					return err
				}
				if len(days) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sleep recorded")
					return nil
				}
				renderDays(cmd.OutOrStdout(), days)
				return nil
			})
		},
	}
	rng.bind(cmd, 7)
	return cmd
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	rng := &rangeFlags{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Average duration and quality over a period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				input, err := rng.input(app.Config.FallbackZone)
				if err != nil {
					return err
				}
				stats, err := app.InsightCLI.Stats(context.Background(), input)
				if err != nil {
					return err
				}
				renderStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
	rng.bind(cmd, 30)
	return cmd
}

func newProviderCmd(flags *globalFlags) *cobra.Command {
	provider := &cobra.Command{Use: "provider", Short: "Health-data provider operations"}
	provider.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List provider manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				providers, err := app.ProviderCLI.List(context.Background())
				if err != nil {
					return err
				}
				if len(providers) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no providers configured")
					return nil
				}
				for _, p := range providers {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t binary=%s\n", p.Name, p.Version, p.Enabled, p.Binary)
				}
				return nil
			})
		},
	})

	provider.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate provider checksums and handshake",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				results, err := app.ProviderCLI.Doctor(context.Background())
				if err != nil {
					return err
				}
				if len(results) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no providers configured")
					return nil
				}
				for _, r := range results {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s status=%s checksum=%t binary=%t lifecycle=%t", r.Name, r.Status, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
					if r.Error != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	})

	provider.AddCommand(&cobra.Command{
		Use:   "check <name>",
		Short: "Report whether a provider can be synced from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(app *bootstrap.App) error {
				out, err := app.ProviderCLI.CheckAvailability(context.Background(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s available=%t status=%s", out.Name, out.Available, out.Status)
				if out.Reason != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " reason=%q", out.Reason)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	})
	return provider
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect or create config.yaml"}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml into the data directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(flags.dataDir)
			if err != nil && !force {
				return err
			}
			if err == nil && fileExists(cfg.ConfigPath) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", cfg.ConfigPath)
			}
			if err := config.Write(flags.dataDir, config.Default()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "config written")
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(flags.dataDir)
			if err != nil {
				return err
			}
			cfg = cfg.WithLogLevel(flags.logLevel)
			raw, err := yaml.Marshal(cfg.File)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.ConfigPath)
			_, _ = cmd.OutOrStdout().Write(raw)
			return nil
		},
	}

	cfgCmd.AddCommand(initCmd, showCmd)
	return cfgCmd
}

// hint suggests a next step for failures a user can act on.
func hint(err error) string {
	if kind, ok := sessiondomain.KindOf(err); ok {
		switch kind {
		case sessiondomain.KindOverlapConflict:
			ids := sessiondomain.ConflictingIDs(err)
			if len(ids) > 0 {
				return "edit or delete the overlapping session first: sleeptrack session show " + ids[0]
			}
		case sessiondomain.KindInvalidRange:
			return "the end of a session must be after its start"
		case sessiondomain.KindStageOutOfBounds:
			return "every stage must lie inside its session"
		}
		return ""
	}
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "list sessions with: sleeptrack session list"
	case errors.Is(err, apperrors.ErrProviderUnavailable):
		return "check provider health with: sleeptrack provider doctor"
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
