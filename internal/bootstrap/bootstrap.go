package bootstrap

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	insightinadapter "sleeptrack/internal/modules/insight/adapter/in"
	insightoutadapter "sleeptrack/internal/modules/insight/adapter/out"
	insightdomain "sleeptrack/internal/modules/insight/domain"
	insightservice "sleeptrack/internal/modules/insight/service"
	insightusecase "sleeptrack/internal/modules/insight/usecase"
	providerinadapter "sleeptrack/internal/modules/provider/adapter/in"
	provideroutadapter "sleeptrack/internal/modules/provider/adapter/out"
	providerservice "sleeptrack/internal/modules/provider/service"
	providerusecase "sleeptrack/internal/modules/provider/usecase"
	sessioninadapter "sleeptrack/internal/modules/session/adapter/in"
	sessionoutadapter "sleeptrack/internal/modules/session/adapter/out"
	sessionservice "sleeptrack/internal/modules/session/service"
	sessionusecase "sleeptrack/internal/modules/session/usecase"
	"sleeptrack/internal/platform/clock"
	"sleeptrack/internal/platform/config"
	"sleeptrack/internal/platform/id"
	"sleeptrack/internal/platform/logging"
	uiapp "sleeptrack/internal/ui/app"
)

type App struct {
	Config      config.Config
	Logger      hclog.Logger
	SessionCLI  sessioninadapter.CLIHandler
	InsightCLI  insightinadapter.CLIHandler
	ProviderCLI providerinadapter.CLIHandler

	closers []io.Closer
}

// New wires every module against cfg. Logs go to logOut.
func New(cfg config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New("sleeptrack", cfg.File.LogLevel, logOut)
	if err != nil {
		return nil, err
	}
	clk := clock.SystemClock{}

	providerUC := providerusecase.NewInteractor(providerservice.NewProviderService(
		provideroutadapter.NewFileManifestStore(cfg.DataDir, cfg.ManifestPath),
		provideroutadapter.NewGRPCHost(logger.Named("host")),
		logger.Named("provider"),
	))

	store, err := sessionoutadapter.NewSQLiteSessionStore(cfg.DBPath, id.UUID{})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewReconcileService(clk, store, store, logger.Named("reconcile"), cfg.SyncWorkers),
		sessionoutadapter.NewProviderRecordSource(providerUC),
		sessionoutadapter.NewNoteExporter(cfg.FallbackZone),
		cfg.ExportDir,
	)

	insightUC := insightusecase.NewInteractor(insightservice.NewInsightService(
		clk,
		insightoutadapter.NewSessionReaderAdapter(sessionUC),
		insightdomain.Options{Fallback: cfg.FallbackZone, TargetMinutes: cfg.TargetMinutes},
	))

	return &App{
		Config:      cfg,
		Logger:      logger,
		SessionCLI:  sessioninadapter.NewCLIHandler(sessionUC),
		InsightCLI:  insightinadapter.NewCLIHandler(insightUC),
		ProviderCLI: providerinadapter.NewCLIHandler(providerUC),
		closers:     []io.Closer{store},
	}, nil
}

// Close releases the session store.
func (a *App) Close() error {
	var first error
	for _, closer := range a.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(
		uiapp.Options{
			DefaultProvider: app.Config.File.Sync.Provider,
			Location:        app.Config.FallbackZone,
		},
		app.SessionCLI,
		app.InsightCLI,
		app.ProviderCLI,
	)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
