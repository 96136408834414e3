package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sleeptrack/internal/modules/session/domain"
	sessionout "sleeptrack/internal/modules/session/port/out"
	apperrors "sleeptrack/internal/platform/errors"
	"sleeptrack/internal/platform/interval"
	"sleeptrack/internal/platform/markdown"
	"sleeptrack/internal/platform/slug"
)

var summaryBlock = markdown.Block{Name: "sleeptrack:summary"}

// sessionRecord is the exported shape of a session, used for note
// frontmatter as well as the YAML and JSON documents.
type sessionRecord struct {
	SchemaVersion   int    `yaml:"schema_version" json:"schema_version"`
	ID              string `yaml:"id" json:"id"`
	Start           string `yaml:"start" json:"start"`
	End             string `yaml:"end" json:"end"`
	DurationMinutes int    `yaml:"duration_minutes" json:"duration_minutes"`
	OffsetSeconds   *int   `yaml:"tz_offset_seconds,omitempty" json:"tz_offset_seconds,omitempty"`
	ExternalID      string `yaml:"external_id,omitempty" json:"external_id,omitempty"`
	Source          string `yaml:"source,omitempty" json:"source,omitempty"`
	HasStageDetail  bool   `yaml:"has_stage_detail" json:"has_stage_detail"`
	Score           *int   `yaml:"score,omitempty" json:"score,omitempty"`
	Rating          *int   `yaml:"rating,omitempty" json:"rating,omitempty"`
	Notes           string `yaml:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       string `yaml:"created_at" json:"created_at"`
}

// NoteExporter writes sessions as markdown notes with YAML frontmatter, or as
// one YAML or JSON document.
type NoteExporter struct {
	fallback *time.Location
}

var _ sessionout.SessionExporter = (*NoteExporter)(nil)

func NewNoteExporter(fallback *time.Location) *NoteExporter {
	if fallback == nil {
		fallback = time.UTC
	}
	return &NoteExporter{fallback: fallback}
}

func (e *NoteExporter) Export(ctx context.Context, sessions []domain.Session, format sessionout.ExportFormat, dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: export dir is required", apperrors.ErrInvalidInput)
	}
	switch format {
	case sessionout.ExportMarkdown:
		return e.exportNotes(ctx, sessions, dir)
	case sessionout.ExportYAML:
		return e.exportDocument(sessions, dir, "sessions.yaml", yaml.Marshal)
	case sessionout.ExportJSON:
		return e.exportDocument(sessions, dir, "sessions.json", func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		})
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", apperrors.ErrInvalidInput, format)
	}
}

func (e *NoteExporter) exportNotes(ctx context.Context, sessions []domain.Session, dir string) ([]string, error) {
	existing, err := indexNotes(filepath.Join(dir, "sessions"))
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(sessions))
	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := e.writeNote(session, dir, existing[session.ID])
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// indexNotes maps session ids to the notes already exported under root.
// Files without a readable id in their frontmatter are ignored.
func indexNotes(root string) (map[string]string, error) {
	index := map[string]string{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if entry.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read session note: %w", err)
		}
		var meta struct {
			ID string `yaml:"id"`
		}
		if _, err := markdown.SplitFrontmatter(string(raw), &meta); err != nil || meta.ID == "" {
			return nil
		}
		index[meta.ID] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index session notes: %w", err)
	}
	return index, nil
}

// writeNote renders one session note. An existing note keeps its body; only
// the frontmatter and the generated summary block are replaced. A note found
// under previous is moved when the session's start or source changed.
func (e *NoteExporter) writeNote(session domain.Session, dir, previous string) (string, error) {
	local := session.Start.In(session.Location(e.fallback))
	noteDir := filepath.Join(dir, "sessions", local.Format("2006"), local.Format("01"), local.Format("02"))
	if err := os.MkdirAll(noteDir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.md", local.Format("150405"), slug.Make(session.SourceLabel, "session"))
	path := filepath.Join(noteDir, name)

	source := path
	if previous != "" {
		source = previous
	}
	body := e.newBody(session, local)
	existing, err := os.ReadFile(source)
	switch {
	case err == nil:
		var previous sessionRecord
		kept, err := markdown.SplitFrontmatter(string(existing), &previous)
		if err != nil {
			return "", fmt.Errorf("read session note %s: %w", source, err)
		}
		body = summaryBlock.Replace(kept, e.summary(session, local))
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("read session note: %w", err)
	}

	rendered, err := markdown.RenderFrontmatter(e.record(session), body)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	if source != path {
		if err := os.Remove(source); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("remove moved session note: %w", err)
		}
	}
	return path, nil
}

func (e *NoteExporter) newBody(session domain.Session, local time.Time) string {
	body := fmt.Sprintf("# Sleep %s\n\n", local.Format("2006-01-02 (Mon)"))
	body += summaryBlock.Render(e.summary(session, local)) + "\n"
	body += "\n## Notes\n\n"
	if session.UserNotes != "" {
		body += session.UserNotes + "\n"
	}
	return body
}

func (e *NoteExporter) summary(session domain.Session, local time.Time) string {
	minutes, _ := session.DurationMinutes()
	lines := []string{
		"- Bedtime: " + local.Format("15:04"),
		"- Wake: " + session.End.In(local.Location()).Format("15:04"),
		"- Duration: " + interval.FormatMinutes(minutes),
	}
	if session.Score != nil {
		lines = append(lines, fmt.Sprintf("- Score: %d", *session.Score))
	}
	if session.UserRating != nil {
		lines = append(lines, fmt.Sprintf("- Rating: %d/5", *session.UserRating))
	}
	if session.SourceLabel != "" {
		lines = append(lines, "- Source: "+session.SourceLabel)
	}
	return strings.Join(lines, "\n")
}

func (e *NoteExporter) exportDocument(sessions []domain.Session, dir, name string, marshal func(any) ([]byte, error)) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	records := make([]sessionRecord, 0, len(sessions))
	for _, session := range sessions {
		records = append(records, e.record(session))
	}
	raw, err := marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode sessions: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	return []string{path}, nil
}

func (e *NoteExporter) record(session domain.Session) sessionRecord {
	loc := session.Location(e.fallback)
	minutes, _ := session.DurationMinutes()
	return sessionRecord{
		SchemaVersion:   domain.SchemaVersion,
		ID:              session.ID,
		Start:           session.Start.In(loc).Format(time.RFC3339),
		End:             session.End.In(loc).Format(time.RFC3339),
		DurationMinutes: minutes,
		OffsetSeconds:   session.TimeZoneOffsetSeconds,
		ExternalID:      session.ExternalID,
		Source:          session.SourceLabel,
		HasStageDetail:  session.HasStageDetail,
		Score:           session.Score,
		Rating:          session.UserRating,
		Notes:           session.UserNotes,
		CreatedAt:       session.CreatedAt.UTC().Format(time.RFC3339),
	}
}
