package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"sleeptrack/internal/modules/session/domain"
	sessionout "sleeptrack/internal/modules/session/port/out"
	apperrors "sleeptrack/internal/platform/errors"
	"sleeptrack/internal/platform/id"
)

const createdAtLayout = "2006-01-02T15:04:05.999999999Z07:00"

type txKey struct{}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteSessionStore keeps sessions in a single SQLite table. It is also the
// transaction manager for its own writes: calls made with the context handed
// to Within run inside that transaction.
type SQLiteSessionStore struct {
	db  *sql.DB
	ids id.Generator
}

var _ sessionout.SessionStore = (*SQLiteSessionStore)(nil)

func NewSQLiteSessionStore(dbPath string, ids id.Generator) (*SQLiteSessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if ids == nil {
		ids = id.UUID{}
	}
	store := &SQLiteSessionStore{db: db, ids: ids}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteSessionStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  external_id TEXT UNIQUE,
  source_label TEXT NOT NULL DEFAULT '',
  start_ns INTEGER NOT NULL,
  end_ns INTEGER NOT NULL,
  tz_offset_seconds INTEGER,
  has_stage_detail INTEGER NOT NULL DEFAULT 0,
  score INTEGER,
  user_rating INTEGER,
  user_notes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_range ON sessions(start_ns, end_ns);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", domain.SchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}

// Within runs fn in one SQLite transaction. Nested calls join the outer one.
func (s *SQLiteSessionStore) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) conn(ctx context.Context) queryer {
	if sqlTx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return sqlTx
	}
	return s.db
}

const selectColumns = `SELECT id, external_id, source_label, start_ns, end_ns, tz_offset_seconds, has_stage_detail, score, user_rating, user_notes, created_at FROM sessions`

func (s *SQLiteSessionStore) FindByID(ctx context.Context, sessionID string) (domain.Session, error) {
	row := s.conn(ctx).QueryRowContext(ctx, selectColumns+` WHERE id = ?`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *SQLiteSessionStore) FindByExternalID(ctx context.Context, externalID string) (domain.Session, bool, error) {
	if externalID == "" {
		return domain.Session{}, false, nil
	}
	row := s.conn(ctx).QueryRowContext(ctx, selectColumns+` WHERE external_id = ?`, externalID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("find session by external id: %w", err)
	}
	return session, true, nil
}

func (s *SQLiteSessionStore) FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]domain.Session, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		selectColumns+` WHERE start_ns < ? AND end_ns > ? AND id <> ? ORDER BY start_ns, id`,
		end.UnixNano(), start.UnixNano(), excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query overlapping sessions: %w", err)
	}
	return collectSessions(rows)
}

func (s *SQLiteSessionStore) All(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, selectColumns+` ORDER BY start_ns, id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return collectSessions(rows)
}

func (s *SQLiteSessionStore) Insert(ctx context.Context, session domain.Session) (string, error) {
	if session.ID == "" {
		session.ID = s.ids.New()
	}
	const stmt = `
INSERT INTO sessions (id, external_id, source_label, start_ns, end_ns, tz_offset_seconds, has_stage_detail, score, user_rating, user_notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := s.conn(ctx).ExecContext(ctx, stmt, sessionArgs(session)...)
	if err != nil {
		return "", mapWriteError(session, "insert session", err)
	}
	return session.ID, nil
}

func (s *SQLiteSessionStore) Update(ctx context.Context, session domain.Session) error {
	const stmt = `
UPDATE sessions SET
  external_id=?,
  source_label=?,
  start_ns=?,
  end_ns=?,
  tz_offset_seconds=?,
  has_stage_detail=?,
  score=?,
  user_rating=?,
  user_notes=?,
  created_at=?
WHERE id=?;
`
	args := append(sessionArgs(session)[1:], session.ID)
	result, err := s.conn(ctx).ExecContext(ctx, stmt, args...)
	if err != nil {
		return mapWriteError(session, "update session", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: session %s", apperrors.ErrNotFound, session.ID)
	}
	return nil
}

func (s *SQLiteSessionStore) Delete(ctx context.Context, sessionID string) error {
	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionID)
	}
	return nil
}

func sessionArgs(session domain.Session) []any {
	var externalID any
	if session.ExternalID != "" {
		externalID = session.ExternalID
	}
	return []any{
		session.ID,
		externalID,
		session.SourceLabel,
		session.Start.UnixNano(),
		session.End.UnixNano(),
		nullableInt(session.TimeZoneOffsetSeconds),
		session.HasStageDetail,
		nullableInt(session.Score),
		nullableInt(session.UserRating),
		session.UserNotes,
		session.CreatedAt.UTC().Format(createdAtLayout),
	}
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}

func mapWriteError(session domain.Session, op string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return domain.NewExternalIDCollision(session.ExternalID, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (domain.Session, error) {
	var (
		session               domain.Session
		externalID            sql.NullString
		startNS, endNS        int64
		offset, score, rating sql.NullInt64
		hasStageDetail        bool
		createdAt             string
	)
	if err := row.Scan(
		&session.ID,
		&externalID,
		&session.SourceLabel,
		&startNS,
		&endNS,
		&offset,
		&hasStageDetail,
		&score,
		&rating,
		&session.UserNotes,
		&createdAt,
	); err != nil {
		return domain.Session{}, err
	}
	session.ExternalID = externalID.String
	session.Start = time.Unix(0, startNS).UTC()
	session.End = time.Unix(0, endNS).UTC()
	session.TimeZoneOffsetSeconds = intFromNull(offset)
	session.HasStageDetail = hasStageDetail
	session.Score = intFromNull(score)
	session.UserRating = intFromNull(rating)
	parsed, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return domain.Session{}, fmt.Errorf("parse created_at for %s: %w", session.ID, err)
	}
	session.CreatedAt = parsed
	return session, nil
}

func intFromNull(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	return domain.IntPtr(int(value.Int64))
}

func collectSessions(rows *sql.Rows) ([]domain.Session, error) {
	defer rows.Close()
	out := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
