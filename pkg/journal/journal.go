// Package journal keeps a SQLite log of the warnings and narrations a
// session produced, so a walk can be reviewed afterwards. It is a
// review log only; nothing in the loops reads it back.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"github.com/teslashibe/go-narrator/pkg/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS hazards (
    id TEXT PRIMARY KEY,
    session TEXT NOT NULL,
    at DATETIME NOT NULL,
    seq INTEGER NOT NULL,
    identity TEXT NOT NULL,
    class TEXT NOT NULL,
    priority TEXT NOT NULL,
    reason TEXT NOT NULL,
    text TEXT NOT NULL,
    spoken INTEGER NOT NULL DEFAULT 0,
    tone INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_hazards_at ON hazards(at);
CREATE TABLE IF NOT EXISTS narrations (
    id TEXT PRIMARY KEY,
    session TEXT NOT NULL,
    at DATETIME NOT NULL,
    trigger_id TEXT NOT NULL,
    source TEXT NOT NULL,
    caption TEXT NOT NULL,
    movements TEXT NOT NULL,
    text TEXT NOT NULL,
    fallback INTEGER NOT NULL DEFAULT 0,
    latency_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_narrations_at ON narrations(at);
`

// HazardRecord is one journaled warning.
type HazardRecord struct {
	ID       string    `json:"id"`
	Session  string    `json:"session"`
	At       time.Time `json:"at"`
	Seq      uint64    `json:"seq"`
	Identity string    `json:"identity"`
	Class    string    `json:"class"`
	Priority string    `json:"priority"`
	Reason   string    `json:"reason"`
	Text     string    `json:"text"`
	Spoken   bool      `json:"spoken"`
	Tone     bool      `json:"tone"`
}

// NarrationRecord is one journaled narration.
type NarrationRecord struct {
	ID        string    `json:"id"`
	Session   string    `json:"session"`
	At        time.Time `json:"at"`
	TriggerID string    `json:"trigger_id"`
	Source    string    `json:"source"`
	Caption   string    `json:"caption"`
	Movements []string  `json:"movements"`
	Text      string    `json:"text"`
	Fallback  bool      `json:"fallback"`
	LatencyMs int64     `json:"latency_ms"`
}

const (
	// pendingCap bounds events waiting for the writer; Publish drops beyond it.
	pendingCap   = 64
	writeTimeout = 5 * time.Second
)

// Journal writes events into SQLite. Only hazards that produced sound
// and narrations are stored. Publish hands events to a single writer
// goroutine, so a slow or locked database never stalls the caller.
type Journal struct {
	db      *sql.DB
	session uuid.UUID
	logger  *slog.Logger

	mu      sync.RWMutex
	closed  bool
	pending chan events.Event
	done    chan struct{}
	dropped atomic.Uint64
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	dbPath := path
	if i := strings.Index(path, "?"); i != -1 {
		dbPath = path[:i]
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create directory: %w", err)
		}
	}

	dsn := path
	if !strings.Contains(dsn, "_busy_timeout") {
		if strings.Contains(dsn, "?") {
			dsn += "&_busy_timeout=5000"
		} else {
			dsn += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", dbPath, err)
	}

	j := New(db, logger)
	if err := j.Migrate(ctx); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an open database without migrating it and starts the writer.
func New(db *sql.DB, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	session := uuid.New()
	j := &Journal{
		db:      db,
		session: session,
		logger:  logger.With("component", "journal", "session", session.String()),
		pending: make(chan events.Event, pendingCap),
		done:    make(chan struct{}),
	}
	go j.writeLoop()
	return j
}

func (j *Journal) writeLoop() {
	defer close(j.done)
	for e := range j.pending {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := j.write(ctx, e); err != nil {
			j.logger.Warn("journal write failed", "kind", e.Kind, "error", err)
		}
		cancel()
	}
}

// Session identifies this process run in every row it writes.
func (j *Journal) Session() uuid.UUID {
	return j.session
}

// Migrate creates the tables if they do not exist.
func (j *Journal) Migrate(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("journal: create tables: %w", err)
	}
	return nil
}

// Publish implements events.Publisher. It never waits on the database:
// events are queued for the writer and dropped when the queue is full.
func (j *Journal) Publish(_ context.Context, e events.Event) error {
	if !journaled(e) {
		return nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil
	}
	select {
	case j.pending <- e:
	default:
		n := j.dropped.Add(1)
		j.logger.Debug("journal queue full, event dropped", "kind", e.Kind, "dropped", n)
	}
	return nil
}

// Dropped returns how many events Publish discarded because the writer
// was behind.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

func journaled(e events.Event) bool {
	switch data := e.Data.(type) {
	case events.HazardEvent:
		return data.Spoken || data.Tone
	case events.NarrationEvent:
		return true
	}
	return false
}

func (j *Journal) write(ctx context.Context, e events.Event) error {
	switch data := e.Data.(type) {
	case events.HazardEvent:
		return j.RecordHazard(ctx, e.Time, data)
	case events.NarrationEvent:
		return j.RecordNarration(ctx, e.Time, data)
	}
	return nil
}

// RecordHazard stores the top hazard of a tick along with what was played.
func (j *Journal) RecordHazard(ctx context.Context, at time.Time, ev events.HazardEvent) error {
	if len(ev.Hazards) == 0 {
		return nil
	}
	h := ev.Hazards[0]

	_, err := j.db.ExecContext(ctx, `
        INSERT INTO hazards (id, session, at, seq, identity, class, priority, reason, text, spoken, tone)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), j.session.String(), at.UTC(), int64(ev.Seq),
		string(h.ID), h.Class, h.Priority.String(), h.Reason, ev.Text,
		boolInt(ev.Spoken), boolInt(ev.Tone),
	)
	if err != nil {
		return fmt.Errorf("journal: insert hazard: %w", err)
	}
	return nil
}

// RecordNarration stores one narration.
func (j *Journal) RecordNarration(ctx context.Context, at time.Time, ev events.NarrationEvent) error {
	movements, err := json.Marshal(nonNil(ev.Movements))
	if err != nil {
		return fmt.Errorf("journal: encode movements: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
        INSERT INTO narrations (id, session, at, trigger_id, source, caption, movements, text, fallback, latency_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), j.session.String(), at.UTC(), ev.TriggerID.String(),
		ev.Source, ev.Caption, string(movements), ev.Text,
		boolInt(ev.Fallback), ev.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("journal: insert narration: %w", err)
	}
	return nil
}

// RecentHazards returns up to limit hazards, newest first.
func (j *Journal) RecentHazards(ctx context.Context, limit int) ([]HazardRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, session, at, seq, identity, class, priority, reason, text, spoken, tone
        FROM hazards ORDER BY at DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("journal: query hazards: %w", err)
	}
	defer rows.Close()

	var out []HazardRecord
	for rows.Next() {
		var (
			r            HazardRecord
			seq          int64
			spoken, tone int
		)
		if err := rows.Scan(&r.ID, &r.Session, &r.At, &seq, &r.Identity, &r.Class,
			&r.Priority, &r.Reason, &r.Text, &spoken, &tone); err != nil {
			return nil, fmt.Errorf("journal: scan hazard: %w", err)
		}
		r.Seq = uint64(seq)
		r.Spoken = spoken != 0
		r.Tone = tone != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentNarrations returns up to limit narrations, newest first.
func (j *Journal) RecentNarrations(ctx context.Context, limit int) ([]NarrationRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, session, at, trigger_id, source, caption, movements, text, fallback, latency_ms
        FROM narrations ORDER BY at DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("journal: query narrations: %w", err)
	}
	defer rows.Close()

	var out []NarrationRecord
	for rows.Next() {
		var (
			r         NarrationRecord
			movements string
			fallback  int
		)
		if err := rows.Scan(&r.ID, &r.Session, &r.At, &r.TriggerID, &r.Source, &r.Caption,
			&movements, &r.Text, &fallback, &r.LatencyMs); err != nil {
			return nil, fmt.Errorf("journal: scan narration: %w", err)
		}
		if err := json.Unmarshal([]byte(movements), &r.Movements); err != nil {
			j.logger.Warn("bad movements column", "id", r.ID, "error", err)
		}
		r.Fallback = fallback != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close writes the events still queued and closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.pending)
	j.mu.Unlock()

	<-j.done
	return j.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

var _ events.Publisher = (*Journal)(nil)
