package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-narrator/internal/log"
	"github.com/teslashibe/go-narrator/pkg/events"
	"github.com/teslashibe/go-narrator/pkg/hazard"
	"github.com/teslashibe/go-narrator/pkg/journal"
)

var t0 = time.Date(2026, 5, 9, 18, 30, 0, 0, time.UTC)

func setupMockJournal(t *testing.T) (sqlmock.Sqlmock, *journal.Journal) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	j := journal.New(db, log.Nop())
	t.Cleanup(func() { _ = j.Close() })
	return mock, j
}

// closeJournal drains the writer so queued inserts reach the mock.
func closeJournal(t *testing.T, mock sqlmock.Sqlmock, j *journal.Journal) {
	t.Helper()
	mock.ExpectClose()
	require.NoError(t, j.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	mock, j := setupMockJournal(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS hazards`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, j.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishHazard(t *testing.T) {
	mock, j := setupMockJournal(t)

	ev := events.HazardEvent{
		Seq: 42,
		Hazards: []hazard.Hazard{
			{ID: "t7", Class: "bicycle", Priority: hazard.PriorityHigh, Reason: "expanding 40.0% in 1.5s"},
			{ID: "t9", Class: "car", Priority: hazard.PriorityMedium},
		},
		Text:   "STOP! Bicycle in front of you",
		Spoken: true,
		Tone:   true,
	}

	mock.ExpectExec(`INSERT INTO hazards`).
		WithArgs(sqlmock.AnyArg(), j.Session().String(), t0, int64(42), "t7", "bicycle", "high",
			"expanding 40.0% in 1.5s", "STOP! Bicycle in front of you", 1, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, j.Publish(context.Background(), events.New(events.KindHazard, t0, ev)))
	closeJournal(t, mock, j)
}

func TestPublishSkipsSilentHazards(t *testing.T) {
	mock, j := setupMockJournal(t)

	ctx := context.Background()
	silent := events.HazardEvent{Hazards: []hazard.Hazard{{ID: "t1", Class: "car"}}}
	require.NoError(t, j.Publish(ctx, events.New(events.KindHazard, t0, silent)))
	require.NoError(t, j.Publish(ctx, events.New(events.KindDetection, t0, events.DetectionEvent{Seq: 1})))
	closeJournal(t, mock, j)
}

func TestPublishNarration(t *testing.T) {
	mock, j := setupMockJournal(t)

	trigger := uuid.New()
	ev := events.NarrationEvent{
		TriggerID: trigger,
		Source:    "keyboard",
		Caption:   "a crosswalk with cars",
		Movements: []string{"car moving left"},
		Text:      "A car is crossing from the right.",
		LatencyMs: 1830,
	}

	mock.ExpectExec(`INSERT INTO narrations`).
		WithArgs(sqlmock.AnyArg(), j.Session().String(), t0, trigger.String(), "keyboard",
			"a crosswalk with cars", `["car moving left"]`, "A car is crossing from the right.", 0, int64(1830)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, j.Publish(context.Background(), events.New(events.KindNarration, t0, ev)))
	closeJournal(t, mock, j)
}

func TestPublishDoesNotWaitForDatabase(t *testing.T) {
	mock, j := setupMockJournal(t)

	// The first insert hangs as if the database were locked.
	mock.ExpectExec(`INSERT INTO hazards`).
		WillDelayFor(300 * time.Millisecond).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectClose()

	ev := events.HazardEvent{
		Hazards: []hazard.Hazard{{ID: "t1", Class: "person", Priority: hazard.PriorityHigh}},
		Text:    "STOP! Person in front of you",
		Spoken:  true,
	}

	start := time.Now()
	for i := 0; i < 200; i++ {
		require.NoError(t, j.Publish(context.Background(), events.New(events.KindHazard, t0, ev)))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Positive(t, j.Dropped())

	require.NoError(t, j.Close())
	require.NoError(t, j.Publish(context.Background(), events.New(events.KindHazard, t0, ev)))
}

func TestRecordNarrationError(t *testing.T) {
	mock, j := setupMockJournal(t)

	mock.ExpectExec(`INSERT INTO narrations`).WillReturnError(errors.New("disk I/O error"))

	err := j.RecordNarration(context.Background(), t0, events.NarrationEvent{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert narration")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentHazards(t *testing.T) {
	mock, j := setupMockJournal(t)

	rows := sqlmock.NewRows([]string{
		"id", "session", "at", "seq", "identity", "class", "priority", "reason", "text", "spoken", "tone",
	}).
		AddRow("h2", "s", t0.Add(time.Second), int64(60), "t2", "person", "high", "r", "STOP! Person in front of you", 1, 0).
		AddRow("h1", "s", t0, int64(30), "t1", "car", "medium", "r", "Warning: Car detected", 0, 1)

	mock.ExpectQuery(`SELECT (.+) FROM hazards ORDER BY at DESC LIMIT \?`).
		WithArgs(10).
		WillReturnRows(rows)

	got, err := j.RecentHazards(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h2", got[0].ID)
	assert.Equal(t, uint64(60), got[0].Seq)
	assert.True(t, got[0].Spoken)
	assert.False(t, got[0].Tone)
	assert.True(t, got[1].Tone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentNarrationsClampsLimit(t *testing.T) {
	mock, j := setupMockJournal(t)

	rows := sqlmock.NewRows([]string{
		"id", "session", "at", "trigger_id", "source", "caption", "movements", "text", "fallback", "latency_ms",
	}).AddRow("n1", "s", t0, "tr", "http", "a street", `["bus approaching"]`, "Scene: a street", 1, int64(900))

	mock.ExpectQuery(`SELECT (.+) FROM narrations`).
		WithArgs(50).
		WillReturnRows(rows)

	got, err := j.RecentNarrations(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"bus approaching"}, got[0].Movements)
	assert.True(t, got[0].Fallback)
	assert.Equal(t, int64(900), got[0].LatencyMs)
	require.NoError(t, mock.ExpectationsWereMet())
}
