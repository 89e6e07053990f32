package db_test

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/tphummel/lab_post/internal/db"
	"github.com/tphummel/lab_post/internal/models"
)

// newTestDB opens a fresh in-memory SQLite database for each test.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// sampleRun returns a fully-populated BootRun for use in tests.
func sampleRun(id string) *models.BootRun {
	start := time.Now().UTC().Truncate(time.Millisecond)
	return &models.BootRun{
		ID:             id,
		Serial:         "Computer1",
		StandbyVoltage: 5,
		NormalVoltage:  220,
		State:          "opened",
		Outcome:        models.OutcomeOpened,
		Messages:       []string{"Computer is opening", "CPU is normal"},
		Devices: []models.DeviceResult{
			{Serial: "CPU1", Type: models.DeviceCPU, OK: true},
			{Serial: "Stick1", Type: models.DeviceUSB, OK: false},
		},
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Millisecond),
	}
}

func TestNew(t *testing.T) {
	// Verifies schema is created and the DB is usable.
	d := newTestDB(t)
	if d == nil {
		t.Fatal("expected non-nil DB")
	}
	if err := d.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestCreate_GetByID(t *testing.T) {
	d := newTestDB(t)
	run := sampleRun("abc-123")

	if err := d.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := d.GetByID("abc-123")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ID != run.ID {
		t.Errorf("ID: got %q, want %q", got.ID, run.ID)
	}
	if got.Serial != run.Serial {
		t.Errorf("Serial: got %q, want %q", got.Serial, run.Serial)
	}
	if got.StandbyVoltage != run.StandbyVoltage {
		t.Errorf("StandbyVoltage: got %f, want %f", got.StandbyVoltage, run.StandbyVoltage)
	}
	if got.NormalVoltage != run.NormalVoltage {
		t.Errorf("NormalVoltage: got %f, want %f", got.NormalVoltage, run.NormalVoltage)
	}
	if got.State != run.State {
		t.Errorf("State: got %q, want %q", got.State, run.State)
	}
	if got.Outcome != run.Outcome {
		t.Errorf("Outcome: got %q, want %q", got.Outcome, run.Outcome)
	}
	if !reflect.DeepEqual(got.Messages, run.Messages) {
		t.Errorf("Messages: got %v, want %v", got.Messages, run.Messages)
	}
	if !reflect.DeepEqual(got.Devices, run.Devices) {
		t.Errorf("Devices: got %v, want %v", got.Devices, run.Devices)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("StartedAt: got %v, want %v", got.StartedAt, run.StartedAt)
	}
	if !got.FinishedAt.Equal(run.FinishedAt) {
		t.Errorf("FinishedAt: got %v, want %v", got.FinishedAt, run.FinishedAt)
	}
}

func TestCreate_FailedRunKeepsReason(t *testing.T) {
	d := newTestDB(t)
	run := sampleRun("fail-1")
	run.State = "failed"
	run.Outcome = models.OutcomeFailed
	run.Stage = "memory"
	run.Reason = "memory_defective"

	if err := d.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := d.GetByID("fail-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Stage != "memory" || got.Reason != "memory_defective" {
		t.Errorf("stage/reason: got %q/%q, want memory/memory_defective", got.Stage, got.Reason)
	}
}

func TestCreate_NilSlicesRoundTripAsEmpty(t *testing.T) {
	d := newTestDB(t)
	run := sampleRun("min-001")
	run.Messages = []string{}
	run.Devices = nil

	if err := d.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := d.GetByID("min-001")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Messages) != 0 {
		t.Errorf("Messages: got %v, want empty", got.Messages)
	}
	if len(got.Devices) != 0 {
		t.Errorf("Devices: got %v, want empty", got.Devices)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	d := newTestDB(t)
	_, err := d.GetByID("does-not-exist")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestList_Empty(t *testing.T) {
	d := newTestDB(t)
	runs, err := d.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty list, got %d items", len(runs))
	}
}

func TestList_OrderedByStart(t *testing.T) {
	d := newTestDB(t)

	r1 := sampleRun("id-1")
	r2 := sampleRun("id-2")
	r2.StartedAt = r1.StartedAt.Add(-time.Minute)

	for _, r := range []*models.BootRun{r1, r2} {
		if err := d.Create(r); err != nil {
			t.Fatalf("Create %q: %v", r.ID, err)
		}
	}

	runs, err := d.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "id-2" {
		t.Errorf("first run: got %q, want id-2", runs[0].ID)
	}
}

func TestList_OutcomeFilter(t *testing.T) {
	d := newTestDB(t)

	outcomes := []struct {
		id      string
		outcome string
	}{
		{"id-1", models.OutcomeOpened},
		{"id-2", models.OutcomeOpened},
		{"id-3", models.OutcomeFailed},
	}
	for _, o := range outcomes {
		r := sampleRun(o.id)
		r.Outcome = o.outcome
		if err := d.Create(r); err != nil {
			t.Fatalf("Create %q: %v", o.id, err)
		}
	}

	tests := []struct {
		outcome string
		want    int
	}{
		{models.OutcomeOpened, 2},
		{models.OutcomeFailed, 1},
		{"", 3},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			got, err := d.List(tt.outcome)
			if err != nil {
				t.Fatalf("List(%q): %v", tt.outcome, err)
			}
			if len(got) != tt.want {
				t.Errorf("List(%q): got %d, want %d", tt.outcome, len(got), tt.want)
			}
		})
	}
}

func TestCountByOutcome(t *testing.T) {
	d := newTestDB(t)
	for i, outcome := range []string{models.OutcomeOpened, models.OutcomeFailed, models.OutcomeFailed} {
		r := sampleRun(string(rune('a' + i)))
		r.Outcome = outcome
		if err := d.Create(r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	counts, err := d.CountByOutcome()
	if err != nil {
		t.Fatalf("CountByOutcome: %v", err)
	}
	if counts[models.OutcomeOpened] != 1 {
		t.Errorf("opened: got %d, want 1", counts[models.OutcomeOpened])
	}
	if counts[models.OutcomeFailed] != 2 {
		t.Errorf("failed: got %d, want 2", counts[models.OutcomeFailed])
	}
}

func TestDelete(t *testing.T) {
	d := newTestDB(t)
	if err := d.Create(sampleRun("del-1")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := d.Delete("del-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := d.GetByID("del-1")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	d := newTestDB(t)
	err := d.Delete("nonexistent")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreate_DuplicateID(t *testing.T) {
	d := newTestDB(t)
	r := sampleRun("dup-1")
	if err := d.Create(r); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if err := d.Create(r); err == nil {
		t.Error("expected error on duplicate ID, got nil")
	}
}
