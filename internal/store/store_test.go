package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arifhasan/khata/internal/domain"
	"github.com/arifhasan/khata/internal/logger"
	"github.com/arifhasan/khata/internal/money"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir(), logger.Nop())
}

func sampleTx(id string, kind domain.Kind, amount int64) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		Kind:       kind,
		Amount:     money.Amount(amount),
		Category:   "Food",
		OccurredOn: domain.NewDate(2024, time.January, 5),
		Note:       "dinner",
		RecordedAt: time.Date(2024, time.January, 5, 20, 30, 0, 0, time.UTC),
	}
}

func TestSanitizeIdentity(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"alice-01_x", "alice-01_x"},
		{"../../etc/passwd", "etcpasswd"},
		{"a b c", "abc"},
		{"", DefaultIdentity},
		{"!!!", DefaultIdentity},
		{"ইমেইল", DefaultIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeIdentity(tt.input); got != tt.want {
				t.Errorf("SanitizeIdentity(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadInitializesEmptyCollection(t *testing.T) {
	s := newTestStore(t)

	txs, err := s.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected empty collection, got %d entries", len(txs))
	}

	// The file should now exist with an empty array.
	path := filepath.Join(s.dir, "alice.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
	if string(data) != "[]" {
		t.Errorf("initialized file = %q, want []", data)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	original := []domain.Transaction{
		sampleTx("t1", domain.KindExpense, 10000),
		{
			ID:         "t2",
			Kind:       domain.KindIncome,
			Amount:     50000,
			Category:   "Salary",
			OccurredOn: domain.NewDate(2024, time.January, 5),
			// Note intentionally absent.
			RecordedAt: time.Date(2024, time.January, 6, 9, 0, 0, 0, time.UTC),
		},
	}

	if err := s.Save(original, "alice"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(loaded) != len(original) {
		t.Fatalf("loaded %d transactions, want %d", len(loaded), len(original))
	}
	for i := range original {
		want, got := original[i], loaded[i]
		if got.ID != want.ID || got.Kind != want.Kind || got.Amount != want.Amount ||
			got.Category != want.Category || got.Note != want.Note {
			t.Errorf("transaction %d changed: got %+v, want %+v", i, got, want)
		}
		if !got.OccurredOn.Equal(want.OccurredOn.Time) {
			t.Errorf("transaction %d date changed: %v != %v", i, got.OccurredOn, want.OccurredOn)
		}
		if !got.RecordedAt.Equal(want.RecordedAt) {
			t.Errorf("transaction %d recorded_at changed: %v != %v", i, got.RecordedAt, want.RecordedAt)
		}
	}

	// Note absence must survive the round trip, not become "".
	if loaded[1].Note != "" {
		t.Errorf("expected empty note, got %q", loaded[1].Note)
	}
}

func TestAddAppends(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add(sampleTx("t1", domain.KindExpense, 10000), "alice"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(sampleTx("t2", domain.KindIncome, 50000), "alice"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	txs, err := s.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].ID != "t1" || txs[1].ID != "t2" {
		t.Errorf("persisted order changed: %s, %s", txs[0].ID, txs[1].ID)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(sampleTx("t1", domain.KindExpense, 10000), "alice")
	_ = s.Add(sampleTx("t2", domain.KindExpense, 20000), "alice")

	if err := s.Delete("t1", "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	txs, _ := s.Load("alice")
	if len(txs) != 1 || txs[0].ID != "t2" {
		t.Errorf("after delete got %+v", txs)
	}

	// Deleting a missing id is a no-op, not an error.
	if err := s.Delete("nope", "alice"); err != nil {
		t.Fatalf("Delete of missing id: %v", err)
	}
	txs, _ = s.Load("alice")
	if len(txs) != 1 {
		t.Errorf("no-op delete changed the collection: %+v", txs)
	}
}

func TestCorruptFileFailsOpen(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.dir, "alice.json")
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	txs, err := s.Load("alice")
	if err != nil {
		t.Fatalf("Load of corrupt file should not error: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected empty collection, got %d", len(txs))
	}

	// The next write self-heals the file.
	if err := s.Add(sampleTx("t1", domain.KindExpense, 10000), "alice"); err != nil {
		t.Fatalf("Add after corruption: %v", err)
	}
	txs, err = s.Load("alice")
	if err != nil || len(txs) != 1 {
		t.Errorf("after heal: txs=%v err=%v", txs, err)
	}
}

func TestIdentitiesAreIsolated(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(sampleTx("t1", domain.KindExpense, 10000), "alice")

	txs, err := s.Load("bob")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("alice's transaction leaked into bob's collection: %+v", txs)
	}
}

func TestTraversalIdentitySharesSanitizedFile(t *testing.T) {
	s := newTestStore(t)
	_ = s.Add(sampleTx("t1", domain.KindExpense, 10000), "../alice")

	// The sanitized form stays inside the data dir.
	if _, err := os.Stat(filepath.Join(s.dir, "alice.json")); err != nil {
		t.Errorf("expected sanitized file inside data dir: %v", err)
	}
}
