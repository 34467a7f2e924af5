package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"biotimeline/pkg/db"
	"biotimeline/pkg/model"
	"biotimeline/pkg/store"
)

func setup(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()
	tempDir := t.TempDir()
	d, err := db.Init(filepath.Join(tempDir, "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return store.NewSQLiteStore(d), tempDir
}

func TestMaintenance_SeedSamples(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()

	if err := Run(ctx, s, ""); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	refs, err := s.ListReferences(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 built-in references, got %d", len(refs))
	}
	if _, found := s.GetState(ctx, samplesStateKey); !found {
		t.Error("samples checksum not stored")
	}

	// Second run is a no-op and must not duplicate.
	if err := Run(ctx, s, ""); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	refs, _ = s.ListReferences(ctx)
	if len(refs) != 3 {
		t.Errorf("expected 3 references after re-run, got %d", len(refs))
	}

	leo, err := s.GetReference(ctx, "builtin-leonardo-short")
	if err != nil || leo == nil {
		t.Fatalf("leonardo sample missing: %v", err)
	}
	if !leo.Builtin || len(leo.Events) != 6 {
		t.Errorf("unexpected leonardo reference: builtin=%v events=%d", leo.Builtin, len(leo.Events))
	}
}

func TestMaintenance_ImportCSV(t *testing.T) {
	s, dir := setup(t)
	ctx := context.Background()

	csvPath := filepath.Join(dir, "references.csv")
	// Simulate BOM by prepending \ufeff
	content := "\ufeffname,locale,date,title,description\n" +
		"Ada Lovelace,en,1815,Birth,Born in London.\n" +
		"Ada Lovelace,en,1843,Notes,Publishes the notes on the Analytical Engine.\n" +
		"Ada Lovelace,en,,No date,Dropped.\n" +
		"Dante,de,1265,Geburt,Skipped locale.\n" +
		"Dante Alighieri,it,1265,Nascita,Nasce a Firenze.\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run(ctx, s, csvPath); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ada, err := s.FindReference(ctx, "Ada Lovelace", model.LocaleEnglish)
	if err != nil || ada == nil {
		t.Fatalf("Ada Lovelace not imported: %v", err)
	}
	if ada.Source != csvSource {
		t.Errorf("expected source csv, got %q", ada.Source)
	}
	if len(ada.Events) != 2 {
		t.Errorf("expected 2 events (dateless dropped), got %d", len(ada.Events))
	}
	if ada.Events[1].Year != 1843 {
		t.Errorf("expected derived year 1843, got %d", ada.Events[1].Year)
	}
	if _, found := s.GetState(ctx, referenceCSVState); !found {
		t.Error("State not updated after import")
	}

	refs, _ := s.ListReferences(ctx)
	if len(refs) != 5 { // 3 built-in + 2 imported
		t.Fatalf("expected 5 references, got %d", len(refs))
	}

	// Rewriting the file replaces the imported set.
	content = "name,locale,date,title,description\nDante Alighieri,it,1321,Morte,Muore a Ravenna.\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(csvPath, future, future); err != nil {
		t.Fatal(err)
	}
	if err := Run(ctx, s, csvPath); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	refs, _ = s.ListReferences(ctx)
	if len(refs) != 4 {
		t.Errorf("expected 4 references after re-import, got %d", len(refs))
	}
}

func TestMaintenance_MissingCSV(t *testing.T) {
	s, dir := setup(t)
	if err := Run(context.Background(), s, filepath.Join(dir, "absent.csv")); err != nil {
		t.Fatalf("missing CSV must not fail maintenance: %v", err)
	}
}
