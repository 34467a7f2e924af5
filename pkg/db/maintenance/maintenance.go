package maintenance

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"biotimeline/pkg/model"
	"biotimeline/pkg/samples"
	"biotimeline/pkg/store"
)

const (
	samplesStateKey   = "builtin_samples_sha256"
	referenceCSVState = "reference_csv_mtime"
	csvSource         = "csv"
)

// Run executes all maintenance tasks: seeding built-in samples and importing the
// reference CSV. It blocks until completion.
func Run(ctx context.Context, s store.Store, csvPath string) error {
	slog.Info("Starting database maintenance...")

	if err := seedSamples(ctx, s); err != nil {
		return fmt.Errorf("failed to seed samples: %w", err)
	}

	if csvPath != "" {
		if err := importReferences(ctx, s, csvPath); err != nil {
			slog.Error("Reference CSV import failed", "error", err)
			// We don't stop startup for import failure, but we log it.
		} else {
			slog.Info("Reference CSV import check completed")
		}
	}

	return nil
}

// seedSamples writes the built-in samples whenever the embedded set changes.
func seedSamples(ctx context.Context, s store.Store) error {
	all, err := samples.All()
	if err != nil {
		return err
	}

	h := sha256.New()
	for _, smp := range all {
		fmt.Fprintf(h, "%s|%s|%s|%d\n", smp.Key, smp.Locale, smp.Text, len(smp.GoldStandard))
		for _, e := range smp.GoldStandard {
			fmt.Fprintf(h, "%s|%s|%s\n", e.Date, e.Title, e.Description)
		}
	}
	sum := hex.EncodeToString(h.Sum(nil))

	if stored, found := s.GetState(ctx, samplesStateKey); found && stored == sum {
		return nil
	}

	for i := range all {
		if err := s.SaveReference(ctx, all[i].Reference()); err != nil {
			return fmt.Errorf("sample %s: %w", all[i].Key, err)
		}
	}
	slog.Info("Seeded built-in references", "count", len(all))

	return s.SetState(ctx, samplesStateKey, sum)
}

// importReferences imports gold standards from a CSV file conditional on modification time.
// Columns: name, locale, date, title, description. Rows sharing (name, locale) form one reference.
func importReferences(ctx context.Context, s store.Store, csvPath string) error {
	info, err := os.Stat(csvPath)
	if os.IsNotExist(err) {
		return nil // File doesn't exist, nothing to import
	}
	if err != nil {
		return fmt.Errorf("failed to stat csv: %w", err)
	}

	fileMTime := info.ModTime().UTC().Format(time.RFC3339)

	storedMTime, found := s.GetState(ctx, referenceCSVState)
	if found && storedMTime == fileMTime {
		return nil // Up to date
	}

	slog.Info("Importing references from CSV...", "path", csvPath)

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	// Handle potential BOM (Byte Order Mark) at start of file
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\xef\xbb\xbf")
	}

	idxMap := make(map[string]int)
	for i, h := range headers {
		idxMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{"name", "locale", "date", "title", "description"} {
		if _, ok := idxMap[col]; !ok {
			return fmt.Errorf("missing column %q", col)
		}
	}

	refs, err := readReferenceRows(reader, idxMap)
	if err != nil {
		return err
	}

	// The imported set is fully derived from the CSV, so a full replace is safe.
	if _, err := s.DeleteReferencesBySource(ctx, csvSource); err != nil {
		return fmt.Errorf("failed to clear imported references: %w", err)
	}
	for _, ref := range refs {
		if err := s.SaveReference(ctx, ref); err != nil {
			return fmt.Errorf("failed to save %s: %w", ref.Name, err)
		}
	}

	slog.Info("Imported references", "count", len(refs))

	if err := s.SetState(ctx, referenceCSVState, fileMTime); err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	return nil
}

func readReferenceRows(reader *csv.Reader, idxMap map[string]int) ([]*model.Reference, error) {
	get := func(row []string, col string) string {
		if i, ok := idxMap[col]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var refs []*model.Reference
	byKey := make(map[string]*model.Reference)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv read error: %w", err)
		}

		name := get(record, "name")
		loc := model.Locale(strings.ToLower(get(record, "locale")))
		if name == "" {
			slog.Warn("Skipping reference row without name", "line", line)
			continue
		}
		if loc != model.LocaleItalian && loc != model.LocaleEnglish {
			slog.Warn("Skipping reference row with unsupported locale", "line", line, "locale", loc)
			continue
		}

		key := name + "|" + string(loc)
		ref, ok := byKey[key]
		if !ok {
			ref = &model.Reference{Name: name, Locale: loc, Source: csvSource}
			byKey[key] = ref
			refs = append(refs, ref)
		}
		ref.Events = append(ref.Events, model.GoldStandardEvent{
			Date:        get(record, "date"),
			Title:       get(record, "title"),
			Description: get(record, "description"),
		})
	}

	for _, ref := range refs {
		ref.Events = model.NormalizeGoldStandard(ref.Events)
	}
	return refs, nil
}
