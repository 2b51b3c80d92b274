package results

import (
	"bytes"
	"encoding/csv"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/panelmetrics/twfelab/internal/panel"
	"github.com/panelmetrics/twfelab/internal/summarize"
)

func TestWriteRowsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	rows := testRows()
	if err := WriteRowsCSV(path, rows); err != nil {
		t.Fatalf("WriteRowsCSV: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != len(rows)+1 {
		t.Fatalf("expected %d records including header, got %d", len(rows)+1, len(records))
	}

	header := records[0]
	if header[0] != "num_units" || header[len(header)-1] != "true_effect" {
		t.Errorf("unexpected header: %v", header)
	}

	// The third row carries a NaN true effect, written as a literal.
	last := records[3]
	if last[len(last)-1] != "NaN" {
		t.Errorf("expected NaN literal for missing true effect, got %q", last[len(last)-1])
	}
}

func TestWriteSummariesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summaries.csv")
	summaries := summarize.Summarise(testRows())
	if err := WriteSummariesCSV(path, summaries); err != nil {
		t.Fatalf("WriteSummariesCSV: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != len(summaries)+1 {
		t.Fatalf("expected %d records including header, got %d", len(summaries)+1, len(records))
	}
	header := records[0]
	if header[len(header)-1] != "rmse_post" {
		t.Errorf("unexpected header: %v", header)
	}
}

func TestWritePanelCSV(t *testing.T) {
	p := panel.Default()
	p.NumUnits = 5
	p.NumPeriods = 6
	pl, err := panel.Generate(rand.New(rand.NewSource(7)), p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "panel.csv")
	if err := WritePanelCSV(path, pl); err != nil {
		t.Fatalf("WritePanelCSV: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != len(pl.Obs)+1 {
		t.Fatalf("expected %d records including header, got %d", len(pl.Obs)+1, len(records))
	}

	// Never-treated units leave event_time and lag blank.
	for i, o := range pl.Obs {
		rec := records[i+1]
		if !o.EverTreated && (rec[7] != "" || rec[11] != "") {
			t.Errorf("row %d: expected blank event_time/lag for never-treated unit, got %q/%q", i, rec[7], rec[11])
		}
	}
}

func TestWriteRowsArrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.arrow")
	if err := WriteRowsArrow(path, testRows()); err != nil {
		t.Fatalf("WriteRowsArrow: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	magic := []byte("ARROW1")
	if !bytes.HasPrefix(data, magic) {
		t.Errorf("file does not start with the arrow magic bytes")
	}
	if !bytes.HasSuffix(data, magic) {
		t.Errorf("file does not end with the arrow magic bytes")
	}
}

func TestNullableMapping(t *testing.T) {
	if nullable(math.NaN()).Valid {
		t.Error("NaN should map to NULL")
	}
	if nullable(math.Inf(1)).Valid {
		t.Error("+Inf should map to NULL")
	}
	v := nullable(1.5)
	if !v.Valid || v.Float64 != 1.5 {
		t.Errorf("finite value should round-trip, got %+v", v)
	}
	if !math.IsNaN(fromNullable(nullable(math.NaN()))) {
		t.Error("NULL should map back to NaN")
	}
}
