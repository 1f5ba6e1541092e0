package store

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apogee-sim/airbrakes/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Times:       []float64{0, 0.01, 0.02},
		States:      []sim.State{{1800, 180}, {1801.8, 179.9}, {1803.6, 179.8}},
		Deployments: []float64{0, 0.005, 0.01},
		Predictions: []float64{3118, 3117, 3115},
		Apogee:      3015.2,
		ApogeeTime:  13.4,
		Metrics:     map[string]float64{"apogee_error": 15.2},
		StepsTaken:  3,
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, "pid", 3000, 0.005, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out ExportData
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("exported file is not valid JSON: %v", err)
	}
	if out.Controller != "pid" || out.Apogee != 3015.2 {
		t.Errorf("round trip lost fields: %+v", out)
	}
	if len(out.Altitudes) != 3 || out.Altitudes[2] != 1803.6 {
		t.Errorf("altitude column wrong: %v", out.Altitudes)
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	if err := ExportCSV(path, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("exported file is not valid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "time" || rows[0][3] != "deployment" {
		t.Errorf("unexpected header: %v", rows[0])
	}
}

func TestExportSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.svg")
	if err := ExportSVG(path, 3000, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(data)
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "</svg>") {
		t.Error("output is not an SVG document")
	}
	// Altitude trace, deployment trace, target line.
	if strings.Count(svg, "<path") != 2 {
		t.Errorf("expected 2 traces, found %d", strings.Count(svg, "<path"))
	}
	if !strings.Contains(svg, "stroke-dasharray") {
		t.Error("target line missing")
	}
}

func TestExportSVGTooShort(t *testing.T) {
	r := &sim.Result{Times: []float64{0}}
	if err := ExportSVG(filepath.Join(t.TempDir(), "x.svg"), 3000, r); err == nil {
		t.Error("expected error for single-sample result")
	}
}
