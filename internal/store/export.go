package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/apogee-sim/airbrakes/internal/sim"
)

type ExportData struct {
	Controller   string             `json:"controller"`
	TargetApogee float64            `json:"target_apogee"`
	Dt           float64            `json:"dt"`
	Steps        int                `json:"steps"`
	Apogee       float64            `json:"apogee"`
	ApogeeTime   float64            `json:"apogee_time"`
	Times        []float64          `json:"times"`
	Altitudes    []float64          `json:"altitudes"`
	Velocities   []float64          `json:"velocities"`
	Deployments  []float64          `json:"deployments"`
	Predictions  []float64          `json:"predictions"`
	Metrics      map[string]float64 `json:"metrics"`
	BadSamples   int                `json:"bad_samples"`
	Saturation   int                `json:"saturation"`
}

func buildExport(controller string, target, dt float64, result *sim.Result) ExportData {
	data := ExportData{
		Controller:   controller,
		TargetApogee: target,
		Dt:           dt,
		Steps:        result.StepsTaken,
		Apogee:       result.Apogee,
		ApogeeTime:   result.ApogeeTime,
		Times:        result.Times,
		Altitudes:    make([]float64, len(result.States)),
		Velocities:   make([]float64, len(result.States)),
		Deployments:  result.Deployments,
		Predictions:  result.Predictions,
		Metrics:      result.Metrics,
		BadSamples:   result.Diag.BadSamples,
		Saturation:   result.Diag.Saturation,
	}
	for i, s := range result.States {
		data.Altitudes[i] = s[0]
		data.Velocities[i] = s[1]
	}
	return data
}

func ExportJSON(path, controller string, target, dt float64, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, controller, target, dt, result)
}

func ExportJSONStdout(controller string, target, dt float64, result *sim.Result) error {
	return writeJSON(os.Stdout, controller, target, dt, result)
}

func writeJSON(w io.Writer, controller string, target, dt float64, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(controller, target, dt, result))
}

// ExportCSV writes one row per physics step: time, altitude, velocity,
// deployment, predicted apogee.
func ExportCSV(path string, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"time", "altitude", "velocity", "deployment", "predicted_apogee"}); err != nil {
		return err
	}
	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 4, 64),
			strconv.FormatFloat(result.States[i][0], 'f', 3, 64),
			strconv.FormatFloat(result.States[i][1], 'f', 3, 64),
			strconv.FormatFloat(result.Deployments[i], 'f', 4, 64),
			strconv.FormatFloat(result.Predictions[i], 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
