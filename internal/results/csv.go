package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/panelmetrics/twfelab/internal/panel"
	"github.com/panelmetrics/twfelab/internal/simulate"
	"github.com/panelmetrics/twfelab/internal/summarize"
)

var paramHeader = []string{
	"num_units", "num_periods", "sigma_eps", "p_treat", "staggered",
	"het_unit", "het_time", "alpha", "beta",
	"mu_unit_fe", "sigma_unit_fe", "mu_time_fe", "sigma_time_fe",
	"mu_x", "sigma_x", "gamma",
}

func paramRecord(p panel.Params) []string {
	return []string{
		strconv.Itoa(p.NumUnits),
		strconv.Itoa(p.NumPeriods),
		formatFloat(p.SigmaEps),
		formatFloat(p.PTreat),
		strconv.FormatBool(p.Staggered),
		p.HetUnit.String(),
		p.HetTime.String(),
		formatFloat(p.Alpha),
		formatFloat(p.Beta),
		formatFloat(p.MuUnitFE),
		formatFloat(p.SigmaUnitFE),
		formatFloat(p.MuTimeFE),
		formatFloat(p.SigmaTimeFE),
		formatFloat(p.MuX),
		formatFloat(p.SigmaX),
		formatFloat(p.Gamma),
	}
}

// WriteRowsCSV writes simulation rows to a CSV file with a header row.
// NaN fields are written as the literal "NaN".
func WriteRowsCSV(path string, rows []simulate.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append(append([]string{}, paramHeader...),
		"lag", "estimate", "std_err", "p_value", "true_effect")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := append(paramRecord(r.Params),
			strconv.Itoa(r.Lag),
			formatFloat(r.Estimate),
			formatFloat(r.StdErr),
			formatFloat(r.PValue),
			formatFloat(r.TrueEffect),
		)
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WriteSummariesCSV writes aggregated summaries to a CSV file.
func WriteSummariesCSV(path string, summaries []summarize.Summary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append(append([]string{}, paramHeader...), "bias_pre", "bias_post", "rmse_post")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range summaries {
		record := append(paramRecord(s.Params),
			formatFloat(s.BiasPre),
			formatFloat(s.BiasPost),
			formatFloat(s.RMSEPost),
		)
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// WritePanelCSV writes a generated panel to a CSV file, one record per
// unit-period row. Event time and lag are blank for never-treated units.
func WritePanelCSV(path string, pl *panel.Panel) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"unit", "period", "unit_fe", "time_fe", "x", "eps",
		"ever_treated", "event_time", "effect", "post", "treated", "lag",
		"y0", "y1", "y",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, o := range pl.Obs {
		eventTime, lag := "", ""
		if o.EverTreated {
			eventTime = strconv.Itoa(o.EventTime)
			lag = strconv.Itoa(o.Lag)
		}
		record := []string{
			strconv.Itoa(o.Unit),
			strconv.Itoa(o.Period),
			formatFloat(o.UnitFE),
			formatFloat(o.TimeFE),
			formatFloat(o.X),
			formatFloat(o.Eps),
			strconv.FormatBool(o.EverTreated),
			eventTime,
			formatFloat(o.Effect),
			strconv.FormatBool(o.Post),
			strconv.FormatBool(o.Treated),
			lag,
			formatFloat(o.Y0),
			formatFloat(o.Y1),
			formatFloat(o.Y),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
