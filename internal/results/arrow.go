package results

import (
	"fmt"
	"math"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/panelmetrics/twfelab/internal/simulate"
)

// rowsSchema mirrors the simulations table. NaN-capable fields are nullable;
// NaN is written as null.
var rowsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "num_units", Type: arrow.PrimitiveTypes.Int64},
	{Name: "num_periods", Type: arrow.PrimitiveTypes.Int64},
	{Name: "sigma_eps", Type: arrow.PrimitiveTypes.Float64},
	{Name: "p_treat", Type: arrow.PrimitiveTypes.Float64},
	{Name: "staggered", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "het_unit", Type: arrow.BinaryTypes.String},
	{Name: "het_time", Type: arrow.BinaryTypes.String},
	{Name: "alpha", Type: arrow.PrimitiveTypes.Float64},
	{Name: "beta", Type: arrow.PrimitiveTypes.Float64},
	{Name: "mu_unit_fe", Type: arrow.PrimitiveTypes.Float64},
	{Name: "sigma_unit_fe", Type: arrow.PrimitiveTypes.Float64},
	{Name: "mu_time_fe", Type: arrow.PrimitiveTypes.Float64},
	{Name: "sigma_time_fe", Type: arrow.PrimitiveTypes.Float64},
	{Name: "mu_x", Type: arrow.PrimitiveTypes.Float64},
	{Name: "sigma_x", Type: arrow.PrimitiveTypes.Float64},
	{Name: "gamma", Type: arrow.PrimitiveTypes.Float64},
	{Name: "lag", Type: arrow.PrimitiveTypes.Int64},
	{Name: "estimate", Type: arrow.PrimitiveTypes.Float64},
	{Name: "std_err", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "p_value", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "true_effect", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// WriteRowsArrow writes simulation rows to an Arrow IPC file at path as a
// single record batch.
func WriteRowsArrow(path string, rows []simulate.Row) error {
	b := array.NewRecordBuilder(memory.NewGoAllocator(), rowsSchema)
	defer b.Release()

	for _, r := range rows {
		b.Field(0).(*array.Int64Builder).Append(int64(r.NumUnits))
		b.Field(1).(*array.Int64Builder).Append(int64(r.NumPeriods))
		b.Field(2).(*array.Float64Builder).Append(r.SigmaEps)
		b.Field(3).(*array.Float64Builder).Append(r.PTreat)
		b.Field(4).(*array.BooleanBuilder).Append(r.Staggered)
		b.Field(5).(*array.StringBuilder).Append(r.HetUnit.String())
		b.Field(6).(*array.StringBuilder).Append(r.HetTime.String())
		b.Field(7).(*array.Float64Builder).Append(r.Alpha)
		b.Field(8).(*array.Float64Builder).Append(r.Beta)
		b.Field(9).(*array.Float64Builder).Append(r.MuUnitFE)
		b.Field(10).(*array.Float64Builder).Append(r.SigmaUnitFE)
		b.Field(11).(*array.Float64Builder).Append(r.MuTimeFE)
		b.Field(12).(*array.Float64Builder).Append(r.SigmaTimeFE)
		b.Field(13).(*array.Float64Builder).Append(r.MuX)
		b.Field(14).(*array.Float64Builder).Append(r.SigmaX)
		b.Field(15).(*array.Float64Builder).Append(r.Gamma)
		b.Field(16).(*array.Int64Builder).Append(int64(r.Lag))
		b.Field(17).(*array.Float64Builder).Append(r.Estimate)
		appendNullable(b.Field(18).(*array.Float64Builder), r.StdErr)
		appendNullable(b.Field(19).(*array.Float64Builder), r.PValue)
		appendNullable(b.Field(20).(*array.Float64Builder), r.TrueEffect)
	}

	rec := b.NewRecord()
	defer rec.Release()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w, err := ipc.NewFileWriter(file, ipc.WithSchema(rowsSchema))
	if err != nil {
		return fmt.Errorf("failed to create arrow writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	return w.Close()
}

func appendNullable(fb *array.Float64Builder, f float64) {
	if math.IsNaN(f) {
		fb.AppendNull()
		return
	}
	fb.Append(f)
}
