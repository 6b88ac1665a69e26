package series

import (
	"emperror.dev/errors"

	"github.com/voluzi/rtst/pkg/sar"
)

// ErrUnknownKind is returned when rendering a kind without a column layout.
var ErrUnknownKind = errors.NewPlain("unknown metric family")

// Render builds the document for records of kind. Records must be ordered by
// time. Network columns follow the order of interfaces. Values missing from
// a record render as zero.
func Render(kind sar.Kind, records []*sar.Record, interfaces []string) (*Document, error) {
	if kind == sar.KindNone {
		return nil, errors.WithStack(ErrUnknownKind)
	}

	cols := columnsFor(kind, records, interfaces)

	names := make([]string, 0, len(cols)+1)
	names = append(names, TimeColumn)
	for _, c := range cols {
		names = append(names, c.name)
	}

	data := make([][]float64, 0, len(records))
	for _, r := range records {
		row := make([]float64, 0, len(names))
		row = append(row, float64(r.Time))
		for _, c := range cols {
			row = append(row, c.value(r))
		}
		data = append(data, row)
	}

	return &Document{
		DataSeriesNames: names,
		XAxisSeries:     TimeColumn,
		Data:            data,
	}, nil
}
