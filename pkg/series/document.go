package series

import (
	"io"

	"emperror.dev/errors"
	"github.com/goccy/go-json"
)

// TimeColumn is the name of the first column of every document.
const TimeColumn = "time"

// Document is the payload served to polling clients. Each row of Data has one
// cell per entry in DataSeriesNames, the first of which is always the time.
type Document struct {
	DataSeriesNames []string    `json:"data_series_names"`
	XAxisSeries     string      `json:"x_axis_series"`
	Data            [][]float64 `json:"data"`
}

// Len returns the number of rows in the document.
func (d *Document) Len() int {
	return len(d.Data)
}

// Last returns the time of the newest row, or zero if the document is empty.
// Clients use it as the cutoff of their next query.
func (d *Document) Last() int64 {
	if len(d.Data) == 0 || len(d.Data[len(d.Data)-1]) == 0 {
		return 0
	}
	return int64(d.Data[len(d.Data)-1][0])
}

func (d *Document) Marshal() ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "error encoding document")
	}
	return b, nil
}

// Decode reads one document from r.
func Decode(r io.Reader) (*Document, error) {
	doc := &Document{}
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "error decoding document")
	}
	if doc.Data == nil {
		doc.Data = [][]float64{}
	}
	return doc, nil
}
