package rtst

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"emperror.dev/errors"

	"github.com/voluzi/rtst/pkg/sar"
)

var (
	ErrUnhandledParameter = errors.NewPlain("unhandled parameter")
	ErrInvalidTimestamp   = errors.NewPlain("invalid timestamp specified")
	ErrUnknownType        = errors.NewPlain("unknown type")
)

const (
	TypeCPU     = "cpu"
	TypeIO      = "io_bw"
	TypeMemory  = "mem"
	TypeNetwork = "net"
)

// queryTypes maps request types to metric families. Paging I/O is served
// from the VM family.
var queryTypes = map[string]sar.Kind{
	TypeCPU:     sar.KindCPU,
	TypeIO:      sar.KindVM,
	TypeMemory:  sar.KindMem,
	TypeNetwork: sar.KindNet,
}

// UnknownTypeError is returned for a type outside of cpu, io_bw, mem and net.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown 'type=%s' specified", e.Type)
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// UnhandledParameterError is returned for a body field that is not a
// key=value pair.
type UnhandledParameterError struct {
	Field string
}

func (e *UnhandledParameterError) Error() string {
	return fmt.Sprintf("%s [%s]", ErrUnhandledParameter, e.Field)
}

func (e *UnhandledParameterError) Is(target error) bool {
	return target == ErrUnhandledParameter
}

// Query is a decoded history request.
type Query struct {
	Type  string
	Kind  sar.Kind
	Since int64
}

// ParseQuery decodes a "k=v&k=v" request body. The type defaults to cpu and
// the cutoff to zero. Unknown keys are ignored.
func ParseQuery(body string) (Query, error) {
	params := map[string]string{"type": TypeCPU}

	if body != "" {
		for _, field := range strings.Split(body, "&") {
			key, value, ok := strings.Cut(field, "=")
			if !ok {
				return Query{}, errors.WithStack(&UnhandledParameterError{Field: field})
			}
			params[key] = value
		}
	}

	q := Query{Type: params["type"]}

	if raw, ok := params["time"]; ok {
		since, err := parseCutoff(raw)
		if err != nil {
			return Query{}, err
		}
		q.Since = since
	}

	kind, ok := queryTypes[q.Type]
	if !ok {
		return Query{}, errors.WithStack(&UnknownTypeError{Type: q.Type})
	}
	q.Kind = kind
	return q, nil
}

// parseCutoff floors a fractional epoch millisecond timestamp.
func parseCutoff(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.WithStack(ErrInvalidTimestamp)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.WithStack(ErrInvalidTimestamp)
	}
	f = math.Floor(f)
	if f >= math.MaxInt64 {
		return math.MaxInt64, nil
	}
	if f <= math.MinInt64 {
		return math.MinInt64, nil
	}
	return int64(f), nil
}

// Encode renders q the way ParseQuery expects it.
func (q Query) Encode() string {
	return fmt.Sprintf("type=%s&time=%d", q.Type, q.Since)
}
