package sar

import (
	"regexp"
	"strconv"
	"strings"

	"emperror.dev/errors"
)

// ErrMalformedRow is returned for data rows that can not be mapped onto the
// header of their section.
var ErrMalformedRow = errors.NewPlain("malformed data row")

const (
	summaryPrefix = "Average:"
	bannerToken   = "Linux"
	cpuAggregate  = "all"
)

var (
	cpuHeaderPattern = regexp.MustCompile(`CPU.*%usr`)
	vmHeaderPattern  = regexp.MustCompile(`pgpgin.*pgpgout`)
)

type EventType int

const (
	EventNone EventType = iota
	EventHeader
	EventRestart
	EventData
)

// Event is the classification of a single line of sar output.
type Event struct {
	Type EventType
	Kind Kind

	// Header holds the column names of a header line, clock column excluded.
	Header []string

	// Key is the CPU id or interface name of a CPU or network data row.
	Key    string
	Values map[string]float64
}

// Parser classifies sar output lines and remembers the latest header of each
// section so that data rows can be mapped onto their column names.
type Parser struct {
	headers map[Kind][]string
}

func NewParser() *Parser {
	return &Parser{headers: make(map[Kind][]string)}
}

// Header returns the column names last seen for kind.
func (p *Parser) Header(kind Kind) []string {
	return p.headers[kind]
}

// Parse classifies line given the section the stream is currently in.
// Data rows that do not match their header return ErrMalformedRow; the caller
// is expected to drop the line and carry on.
func (p *Parser) Parse(line string, current Kind) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] == summaryPrefix {
		return Event{}, nil
	}

	if kind := headerKind(line); kind != KindNone {
		// The clock column is dropped: cycle time is taken when the CPU header shows up.
		header := fields[1:]
		p.headers[kind] = header
		return Event{Type: EventHeader, Kind: kind, Header: header}, nil
	}

	if strings.Contains(line, bannerToken) {
		return Event{Type: EventRestart}, nil
	}

	if current == KindNone {
		return Event{}, nil
	}
	return p.parseRow(current, fields[1:])
}

func (p *Parser) parseRow(kind Kind, values []string) (Event, error) {
	header, ok := p.headers[kind]
	if !ok {
		return Event{}, errors.Wrapf(ErrMalformedRow, "no header seen for %s section", kind)
	}
	if len(values) != len(header) {
		return Event{}, errors.Wrapf(ErrMalformedRow, "%s row has %d fields but header has %d", kind, len(values), len(header))
	}

	event := Event{Type: EventData, Kind: kind}
	offset := 0
	if kind == KindCPU || kind == KindNet {
		event.Key = values[0]
		offset = 1
	}

	event.Values = make(map[string]float64, len(header)-offset)
	for i := offset; i < len(header); i++ {
		v, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return Event{}, errors.Wrapf(ErrMalformedRow, "field %s: %v", header[i], err)
		}
		event.Values[header[i]] = v
	}
	return event, nil
}

func headerKind(line string) Kind {
	switch {
	case cpuHeaderPattern.MatchString(line):
		return KindCPU
	case vmHeaderPattern.MatchString(line):
		return KindVM
	case strings.Contains(line, "kbmemfree"):
		return KindMem
	case strings.Contains(line, "IFACE"):
		return KindNet
	default:
		return KindNone
	}
}
