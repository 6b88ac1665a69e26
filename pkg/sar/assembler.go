package sar

import (
	"maps"
	"time"
)

// Sink receives the records of every completed sampling cycle.
type Sink interface {
	Append(kind Kind, rec *Record)
}

// Assembler turns a stream of sar output lines into completed samples.
//
// A cycle starts when the CPU header shows up. At that point the previous
// cycle, if it recorded anything, is flushed to the sink one record per
// metric family. Only network interfaces in the allow-list are retained.
type Assembler struct {
	parser  *Parser
	sink    Sink
	allowed map[string]struct{}
	now     func() time.Time

	kind     Kind
	sample   *Sample
	lastTime int64
}

type AssemblerOption func(*Assembler)

// WithClock overrides the clock used to timestamp new cycles.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(sink Sink, interfaces []string, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		parser:  NewParser(),
		sink:    sink,
		allowed: make(map[string]struct{}, len(interfaces)),
		now:     time.Now,
	}
	for _, iface := range interfaces {
		a.allowed[iface] = struct{}{}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Kind returns the section the stream is currently in.
func (a *Assembler) Kind() Kind {
	return a.kind
}

// Feed processes one line of sar output. It reports whether the line closed a
// cycle that was flushed to the sink. Malformed rows return an error and leave
// the in-progress sample untouched.
func (a *Assembler) Feed(line string) (bool, error) {
	event, err := a.parser.Parse(line, a.kind)
	if err != nil {
		return false, err
	}

	switch event.Type {
	case EventHeader:
		return a.onHeader(event.Kind), nil
	case EventRestart:
		a.kind = KindNone
	case EventData:
		a.onRow(event)
	}
	return false, nil
}

func (a *Assembler) onHeader(kind Kind) bool {
	a.kind = kind
	switch kind {
	case KindCPU:
		flushed := a.flush()
		a.begin()
		return flushed
	case KindNet:
		// Network data spans one row per interface until the next header.
		if a.sample != nil {
			a.sample.Records[KindNet] = &Record{
				Time:       a.sample.Time,
				Interfaces: make(map[string]map[string]float64, len(a.allowed)),
			}
		}
	}
	return false
}

func (a *Assembler) onRow(event Event) {
	// Rows before the first CPU header have no cycle to belong to.
	if a.sample == nil {
		return
	}

	switch event.Kind {
	case KindCPU:
		if event.Key != cpuAggregate {
			return
		}
		a.merge(KindCPU, event.Values)
	case KindVM, KindMem:
		a.merge(event.Kind, event.Values)
	case KindNet:
		if _, ok := a.allowed[event.Key]; !ok {
			return
		}
		rec, ok := a.sample.Records[KindNet]
		if !ok {
			rec = &Record{Time: a.sample.Time, Interfaces: make(map[string]map[string]float64)}
			a.sample.Records[KindNet] = rec
		}
		rec.Interfaces[event.Key] = event.Values
	}
}

func (a *Assembler) merge(kind Kind, values map[string]float64) {
	rec, ok := a.sample.Records[kind]
	if !ok {
		a.sample.Records[kind] = &Record{Time: a.sample.Time, Values: values}
		return
	}
	maps.Copy(rec.Values, values)
}

func (a *Assembler) flush() bool {
	if a.sample == nil || a.sample.Empty() {
		return false
	}
	for _, kind := range Kinds {
		if rec, ok := a.sample.Records[kind]; ok {
			a.sink.Append(kind, rec)
		}
	}
	return true
}

func (a *Assembler) begin() {
	t := a.now().UnixMilli()
	// Keep buffers ordered when the wall clock steps backwards.
	if t < a.lastTime {
		t = a.lastTime
	}
	a.lastTime = t
	a.sample = newSample(t)
}
