package sar

// Kind identifies a sar output section and the metric family it carries.
type Kind int

const (
	KindNone Kind = iota
	KindCPU
	KindVM
	KindMem
	KindNet
)

// Kinds lists every metric family in the order completed samples are flushed.
var Kinds = []Kind{KindCPU, KindVM, KindMem, KindNet}

func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindVM:
		return "vm"
	case KindMem:
		return "mem"
	case KindNet:
		return "net"
	default:
		return "none"
	}
}

// Record is the part of one sampling cycle pertaining to a single metric family.
// CPU, VM and memory records use Values. Network records use Interfaces, keyed
// by interface name. A record must not be modified once it was handed to a Sink.
type Record struct {
	Time       int64                         `json:"time"`
	Values     map[string]float64            `json:"values,omitempty"`
	Interfaces map[string]map[string]float64 `json:"interfaces,omitempty"`
}

// Value returns a field of a CPU, VM or memory record.
func (r *Record) Value(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}

// InterfaceValue returns a field of one interface in a network record.
func (r *Record) InterfaceValue(iface, field string) (float64, bool) {
	fields, ok := r.Interfaces[iface]
	if !ok {
		return 0, false
	}
	v, ok := fields[field]
	return v, ok
}

// Sample is one in-progress observation cycle.
type Sample struct {
	Time    int64
	Records map[Kind]*Record
}

func newSample(t int64) *Sample {
	return &Sample{
		Time:    t,
		Records: make(map[Kind]*Record, len(Kinds)),
	}
}

// Empty reports whether no family recorded anything during the cycle.
func (s *Sample) Empty() bool {
	return len(s.Records) == 0
}
