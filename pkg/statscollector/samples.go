package statscollector

import (
	"github.com/voluzi/rtst/pkg/sar"
)

// Append records a completed sub-record. Records of unknown kinds are ignored.
func (sc *Collector) Append(kind sar.Kind, rec *sar.Record) {
	b, ok := sc.buffers[kind]
	if !ok || rec == nil {
		return
	}
	b.Append(rec)
}

// Since returns all records of kind newer than cutoff (epoch milliseconds), in
// the order they were sampled. A cutoff of zero returns the whole history.
func (sc *Collector) Since(kind sar.Kind, cutoff int64) []*sar.Record {
	b, ok := sc.buffers[kind]
	if !ok {
		return []*sar.Record{}
	}
	return b.Since(cutoff)
}

// Latest returns the newest record of kind.
func (sc *Collector) Latest(kind sar.Kind) (*sar.Record, bool) {
	b, ok := sc.buffers[kind]
	if !ok {
		return nil, false
	}
	return b.Latest()
}
