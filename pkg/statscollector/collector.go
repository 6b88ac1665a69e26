package statscollector

import (
	"github.com/voluzi/rtst/pkg/sar"
)

// Collector stores the rolling history of every metric family. It has a single
// writer (the sampler ingestion loop) and any number of concurrent readers.
type Collector struct {
	buffers map[sar.Kind]*Buffer

	// maxSamples is the maximum number of samples to retain per metric family
	maxSamples int
}

// NewCollector creates a new Collector with a sample retention limit.
// Limits below one are raised to one.
func NewCollector(maxSamples int) *Collector {
	if maxSamples < 1 {
		maxSamples = 1
	}
	buffers := make(map[sar.Kind]*Buffer, len(sar.Kinds))
	for _, kind := range sar.Kinds {
		buffers[kind] = NewBuffer(maxSamples)
	}
	return &Collector{
		buffers:    buffers,
		maxSamples: maxSamples,
	}
}

// Capacity returns the retention limit of each buffer.
func (sc *Collector) Capacity() int {
	return sc.maxSamples
}

// Len returns how many records of kind are currently retained.
func (sc *Collector) Len(kind sar.Kind) int {
	b, ok := sc.buffers[kind]
	if !ok {
		return 0
	}
	return b.Len()
}
