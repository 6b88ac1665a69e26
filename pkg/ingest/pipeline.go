package ingest

import (
	"context"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/voluzi/rtst/pkg/sar"
)

// Stats are the ingestion counters since the pipeline was created.
type Stats struct {
	Lines   uint64 `json:"lines"`
	Dropped uint64 `json:"dropped"`
	Cycles  uint64 `json:"cycles"`
}

// Pipeline feeds every line of a source to an assembler. It is the only
// writer of the sink the assembler was built with.
type Pipeline struct {
	source    Source
	assembler *sar.Assembler

	lines   atomic.Uint64
	dropped atomic.Uint64
	cycles  atomic.Uint64
}

func NewPipeline(source Source, assembler *sar.Assembler) *Pipeline {
	return &Pipeline{
		source:    source,
		assembler: assembler,
	}
}

// Run blocks until ctx is cancelled or the source ends.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.source.Run(ctx, p.handle)
}

func (p *Pipeline) handle(line string) {
	p.lines.Add(1)

	emitted, err := p.assembler.Feed(line)
	if err != nil {
		p.dropped.Add(1)
		log.WithError(err).WithField("line", line).Debug("dropping line")
		return
	}
	if emitted {
		p.cycles.Add(1)
	}
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Lines:   p.lines.Load(),
		Dropped: p.dropped.Load(),
		Cycles:  p.cycles.Load(),
	}
}
