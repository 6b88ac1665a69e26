package ingest

import (
	"context"

	"emperror.dev/errors"
)

// ErrSamplerExited is returned when the sampler stops producing output while
// ingestion was still expected to run.
var ErrSamplerExited = errors.NewPlain("sampler exited")

// Source produces sar output lines. Run blocks, calling emit from a single
// goroutine for every line, until ctx is cancelled or the source ends.
// Cancellation is not an error.
type Source interface {
	Run(ctx context.Context, emit func(line string)) error
}
