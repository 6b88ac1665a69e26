package ingest

import (
	"context"
	"os"
	"syscall"

	"emperror.dev/errors"
	"github.com/containerd/fifo"
	"github.com/nxadm/tail"
	log "github.com/sirupsen/logrus"
)

// FileSource follows a file or named pipe holding recorded sar output.
type FileSource struct {
	path       string
	createFifo bool
}

// NewFileSource returns a source tailing path from its beginning. When
// createFifo is set a named pipe is created at path first.
func NewFileSource(path string, createFifo bool) *FileSource {
	return &FileSource{
		path:       path,
		createFifo: createFifo,
	}
}

func (s *FileSource) Run(ctx context.Context, emit func(line string)) error {
	if s.createFifo {
		if err := createFifo(ctx, s.path); err != nil {
			return err
		}
	}

	t, err := tail.TailFile(s.path, tail.Config{
		ReOpen: true,
		Pipe:   s.isPipe(),
		Follow: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return errors.Wrapf(err, "error tailing %s", s.path)
	}
	defer t.Cleanup()

	log.WithField("path", s.path).Info("replaying sampler output")

	for {
		select {
		case <-ctx.Done():
			return t.Stop()

		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Err(); err != nil {
					return errors.Wrapf(ErrSamplerExited, "%s: %v", s.path, err)
				}
				return errors.Wrapf(ErrSamplerExited, "%s", s.path)
			}
			if line.Err != nil {
				log.WithError(line.Err).WithField("path", s.path).Warn("error reading line")
				continue
			}
			emit(line.Text)
		}
	}
}

func (s *FileSource) isPipe() bool {
	if s.createFifo {
		return true
	}
	info, err := os.Stat(s.path)
	return err == nil && info.Mode()&os.ModeNamedPipe != 0
}

func createFifo(ctx context.Context, path string) error {
	f, err := fifo.OpenFifo(ctx, path, syscall.O_CREAT|syscall.O_RDONLY|syscall.O_NONBLOCK, 0655)
	if err != nil {
		return errors.Wrapf(err, "error creating fifo %s", path)
	}
	return errors.Wrapf(f.Close(), "error closing fifo %s", path)
}
