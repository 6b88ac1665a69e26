package ingest

import (
	"bufio"
	"context"
	"os/exec"

	"emperror.dev/errors"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/rtst/pkg/sar"
)

// CommandSource spawns the sampler and reads its standard output.
type CommandSource struct {
	command func(ctx context.Context) *exec.Cmd
}

type CommandOption func(*CommandSource)

// WithCommand replaces the sampler command builder.
func WithCommand(fn func(ctx context.Context) *exec.Cmd) CommandOption {
	return func(s *CommandSource) {
		s.command = fn
	}
}

// NewCommandSource returns a source running binary every interval seconds.
func NewCommandSource(binary string, interval int, opts ...CommandOption) *CommandSource {
	s := &CommandSource{
		command: func(ctx context.Context) *exec.Cmd {
			return sar.NewCommand(ctx, binary, interval)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CommandSource) Run(ctx context.Context, emit func(line string)) error {
	cmd := s.command(ctx)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "error creating sampler stdout pipe")
	}

	stderr := log.WithField("source", "sampler").WriterLevel(log.WarnLevel)
	defer stderr.Close()
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "error starting %s", cmd.Path)
	}
	log.WithFields(log.Fields{
		"pid":  cmd.Process.Pid,
		"args": cmd.Args,
	}).Info("sampler started")

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		emit(scanner.Text())
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// Nothing drains stdout anymore, so the sampler would block on its next write.
		if err := cmd.Process.Kill(); err != nil {
			log.WithError(err).Warn("error killing sampler")
		}
	}
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		log.Info("sampler stopped")
		return nil
	}
	if scanErr != nil {
		return errors.Wrapf(ErrSamplerExited, "error reading output of %s: %v", cmd.Path, scanErr)
	}
	if waitErr != nil {
		return errors.Wrapf(ErrSamplerExited, "%s: %v", cmd.Path, waitErr)
	}
	return errors.Wrapf(ErrSamplerExited, "%s", cmd.Path)
}
