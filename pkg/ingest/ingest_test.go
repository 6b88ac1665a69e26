package ingest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voluzi/rtst/pkg/sar"
	"github.com/voluzi/rtst/pkg/statscollector"
)

const transcript = `Linux 6.1.0 (host) 	01/02/2024 	_x86_64_	(4 CPU)

12:00:01        CPU      %usr     %nice      %sys   %iowait    %steal      %irq     %soft    %guest    %gnice     %idle
12:00:02        all      1.00      0.00      0.50      0.25      0.00      0.00      0.10      0.00      0.00     98.15

12:00:01     pgpgin/s pgpgout/s   fault/s  majflt/s  pgfree/s pgscank/s pgscand/s pgsteal/s    %vmeff
12:00:02         4.00     12.00    100.00      0.00     50.00      0.00      0.00      0.00      0.00

12:00:01    kbmemfree   kbavail kbmemused  %memused kbbuffers  kbcached  kbcommit   %commit  kbactive   kbinact   kbdirty
12:00:02           50       200       100     50.00        10        20       300     10.00        40        30         1
12:00:02     garbage

12:00:01        CPU      %usr     %nice      %sys   %iowait    %steal      %irq     %soft    %guest    %gnice     %idle
`

type lineRecorder struct {
	lock  sync.Mutex
	lines []string
}

func (r *lineRecorder) emit(line string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.lines = append(r.lines, line)
}

func (r *lineRecorder) snapshot() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.lines...)
}

func printfCommand(output string) CommandOption {
	return WithCommand(func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, "printf", "%s", output)
	})
}

func TestCommandSource_ExitIsAnError(t *testing.T) {
	rec := &lineRecorder{}
	src := NewCommandSource("", 1, printfCommand("a\nb\n"))

	err := src.Run(context.Background(), rec.emit)
	assert.ErrorIs(t, err, ErrSamplerExited)
	assert.Equal(t, []string{"a", "b"}, rec.snapshot())
}

func TestCommandSource_MissingBinary(t *testing.T) {
	src := NewCommandSource(filepath.Join(t.TempDir(), "missing"), 1)
	err := src.Run(context.Background(), func(string) {})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSamplerExited)
}

func TestCommandSource_OverlongLineStopsSampler(t *testing.T) {
	script := `head -c 70000 /dev/zero | tr '\0' x; echo; while :; do echo line; sleep 0.1; done`
	src := NewCommandSource("", 1, WithCommand(func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", script)
	}))

	done := make(chan error, 1)
	go func() {
		done <- src.Run(context.Background(), func(string) {})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSamplerExited)
		assert.ErrorContains(t, err, "error reading output")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for sampler to be stopped")
	}
}

func TestCommandSource_CancelStopsSampler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewCommandSource("", 1, WithCommand(func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, "sleep", "30")
	}))

	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(string) {})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for sampler to stop")
	}
}

func TestPipeline_CommandTranscript(t *testing.T) {
	collector := statscollector.NewCollector(10)
	assembler := sar.NewAssembler(collector, nil)
	pipeline := NewPipeline(NewCommandSource("", 1, printfCommand(transcript)), assembler)

	err := pipeline.Run(context.Background())
	assert.ErrorIs(t, err, ErrSamplerExited)

	stats := pipeline.Stats()
	assert.Equal(t, uint64(len(strings.Split(strings.TrimSuffix(transcript, "\n"), "\n"))), stats.Lines)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(1), stats.Cycles)

	assert.Equal(t, 1, collector.Len(sar.KindCPU))
	assert.Equal(t, 1, collector.Len(sar.KindVM))
	assert.Equal(t, 1, collector.Len(sar.KindMem))
	assert.Zero(t, collector.Len(sar.KindNet))

	mem, ok := collector.Latest(sar.KindMem)
	require.True(t, ok)
	assert.Equal(t, 10.0, mem.Values["kbbuffers"])
}

func TestFileSource_FollowsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sar.log")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.WriteString("first\n")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &lineRecorder{}
	done := make(chan error, 1)
	go func() {
		done <- NewFileSource(path, false).Run(ctx, rec.emit)
	}()

	_, err = f.WriteString("\nsecond\n")
	require.NoError(t, err)
	_ = f.Sync()

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 3
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"first", "", "second"}, rec.snapshot())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for source to stop")
	}
}

func TestFileSource_CreatesFifo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sar.fifo")
	src := NewFileSource(path, false)
	assert.False(t, src.isPipe())

	require.NoError(t, createFifo(context.Background(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeNamedPipe)
	assert.True(t, src.isPipe())

	// creating an existing fifo is a no-op
	assert.NoError(t, createFifo(context.Background(), path))
}
