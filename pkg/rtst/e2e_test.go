package rtst_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/voluzi/rtst/pkg/ingest"
	"github.com/voluzi/rtst/pkg/rtst"
	"github.com/voluzi/rtst/pkg/sar"
	"github.com/voluzi/rtst/pkg/series"
	"github.com/voluzi/rtst/pkg/statscollector"
)

const banner = "Linux 6.1.0 (host) \t01/02/2024 \t_x86_64_\t(4 CPU)"

var cycle = []string{
	"12:00:01        CPU      %usr     %nice      %sys   %iowait    %steal      %irq     %soft    %guest    %gnice     %idle",
	"12:00:02        all      1.00      0.00      0.50      0.25      0.00      0.00      0.10      0.00      0.00     98.15",
	"",
	"12:00:01        IFACE   rxpck/s   txpck/s    rxkB/s    txkB/s   rxcmp/s   txcmp/s  rxmcst/s   %ifutil",
	"12:00:02           lo      1.00      1.00      0.10      0.10      0.00      0.00      0.00      0.00",
	"12:00:02         eth0     10.00      5.00      3.00      1.50      0.00      0.00      0.00      0.01",
	"",
	"12:00:01     pgpgin/s pgpgout/s   fault/s  majflt/s  pgfree/s pgscank/s pgscand/s pgsteal/s    %vmeff",
	"12:00:02         4.00     12.00    100.00      0.00     50.00      0.00      0.00      0.00      0.00",
	"",
	"12:00:01    kbmemfree   kbavail kbmemused  %memused kbbuffers  kbcached  kbcommit   %commit  kbactive   kbinact   kbdirty",
	"12:00:02           50       200       100     50.00        10        20       300     10.00        40        30         1",
	"",
}

func appendLines(path string, lines ...string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	_, err = f.WriteString(strings.Join(lines, "\n") + "\n")
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("Serving sampler history", func() {
	var (
		ctx      context.Context
		cancel   context.CancelFunc
		input    string
		client   *rtst.Client
		pipeline *ingest.Pipeline
		done     chan error
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		input = filepath.Join(dir, "sar.log")
		Expect(os.WriteFile(input, []byte(banner+"\n\n"), 0o644)).To(Succeed())

		collector := statscollector.NewCollector(3)
		pipeline = ingest.NewPipeline(
			ingest.NewFileSource(input, false),
			sar.NewAssembler(collector, []string{"eth0"}),
		)

		server := rtst.New(collector, []string{"eth0"},
			rtst.WithDocumentRoot(dir),
			rtst.WithStats(pipeline.Stats),
		)
		ts := httptest.NewServer(server.Handler())
		client = rtst.NewClientFromURL(ts.URL)

		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() {
			done <- pipeline.Run(ctx)
		}()

		DeferCleanup(func() {
			cancel()
			Eventually(done).Should(Receive(BeNil()))
			ts.Close()
			Expect(server.Close()).To(Succeed())
		})
	})

	query := func(queryType string, since int64) func() (*series.Document, error) {
		return func() (*series.Document, error) {
			return client.Query(ctx, queryType, since)
		}
	}

	It("serves an empty history before the first completed cycle", func() {
		appendLines(input, cycle...)

		doc, err := client.Query(ctx, rtst.TypeMemory, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Data).To(BeEmpty())
		Expect(doc.DataSeriesNames).To(Equal([]string{"time", "Buffer Cache", "Page Cache", "Other", "Free"}))
	})

	It("serves every family once the next cycle starts", func() {
		appendLines(input, cycle...)
		appendLines(input, cycle[0])

		Eventually(query(rtst.TypeMemory, 0)).Should(HaveField("Data", HaveLen(1)))

		mem, err := client.Query(ctx, rtst.TypeMemory, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(mem.Data[0][1:]).To(Equal([]float64{10, 20, 70, 50}))

		io, err := client.Query(ctx, rtst.TypeIO, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(io.Data).To(HaveLen(1))
		Expect(io.Data[0][1:]).To(Equal([]float64{4, 12}))

		net, err := client.Query(ctx, rtst.TypeNetwork, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(net.DataSeriesNames).To(Equal([]string{"time", "eth0 Receive", "eth0 Transmit"}))
		Expect(net.Data[0][1:]).To(Equal([]float64{3, 1.5}))

		cpu, err := client.Query(ctx, rtst.TypeCPU, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(cpu.DataSeriesNames).To(ContainElement("% Guest Nice"))
		Expect(cpu.Data[0][len(cpu.Data[0])-1]).To(Equal(98.15))

		Expect(mem.Data[0][0]).To(Equal(cpu.Data[0][0]))
	})

	It("only returns samples newer than the cutoff", func() {
		appendLines(input, cycle...)
		appendLines(input, cycle...)
		appendLines(input, cycle[0])

		Eventually(query(rtst.TypeMemory, 0)).Should(HaveField("Data", HaveLen(2)))

		all, err := client.Query(ctx, rtst.TypeMemory, 0)
		Expect(err).NotTo(HaveOccurred())

		newer, err := client.Query(ctx, rtst.TypeMemory, int64(all.Data[0][0]))
		Expect(err).NotTo(HaveOccurred())
		Expect(len(newer.Data)).To(BeNumerically("<=", 1))

		latest, err := client.Query(ctx, rtst.TypeMemory, all.Last())
		Expect(err).NotTo(HaveOccurred())
		Expect(latest.Data).To(BeEmpty())
	})

	It("keeps running across malformed lines and sampler restarts", func() {
		appendLines(input, cycle[:2]...)
		appendLines(input, "12:00:02  all  garbage", "", banner, "")
		appendLines(input, cycle...)
		appendLines(input, cycle[0])

		Eventually(query(rtst.TypeCPU, 0)).Should(HaveField("Data", HaveLen(2)))

		Eventually(func() uint64 {
			health, err := client.Health(ctx)
			if err != nil || health.Ingest == nil {
				return 0
			}
			return health.Ingest.Dropped
		}).Should(Equal(uint64(1)))
	})

	It("retains at most the configured number of samples", func() {
		for i := 0; i < 5; i++ {
			appendLines(input, cycle...)
		}
		appendLines(input, cycle[0])

		Eventually(func() uint64 { return pipeline.Stats().Cycles }).Should(Equal(uint64(5)))

		doc, err := client.Query(ctx, rtst.TypeNetwork, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Data).To(HaveLen(3))
	})

	It("rejects unknown query types", func() {
		_, err := client.Query(ctx, "foo", 0)
		Expect(err).To(MatchError(ContainSubstring("unknown 'type=foo' specified")))
	})
})
