package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/c2h5oh/datasize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/voluzi/rtst/pkg/environ"
	"github.com/voluzi/rtst/pkg/ingest"
	"github.com/voluzi/rtst/pkg/netif"
	"github.com/voluzi/rtst/pkg/rtst"
	"github.com/voluzi/rtst/pkg/sar"
	"github.com/voluzi/rtst/pkg/statscollector"
)

const (
	DefaultServerInterval = 1
	DefaultServerHistory  = 300
)

var (
	serverInterval     int
	clientInterval     int
	serverHistory      int
	clientHistory      int
	host               string
	selectedInterfaces []string
	documentRoot       string
	sarBinary          string
	input              string
	createFifo         bool
	maxRequestSize     string
	staticCacheTTL     time.Duration
	readTimeout        time.Duration
)

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Samples the system and serves the history over HTTP",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := validateSettings()
		if err != nil {
			return err
		}

		interfaces, err := selectInterfaces(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.WithFields(log.Fields{
			"interfaces":      strings.Join(interfaces, ","),
			"server-interval": serverInterval,
			"client-interval": clientInterval,
			"server-history":  serverHistory,
			"client-history":  clientHistory,
			"server-name":     serverName,
			"server-port":     serverPort,
		}).Info("starting")

		collector := statscollector.NewCollector(serverHistory)

		var source ingest.Source = ingest.NewCommandSource(sarBinary, serverInterval)
		if input != "" {
			source = ingest.NewFileSource(input, createFifo)
		}
		pipeline := ingest.NewPipeline(source, sar.NewAssembler(collector, interfaces))

		server := rtst.New(collector, interfaces,
			rtst.WithHost(host),
			rtst.WithPort(serverPort),
			rtst.WithServerName(serverName),
			rtst.WithClientInterval(clientInterval),
			rtst.WithClientHistory(clientHistory),
			rtst.WithDocumentRoot(documentRoot),
			rtst.WithMaxRequestSize(size),
			rtst.WithStaticCacheTTL(staticCacheTTL),
			rtst.WithReadTimeout(readTimeout),
			rtst.WithStats(pipeline.Stats),
		)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return pipeline.Run(ctx)
		})
		g.Go(server.Start)
		g.Go(func() error {
			<-ctx.Done()
			log.Info("stopping")
			return server.Stop()
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&serverInterval, "server-interval",
		environ.GetInt(environ.Key("server-interval"), DefaultServerInterval),
		"How often, in seconds, the server collects samples",
	)
	serveCmd.Flags().IntVar(&clientInterval, "client-interval",
		environ.GetInt(environ.Key("client-interval"), rtst.DefaultClientInterval),
		"How often, in seconds, the client requests new data from the server",
	)
	serveCmd.Flags().IntVar(&serverHistory, "server-history",
		environ.GetInt(environ.Key("server-history"), DefaultServerHistory),
		"How many samples the server buffers per metric family",
	)
	serveCmd.Flags().IntVar(&clientHistory, "client-history",
		environ.GetInt(environ.Key("client-history"), rtst.DefaultClientHistory),
		"How many samples the client buffers by default",
	)
	serveCmd.Flags().StringVar(&host, "host",
		environ.GetString(environ.Key("host"), rtst.DefaultHost),
		"The host at which the server listens",
	)
	serveCmd.Flags().StringSliceVar(&selectedInterfaces, "selected-interfaces",
		environ.GetStringSlice(environ.Key("selected-interfaces"), nil),
		"Comma separated list of network interfaces to monitor",
	)
	serveCmd.Flags().StringVar(&documentRoot, "document-root",
		environ.GetString(environ.Key("document-root"), rtst.DefaultDocumentRoot),
		"Directory holding the browser client",
	)
	serveCmd.Flags().StringVar(&sarBinary, "sar-binary",
		environ.GetString(environ.Key("sar-binary"), sar.DefaultBinary),
		"Path to the sar executable",
	)
	serveCmd.Flags().StringVar(&input, "input",
		environ.GetString(environ.Key("input"), ""),
		"Replay sar output from this file or fifo instead of running sar",
	)
	serveCmd.Flags().BoolVar(&createFifo, "create-fifo",
		environ.GetBool(environ.Key("create-fifo"), false),
		"Create the input fifo before reading it",
	)
	serveCmd.Flags().StringVar(&maxRequestSize, "max-request-size",
		environ.GetSize(environ.Key("max-request-size"), datasize.MustParseString(rtst.DefaultMaxRequestSize)).String(),
		"Maximum size of a query request body",
	)
	serveCmd.Flags().DurationVar(&staticCacheTTL, "static-cache-ttl",
		environ.GetDuration(environ.Key("static-cache-ttl"), rtst.DefaultStaticCacheTTL),
		"How long client files stay cached",
	)
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout",
		environ.GetDuration(environ.Key("read-timeout"), rtst.DefaultReadTimeout),
		"Maximum duration for reading a whole request",
	)
}

// validateSettings checks the numeric settings and returns the parsed request
// size limit.
func validateSettings() (datasize.ByteSize, error) {
	positive := []struct {
		name  string
		value int
	}{
		{"server-interval", serverInterval},
		{"client-interval", clientInterval},
		{"server-history", serverHistory},
		{"client-history", clientHistory},
		{"server-port", serverPort},
	}
	for _, setting := range positive {
		if setting.value <= 0 {
			return 0, errors.Errorf("--%s must be greater than zero, got %d", setting.name, setting.value)
		}
	}
	if serverName == "" {
		return 0, errors.New("--server-name must not be empty")
	}
	if staticCacheTTL <= 0 {
		return 0, errors.Errorf("--static-cache-ttl must be greater than zero, got %s", staticCacheTTL)
	}
	if readTimeout <= 0 {
		return 0, errors.Errorf("--read-timeout must be greater than zero, got %s", readTimeout)
	}

	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(maxRequestSize)); err != nil {
		return 0, errors.Wrapf(err, "invalid --max-request-size %q", maxRequestSize)
	}
	if size == 0 {
		return 0, errors.New("--max-request-size must be greater than zero")
	}
	return size, nil
}

// selectInterfaces validates the requested interfaces against the host. A
// replayed input may come from another host, so only emptiness is checked.
func selectInterfaces(cmd *cobra.Command) ([]string, error) {
	requested := netif.Parse(strings.Join(selectedInterfaces, ","))
	if input != "" {
		if len(requested) == 0 {
			return nil, errors.WithStack(netif.ErrNoInterfaces)
		}
		return requested, nil
	}

	available, err := netif.Available(cmd.Context())
	if err != nil {
		return nil, err
	}
	return netif.Select(requested, available)
}
