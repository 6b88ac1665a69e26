package rtst

import (
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/voluzi/rtst/pkg/ingest"
)

const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8000
	DefaultServerName     = "localhost"
	DefaultClientInterval = 1
	DefaultClientHistory  = 300
	DefaultDocumentRoot   = "web"
	DefaultMaxRequestSize = "64KB"
	DefaultStaticCacheTTL = time.Minute
	DefaultReadTimeout    = 10 * time.Second
)

func defaultOptions() *Options {
	return &Options{
		Host:           DefaultHost,
		Port:           DefaultPort,
		ServerName:     DefaultServerName,
		ClientInterval: DefaultClientInterval,
		ClientHistory:  DefaultClientHistory,
		DocumentRoot:   DefaultDocumentRoot,
		MaxRequestSize: datasize.MustParseString(DefaultMaxRequestSize),
		StaticCacheTTL: DefaultStaticCacheTTL,
		ReadTimeout:    DefaultReadTimeout,
	}
}

type Options struct {
	Host string
	Port int

	// ServerName and Port are handed to the browser client through index.html.
	ServerName     string
	ClientInterval int
	ClientHistory  int

	DocumentRoot   string
	MaxRequestSize datasize.ByteSize
	StaticCacheTTL time.Duration
	ReadTimeout    time.Duration

	// Stats reports ingestion counters on /health and /metrics.
	Stats func() ingest.Stats
}

type Option func(*Options)

func WithHost(s string) Option {
	return func(opts *Options) {
		opts.Host = s
	}
}

func WithPort(v int) Option {
	return func(opts *Options) {
		opts.Port = v
	}
}

func WithServerName(s string) Option {
	return func(opts *Options) {
		opts.ServerName = s
	}
}

func WithClientInterval(seconds int) Option {
	return func(opts *Options) {
		opts.ClientInterval = seconds
	}
}

func WithClientHistory(samples int) Option {
	return func(opts *Options) {
		opts.ClientHistory = samples
	}
}

func WithDocumentRoot(path string) Option {
	return func(opts *Options) {
		opts.DocumentRoot = path
	}
}

func WithMaxRequestSize(size datasize.ByteSize) Option {
	return func(opts *Options) {
		opts.MaxRequestSize = size
	}
}

func WithStaticCacheTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.StaticCacheTTL = ttl
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.ReadTimeout = d
	}
}

func WithStats(fn func() ingest.Stats) Option {
	return func(opts *Options) {
		opts.Stats = fn
	}
}
