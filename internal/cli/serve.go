package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pqtree/pkg/cache"
	"github.com/matzehuels/pqtree/pkg/observability"
	"github.com/matzehuels/pqtree/pkg/render"
	"github.com/matzehuels/pqtree/pkg/scenario"
	"github.com/matzehuels/pqtree/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	redisAddr string
	cacheSize int
	keyPrefix string
	timeout   time.Duration
	metrics   bool
}

// serveCommand creates the serve command, which exposes scenario runs and
// rendering over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:      server.DefaultAddr,
		redisAddr: os.Getenv(envRedisAddr),
		cacheSize: 1024,
		timeout:   server.DefaultRequestTimeout,
		metrics:   true,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenario runs and renders over HTTP",
		Long: `Start the HTTP API. Results are cached in memory, or in Redis when
--redis or $PQTREE_REDIS_ADDR is set.`,
		Example: `  pqtree serve --addr :9000
  curl --data-binary @testdata/singly.toml localhost:9000/v1/scenarios`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			rc, err := newServeCache(cmd, opts)
			if err != nil {
				return err
			}
			defer rc.Close()

			var metrics *observability.Metrics
			if opts.metrics {
				metrics, err = observability.NewMetrics()
				if err != nil {
					return err
				}
				observability.Install(metrics)
				defer observability.Reset()
			}

			var keyer cache.Keyer
			if opts.keyPrefix != "" {
				keyer = cache.NewScopedKeyer(nil, opts.keyPrefix)
			}

			srv := server.New(
				server.Config{Addr: opts.addr, RequestTimeout: opts.timeout},
				scenario.NewRunner(rc, keyer, logger),
				render.New(render.WithCache(rc), render.WithKeyer(keyer), render.WithLogger(logger)),
				metrics,
				logger,
			)
			printInfo("Listening on %s", StyleLink.Render("http://"+displayAddr(opts.addr)))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", opts.redisAddr, "Redis address for the shared cache (host:port or redis:// URL)")
	cmd.Flags().StringVar(&opts.keyPrefix, "key-prefix", "", "prefix for cache keys, to share one Redis database")
	cmd.Flags().IntVar(&opts.cacheSize, "cache-size", opts.cacheSize, "entries kept by the in-memory cache")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request timeout")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "expose Prometheus metrics on /metrics")

	return cmd
}

func newServeCache(cmd *cobra.Command, opts serveOpts) (cache.Cache, error) {
	if opts.redisAddr != "" {
		return cache.NewRedisCache(cmd.Context(), opts.redisAddr)
	}
	return cache.NewMemoryCache(opts.cacheSize)
}

// displayAddr turns a listen address like ":8080" into one that can be
// opened in a browser.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
