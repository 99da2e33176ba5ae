package edgecheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"go-domain-routing-service/internal/config"
	"go-domain-routing-service/internal/edge"
	"go-domain-routing-service/internal/tools/common"
	"go-domain-routing-service/internal/tools/ui"
)

// The checker probes the worker facade with a hostname reference that can
// never exist. A not-found answer proves the base URL and bearer token are
// good without touching real state.
const sentinelHostnameRef = "edgecheck-sentinel-00000000"

type options struct {
	ci      bool
	timeout time.Duration
	envFile string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "edgecheck",
		Short:        "Verify connectivity and credentials for the edge worker facade",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a single JSON result instead of the interactive UI")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "probe timeout")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading configuration")

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Probe the worker facade once",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "Edge worker probe", func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				cfg, err := config.Load()
				if err != nil {
					return nil, err
				}
				return probe(ctx, cfg)
			})
			return err
		},
	})
	return root
}

func probe(ctx context.Context, cfg *config.Config) ([]string, error) {
	client := edge.NewHostnameClient(cfg)
	_, err := client.Fetch(ctx, sentinelHostnameRef)
	if err == nil {
		// The sentinel should never resolve; a hit means the facade is
		// routing requests somewhere unexpected.
		return nil, fmt.Errorf("sentinel hostname %q unexpectedly exists upstream", sentinelHostnameRef)
	}

	var upstream *edge.UpstreamError
	if !errors.As(err, &upstream) {
		return nil, fmt.Errorf("worker unreachable: %w", err)
	}
	switch upstream.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("worker rejected credentials (status %d)", upstream.Status)
	case http.StatusNotFound, http.StatusGone:
		return []string{
			fmt.Sprintf("worker reachable at %s", cfg.WorkerURL),
			"bearer token accepted",
		}, nil
	default:
		return nil, fmt.Errorf("worker returned unexpected status %d: %s", upstream.Status, upstream.Message)
	}
}

func run(opts *options, title string, fn ui.Action) ([]string, error) {
	wrapped := func(ctx context.Context) ([]string, error) {
		ctx, cancel := context.WithTimeout(ctx, opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	if opts.ci {
		details, err := wrapped(context.Background())
		common.PrintCIResult(err == nil, title, details, err)
		return details, err
	}
	return ui.Run(title, wrapped)
}
