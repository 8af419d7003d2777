package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"seatsathi-workers/internal/common/config"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/counseling/service"
)

type rootOptions struct {
	configPath string
	dataDir    string
	strategy   string
	logLevel   string
	noCache    bool
	asJSON     bool
}

// NewRootCmd builds the command tree. Each call returns independent flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "counsel",
		Short:        "KCET college matching and cutoff lookup",
		Long:         "Match a KCET rank against published cutoffs, look up a college's cutoffs, and manage the activity registry.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: configs/config.yaml)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "directory of cutoff partition files (overrides config)")
	flags.StringVar(&opts.strategy, "strategy", "", "index strategy: memory, postgres or linear (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	flags.BoolVar(&opts.noCache, "no-cache", false, "bypass the Redis result cache")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(newFindCmd(opts))
	root.AddCommand(newCollegeCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newSupplementCmd(opts))
	root.AddCommand(newRegistryCmd(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.dataDir != "" {
		cfg.Counseling.DataDir = o.dataDir
	}
	if o.strategy != "" {
		cfg.Counseling.IndexStrategy = o.strategy
	}
	return cfg, nil
}

func (o *rootOptions) logger() logger.Logger {
	log, _ := logger.FromConfig(config.LoggingConfig{Level: o.logLevel, Format: "console", Output: "stderr"})
	return log
}

// service assembles the engine for one command. Stores are tried once; the
// CLI should fail fast rather than wait for a slow dependency.
func (o *rootOptions) service(ctx context.Context) (*service.Service, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return service.Build(ctx, cfg, service.Options{ConnectAttempts: 1, DisableCache: o.noCache}, o.logger())
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
