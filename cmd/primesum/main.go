package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"primesum/internal/config"
	"primesum/internal/logging"
)

// app carries global flag values and the state PersistentPreRunE builds.
type app struct {
	// Global flags
	configPath  string
	verbose     bool
	logFormat   string
	jsonOutput  bool
	metricsAddr string

	cfg     *config.Config
	loggers *logging.Loggers
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "primesum",
		Short: "Search for counterexamples to the prime digit-sum conjecture",
		Long: `primesum enumerates primes p over an integer range and checks, for each
numeral base b, that the base-b digit sum S_b(p) is 1, a prime, or a semiprime.
Any other digit sum is a counterexample and is reported.

Each base is searched by a fresh set of workers, one per CPU by default.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.loggers != nil {
				_ = a.loggers.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "primesum.yaml", "path to the YAML config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.logFormat, "log-format", "", "log encoding: json or console (overrides config)")
	flags.BoolVar(&a.jsonOutput, "json", false, "print per-base records as JSON lines")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")

	rootCmd.AddCommand(
		a.newRunCmd(),
		a.newPresetCmd(config.PresetBase7, "Collect every violation in base 7 up to ten billion"),
		a.newPresetCmd(config.PresetSweep, "Sweep bases 2000 through 5000 up to one billion, first violation per base"),
		a.newPresetCmd(config.PresetSpecial, "Deep-check bases 7, 13, 31, 61, 211 and 421 up to one billion"),
		a.newInspectCmd(),
		a.newConfigCmd(),
	)
	return rootCmd
}

// init loads config and builds the loggers.
func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if a.jsonOutput {
		cfg.Report.Format = "json"
	}
	if a.metricsAddr != "" {
		cfg.Metrics.Addr = a.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loggers, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.loggers = loggers

	a.loggers.Get(logging.CategoryBoot).Debug("configuration loaded",
		zap.String("path", a.configPath),
		zap.String("report_format", cfg.Report.Format))
	return nil
}

// interruptContext cancels the returned context on the first SIGINT or
// SIGTERM and then drops the handler, so a second signal terminates the
// process the default way. The running base is not interrupted by the first.
func interruptContext(parent context.Context, w io.Writer) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			fmt.Fprintf(w, "Received %s, stopping after the current base. Send it again to quit now.\n", sig)
			cancel()
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() { close(done) })
		cancel()
	}
}

func main() {
	ctx, stop := interruptContext(context.Background(), os.Stderr)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
