package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mlfq/internal/kernel"
	"mlfq/internal/metrics"
	"mlfq/internal/sched"
	"mlfq/internal/trace"
)

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		csvPath     string
		metricsAddr string
		quiet       bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workload from a config file and print the trace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := kernel.Load(configPath)
			if err != nil {
				return err
			}

			// the config file sets logging unless a flag overrides it
			log := logger
			if !flagDebug && !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
				log = newLogger(cmd, cfg.LogLevel, cfg.LogFormat)
			}

			out := cmd.OutOrStdout()
			reg := prometheus.NewRegistry()
			observers := sched.Observers{
				metrics.New(reg, cfg.Bands),
				trace.Logger(log.With("component", "trace")),
			}
			if !quiet {
				console := trace.NewConsole(out)
				console.Verbose = verbose
				observers = append(observers, console)
			}
			if csvPath != "" {
				rec, err := trace.CreateCSV(csvPath)
				if err != nil {
					return err
				}
				defer rec.Close()
				observers = append(observers, rec)
			}

			if metricsAddr != "" {
				stop, err := serveMetrics(metricsAddr, reg, log)
				if err != nil {
					return err
				}
				defer stop()
			}

			k, err := kernel.New(cfg, kernel.WithLogger(log), kernel.WithObserver(observers))
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rep, runErr := k.Run(ctx)
			if !quiet {
				fmt.Fprintln(out)
				k.Scheduler().Print(out)
			}
			k.Scheduler().Close()
			data, err := rep.Marshal()
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			fmt.Fprintln(out, "---")
			fmt.Fprint(out, string(data))
			return runErr
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yml", "Path to the YAML config")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also record every event to this CSV file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the final report")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print idle, preempt and finish events")
	return cmd
}

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
