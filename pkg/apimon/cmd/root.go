package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/apimon/apimon/pkg/analysis"
	"github.com/apimon/apimon/pkg/apicheck"
	"github.com/apimon/apimon/pkg/config"
	"github.com/apimon/apimon/pkg/kube"
	"github.com/apimon/apimon/pkg/logging"
	"github.com/apimon/apimon/pkg/monitor"
	"github.com/apimon/apimon/pkg/output"
	"github.com/apimon/apimon/pkg/report"
	"github.com/apimon/apimon/pkg/statusserver"
	"github.com/apimon/apimon/pkg/version"
)

// IOStreams represents standard input, output, and error streams
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type rootFlags struct {
	configPath string
	logLevel   string
	interval   int
	baseURL    string
	namespace  string
	format     string
	statusPort int
	once       bool
}

// NewMonitor creates the root cobra command for apimon.
func NewMonitor(streams IOStreams) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "apimon",
		Short: "apimon - HTTP API and Kubernetes pod monitor",
		Long: `apimon polls HTTP API endpoints and a Kubernetes cluster on a fixed
interval, classifies container CPU and memory usage against static
thresholds, and emits human-readable status reports plus log files.

When an endpoint is down, the pods behind the API are inspected and
their log tails are saved for later analysis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runMonitor(cmd.Context(), cfg, streams, flags.once)
		},
	}

	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)

	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to the YAML configuration file (defaults to $CONFIG_PATH)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().IntVar(&flags.interval, "interval", 0, "Monitoring interval in seconds")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "Base URL of the API under watch")
	cmd.Flags().StringVar(&flags.namespace, "namespace", "", "Kubernetes namespace of the pods under watch")
	cmd.Flags().StringVar(&flags.format, "output", "", "Output format for the cycle summary (text, yaml, json)")
	cmd.Flags().IntVar(&flags.statusPort, "status-port", 0, "Port for the status HTTP server (0 to disable)")
	cmd.Flags().BoolVar(&flags.once, "once", false, "Run a single monitoring cycle and exit")

	cmd.AddCommand(newVersionCommand(streams))

	return cmd
}

// loadConfig loads the configuration file and applies any flags the
// user set explicitly on top of it.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.StaticConfig, error) {
	configPath := flags.configPath
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if cmd.Flags().Changed("interval") {
		cfg.Monitoring.Interval = flags.interval
	}
	if cmd.Flags().Changed("base-url") {
		cfg.API.BaseURL = flags.baseURL
	}
	if cmd.Flags().Changed("namespace") {
		cfg.Kubernetes.Namespace = flags.namespace
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Format = flags.format
	}
	if cmd.Flags().Changed("status-port") {
		cfg.StatusPort = flags.statusPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func runMonitor(ctx context.Context, cfg *config.StaticConfig, streams IOStreams, once bool) error {
	if err := logging.Setup(cfg.Logging); err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Analysis)
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}

	kubeClient, err := kube.NewClient(cfg.Kubernetes)
	if err != nil {
		return fmt.Errorf("failed to build Kubernetes client: %w", err)
	}

	checker := apicheck.NewChecker(cfg.API, cfg.Monitoring)
	writer := report.NewWriter(cfg.Output.Dir)
	runner := monitor.NewRunner(
		checker,
		kubeClient,
		analyzer,
		writer,
		time.Duration(cfg.Monitoring.Interval)*time.Second,
		cfg.Monitoring.TailLines,
	)

	log.Info().Msg("=== API Monitoring System Started ===")
	log.Info().Str("base_url", cfg.API.BaseURL).Msg("Monitoring API")
	log.Info().Str("namespace", cfg.Kubernetes.Namespace).Msg("Kubernetes namespace")
	log.Info().Int("interval_seconds", cfg.Monitoring.Interval).Msg("Monitoring interval")

	if once {
		result := runner.RunCycle(ctx)
		summary, err := renderSummary(result, cfg.Output.Format)
		if err != nil {
			return err
		}
		fmt.Fprintln(streams.Out, summary)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	waitStatusServer := func() {}
	if cfg.StatusPort > 0 {
		waitStatusServer = startStatusServer(ctx, runner, cfg.StatusPort)
	}

	err = runner.Run(ctx)

	// Let the status server finish its graceful shutdown before exiting.
	cancel()
	waitStatusServer()

	log.Info().Msg("=== API Monitoring System Stopped ===")
	return err
}

// startStatusServer launches the status server and returns a function
// that blocks until it has shut down.
func startStatusServer(ctx context.Context, source statusserver.StatusSource, port int) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := statusserver.Serve(ctx, source, port); err != nil {
			log.Error().Err(err).Msg("Status server failed")
		}
	}()
	return func() { <-done }
}

// renderSummary renders a cycle result in the configured output format.
func renderSummary(result *monitor.CycleResult, format string) (string, error) {
	formatter := output.NewFormatter()
	if !strings.EqualFold(format, "text") {
		return formatter.Format(result, format)
	}

	rows := make([]map[string]string, 0, len(result.Endpoints))
	for _, ep := range result.Endpoints {
		row := map[string]string{
			"URL":    ep.URL,
			"METHOD": ep.Method,
			"RESULT": "DOWN",
			"STATUS": "-",
			"TIME":   "-",
			"ERROR":  ep.Error,
		}
		if ep.StatusCode != 0 {
			row["STATUS"] = strconv.Itoa(ep.StatusCode)
			row["TIME"] = fmt.Sprintf("%.1fms", ep.ResponseTimeMs)
		}
		if ep.Success {
			row["RESULT"] = "UP"
		}
		rows = append(rows, row)
	}

	summary := formatter.FormatTableWithHeaders(rows, []string{"URL", "METHOD", "RESULT", "STATUS", "TIME", "ERROR"})
	summary += fmt.Sprintf("\n%d/%d endpoints up, %d containers analyzed, %d reports written",
		result.EndpointsUp, len(result.Endpoints), len(result.Analyses), len(result.ReportFiles))
	return summary, nil
}

// newVersionCommand creates the version command
func newVersionCommand(streams IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(streams.Out, "%s\n", version.GetVersionInfo())
		},
	}

	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.ErrOut)

	return cmd
}
