// Package monitor drives the polling loop: endpoint checks, pod
// diagnostics for failing endpoints, and resource analysis for every
// pod under watch.
package monitor

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/apimon/apimon/pkg/analysis"
	"github.com/apimon/apimon/pkg/apicheck"
	"github.com/apimon/apimon/pkg/kube"
	"github.com/apimon/apimon/pkg/report"
)

// EndpointChecker probes the configured API endpoints.
type EndpointChecker interface {
	CheckAll(ctx context.Context) []apicheck.Result
}

// Cluster is the slice of pkg/kube the monitor needs.
type Cluster interface {
	ListPods(ctx context.Context) ([]kube.PodInfo, error)
	GetPodLogs(ctx context.Context, podName, container string, tailLines int64) (string, error)
	ListPodMetrics(ctx context.Context) ([]kube.PodMetrics, error)
}

// CycleResult summarizes one monitoring cycle.
type CycleResult struct {
	Timestamp   time.Time                    `json:"timestamp" yaml:"timestamp"`
	Endpoints   []apicheck.Result            `json:"endpoints" yaml:"endpoints"`
	EndpointsUp int                          `json:"endpointsUp" yaml:"endpointsUp"`
	Pods        []kube.PodInfo               `json:"pods,omitempty" yaml:"pods,omitempty"`
	Analyses    []analysis.ContainerAnalysis `json:"analyses,omitempty" yaml:"analyses,omitempty"`
	LogFiles    []string                     `json:"logFiles,omitempty" yaml:"logFiles,omitempty"`
	ReportFiles []string                     `json:"reportFiles,omitempty" yaml:"reportFiles,omitempty"`
}

// Runner executes monitoring cycles on a fixed interval.
type Runner struct {
	checker  EndpointChecker
	cluster  Cluster
	analyzer *analysis.Analyzer
	writer   *report.Writer

	interval  time.Duration
	tailLines int64

	mu     sync.RWMutex
	latest *CycleResult
}

// NewRunner assembles a runner from its collaborators.
func NewRunner(checker EndpointChecker, cluster Cluster, analyzer *analysis.Analyzer, writer *report.Writer, interval time.Duration, tailLines int64) *Runner {
	return &Runner{
		checker:   checker,
		cluster:   cluster,
		analyzer:  analyzer,
		writer:    writer,
		interval:  interval,
		tailLines: tailLines,
	}
}

// Latest returns the most recent cycle result, or nil before the first
// cycle completes.
func (r *Runner) Latest() *CycleResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

func (r *Runner) setLatest(result *CycleResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = result
}

// RunCycle performs one complete monitoring cycle. Kubernetes failures
// inside the cycle are logged and skipped, never returned: the loop must
// always reach the next tick.
func (r *Runner) RunCycle(ctx context.Context) *CycleResult {
	result := &CycleResult{Timestamp: time.Now()}
	log.Info().Time("started_at", result.Timestamp).Msg("Starting monitoring cycle")

	result.Endpoints = r.checker.CheckAll(ctx)
	for _, ep := range result.Endpoints {
		if ep.Success {
			result.EndpointsUp++
		}
	}
	log.Info().
		Int("up", result.EndpointsUp).
		Int("total", len(result.Endpoints)).
		Msg("API monitoring summary")

	if result.EndpointsUp < len(result.Endpoints) {
		r.collectFailureDiagnostics(ctx, result)
	}

	r.analyzeResources(ctx, result)

	r.setLatest(result)
	log.Info().Time("completed_at", time.Now()).Msg("Completed monitoring cycle")
	return result
}

// collectFailureDiagnostics inspects the pods behind the API when at
// least one endpoint is down: non-running pods are flagged, and log
// tails of running pods are persisted for later inspection.
func (r *Runner) collectFailureDiagnostics(ctx context.Context, result *CycleResult) {
	for _, ep := range result.Endpoints {
		if !ep.Success {
			log.Warn().Str("url", ep.URL).Str("error", ep.Error).Msg("Failed endpoint")
		}
	}

	pods, err := r.cluster.ListPods(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pods")
		return
	}
	result.Pods = pods
	log.Info().Int("count", len(pods)).Msg("Found pods")

	metrics, err := r.cluster.ListPodMetrics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pod metrics")
	}
	usageByPod := make(map[string]map[string]kube.ContainerUsage, len(metrics))
	for _, pm := range metrics {
		usageByPod[pm.Name] = pm.Containers
	}

	for _, pod := range pods {
		if pod.Phase != "Running" {
			log.Warn().Str("pod", pod.Name).Str("phase", pod.Phase).Msg("Pod is not running")
			continue
		}

		for container, usage := range usageByPod[pod.Name] {
			log.Info().
				Str("pod", pod.Name).
				Str("container", container).
				Str("cpu", usage.CPU).
				Str("memory", usage.Memory).
				Msg("Container usage")
		}

		for _, container := range pod.Containers {
			logs, err := r.cluster.GetPodLogs(ctx, pod.Name, container, r.tailLines)
			if err != nil {
				log.Error().Err(err).Str("pod", pod.Name).Str("container", container).Msg("Failed to get pod logs")
				continue
			}

			path, err := r.writer.WritePodLogs(pod.Name, container, logs)
			if err != nil {
				log.Error().Err(err).Str("pod", pod.Name).Str("container", container).Msg("Failed to save pod logs")
				continue
			}

			result.LogFiles = append(result.LogFiles, path)
			log.Info().Str("pod", pod.Name).Str("container", container).Str("file", path).Msg("Saved pod logs")
		}
	}
}

// analyzeResources classifies usage for every container under watch and
// persists one report per container.
func (r *Runner) analyzeResources(ctx context.Context, result *CycleResult) {
	metrics, err := r.cluster.ListPodMetrics(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pod metrics")
		return
	}

	for _, pm := range metrics {
		for container, usage := range pm.Containers {
			log.Info().
				Str("pod", pm.Name).
				Str("container", container).
				Str("cpu", usage.CPU).
				Str("memory", usage.Memory).
				Msg("Resource metrics")

			containerAnalysis, err := r.analyzer.AnalyzeContainer(pm.Name, container, usage.CPU, usage.Memory)
			if err != nil {
				log.Error().Err(err).Str("pod", pm.Name).Str("container", container).Msg("Failed to analyze container")
				continue
			}
			result.Analyses = append(result.Analyses, containerAnalysis)

			log.Info().
				Str("pod", pm.Name).
				Str("container", container).
				Str("cpu_status", string(containerAnalysis.CPU.Status)).
				Str("memory_status", string(containerAnalysis.Memory.Status)).
				Msg(containerAnalysis.Report)

			body, err := analysis.RenderReportFile(containerAnalysis, time.Now())
			if err != nil {
				log.Error().Err(err).Str("pod", pm.Name).Str("container", container).Msg("Failed to render analysis report")
				continue
			}

			path, err := r.writer.WriteAnalysis(pm.Name, container, body)
			if err != nil {
				log.Error().Err(err).Str("pod", pm.Name).Str("container", container).Msg("Failed to save analysis report")
				continue
			}

			result.ReportFiles = append(result.ReportFiles, path)
			log.Info().Str("pod", pm.Name).Str("container", container).Str("file", path).Msg("Saved analysis report")
		}
	}
}

// Run executes the first cycle immediately, then repeats on the
// configured interval until the context is cancelled or a termination
// signal arrives.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	r.RunCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("Received signal, stopping monitor")
			return nil
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping monitor")
			return nil
		case <-ticker.C:
			r.RunCycle(ctx)
		}
	}
}
