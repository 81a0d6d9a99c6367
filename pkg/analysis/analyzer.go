// Package analysis classifies container CPU and memory usage against
// static thresholds and produces human-readable reports.
package analysis

import (
	"fmt"
	"strings"

	"github.com/apimon/apimon/pkg/config"
)

// Status classifies a resource reading against the configured thresholds.
type Status string

const (
	StatusOverflow  Status = "OVERFLOW"
	StatusUnderflow Status = "UNDERFLOW"
	StatusNormal    Status = "NORMAL"
)

// Thresholds holds parsed threshold values for one resource type, in the
// resource's base unit (nanocores for CPU, bytes for memory).
type Thresholds struct {
	High    int64
	Low     int64
	Request int64
	Limit   int64
}

// ResourceAnalysis is the classification of a single resource reading.
type ResourceAnalysis struct {
	// Usage in the resource's base unit.
	Usage int64 `json:"usage" yaml:"usage"`
	// Status is OVERFLOW, UNDERFLOW or NORMAL.
	Status Status `json:"status" yaml:"status"`
	// UtilizationPercent is usage relative to the configured request.
	UtilizationPercent float64 `json:"utilizationPercent" yaml:"utilizationPercent"`
	// Analysis is the per-resource explanation sentence.
	Analysis string `json:"analysis" yaml:"analysis"`
}

// ContainerAnalysis combines the CPU and memory classification for one
// container, with the rendered verdict.
type ContainerAnalysis struct {
	Pod       string           `json:"pod" yaml:"pod"`
	Container string           `json:"container" yaml:"container"`
	CPU       ResourceAnalysis `json:"cpu" yaml:"cpu"`
	Memory    ResourceAnalysis `json:"memory" yaml:"memory"`
	Report    string           `json:"report" yaml:"report"`
}

// Analyzer classifies container resource usage.
type Analyzer struct {
	cpu    Thresholds
	memory Thresholds
}

// NewAnalyzer parses the configured threshold quantities and returns an
// analyzer. Parsing or ordering problems are reported up front so a bad
// configuration fails at startup rather than mid-cycle.
func NewAnalyzer(cfg config.AnalysisConfig) (*Analyzer, error) {
	cpu, err := parseThresholds(cfg.CPU, ParseCPU)
	if err != nil {
		return nil, fmt.Errorf("cpu thresholds: %w", err)
	}
	memory, err := parseThresholds(cfg.Memory, ParseMemory)
	if err != nil {
		return nil, fmt.Errorf("memory thresholds: %w", err)
	}
	return &Analyzer{cpu: cpu, memory: memory}, nil
}

func parseThresholds(cfg config.ResourceThresholds, parse func(string) (int64, error)) (Thresholds, error) {
	var t Thresholds
	var err error

	if t.High, err = parse(cfg.High); err != nil {
		return t, err
	}
	if t.Low, err = parse(cfg.Low); err != nil {
		return t, err
	}
	if t.Request, err = parse(cfg.Request); err != nil {
		return t, err
	}
	if t.Limit, err = parse(cfg.Limit); err != nil {
		return t, err
	}

	if t.Low >= t.High {
		return t, fmt.Errorf("low threshold %s must be below high threshold %s", cfg.Low, cfg.High)
	}
	if t.Request <= 0 {
		return t, fmt.Errorf("request %s must be positive", cfg.Request)
	}

	return t, nil
}

// AnalyzeContainer classifies one container's usage quantities.
func (a *Analyzer) AnalyzeContainer(pod, container, cpuUsage, memoryUsage string) (ContainerAnalysis, error) {
	cpu, err := ParseCPU(cpuUsage)
	if err != nil {
		return ContainerAnalysis{}, err
	}
	memory, err := ParseMemory(memoryUsage)
	if err != nil {
		return ContainerAnalysis{}, err
	}

	result := ContainerAnalysis{
		Pod:       pod,
		Container: container,
		CPU:       classify(cpu, a.cpu, "CPU", FormatMillicores),
		Memory:    classify(memory, a.memory, "memory", FormatMebibytes),
	}
	result.Report = renderVerdict(result)
	return result, nil
}

// classify compares usage against the thresholds. The boundaries are
// inclusive: usage equal to the high threshold is an overflow and usage
// equal to the low threshold is an underflow.
func classify(usage int64, t Thresholds, resource string, format func(int64) string) ResourceAnalysis {
	var utilization float64
	if t.Request > 0 {
		utilization = float64(usage) / float64(t.Request) * 100
	}

	r := ResourceAnalysis{
		Usage:              usage,
		UtilizationPercent: utilization,
	}

	switch {
	case usage >= t.High:
		r.Status = StatusOverflow
		r.Analysis = fmt.Sprintf(
			"HIGH %s USAGE DETECTED: The container is using %.1f%% of its requested %s (%s). "+
				"This exceeds the high threshold of %s and may indicate a %s leak or inefficient "+
				"resource usage pattern. Consider investigating application behavior or increasing "+
				"the resource limits.",
			strings.ToUpper(resource), utilization, strings.ToLower(resource), format(usage), format(t.High), strings.ToLower(resource))
	case usage <= t.Low:
		r.Status = StatusUnderflow
		r.Analysis = fmt.Sprintf(
			"LOW %s USAGE DETECTED: The container is only using %.1f%% of its requested %s (%s). "+
				"This is below the low threshold of %s and may indicate over-provisioning. Consider "+
				"reducing resource requests to improve cluster utilization efficiency.",
			strings.ToUpper(resource), utilization, strings.ToLower(resource), format(usage), format(t.Low))
	default:
		r.Status = StatusNormal
		r.Analysis = fmt.Sprintf(
			"NORMAL %s USAGE: The container is using %.1f%% of its requested %s (%s), "+
				"which is within expected parameters.",
			strings.ToUpper(resource), utilization, strings.ToLower(resource), format(usage))
	}

	return r
}
