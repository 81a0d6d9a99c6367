package analysis

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// renderVerdict combines the CPU and memory statuses into one of the
// templated container verdicts.
func renderVerdict(c ContainerAnalysis) string {
	header := fmt.Sprintf("Pod %s, Container %s", c.Pod, c.Container)
	cpuStatus, memStatus := c.CPU.Status, c.Memory.Status

	switch {
	case cpuStatus == StatusOverflow && memStatus == StatusOverflow:
		return fmt.Sprintf(
			"⚠️ CRITICAL RESOURCE ALERT: %s\n\n"+
				"Both CPU and memory usage have exceeded high thresholds, indicating potential resource exhaustion.\n\n"+
				"%s\n\n%s\n\n"+
				"RECOMMENDATION: This container appears to be under significant load or experiencing a resource leak. "+
				"Consider immediate investigation of application behavior, possibly scaling horizontally, "+
				"and increasing resource limits if this usage pattern is expected.",
			header, c.CPU.Analysis, c.Memory.Analysis)
	case cpuStatus == StatusOverflow:
		return fmt.Sprintf(
			"⚠️ CPU USAGE ALERT: %s\n\n%s\n\n%s\n\n"+
				"RECOMMENDATION: Investigate application CPU usage patterns. If this is expected behavior during peak loads, "+
				"consider increasing CPU limits or implementing autoscaling. If unexpected, check for CPU-intensive operations "+
				"or infinite loops that might be consuming excessive resources.",
			header, c.CPU.Analysis, c.Memory.Analysis)
	case memStatus == StatusOverflow:
		return fmt.Sprintf(
			"⚠️ MEMORY USAGE ALERT: %s\n\n%s\n\n%s\n\n"+
				"RECOMMENDATION: Check for memory leaks or unexpected caching behavior. Consider using memory profiling tools "+
				"to identify memory usage patterns. If this is expected behavior for your workload, increase memory limits "+
				"to prevent potential OOM (Out of Memory) kills.",
			header, c.Memory.Analysis, c.CPU.Analysis)
	case cpuStatus == StatusUnderflow && memStatus == StatusUnderflow:
		return fmt.Sprintf(
			"ℹ️ RESOURCE UNDERUTILIZATION NOTICE: %s\n\n"+
				"Both CPU and memory usage are significantly below requested resources.\n\n"+
				"%s\n\n%s\n\n"+
				"RECOMMENDATION: The container is overprovisioned. Consider reducing CPU and memory requests "+
				"to improve cluster resource efficiency. For cost optimization, these resources could be better "+
				"allocated to other workloads.",
			header, c.CPU.Analysis, c.Memory.Analysis)
	case cpuStatus == StatusUnderflow:
		return fmt.Sprintf(
			"ℹ️ CPU UNDERUTILIZATION NOTICE: %s\n\n%s\n\n%s\n\n"+
				"RECOMMENDATION: The container has excess CPU capacity. Consider reducing CPU requests "+
				"to better match actual usage patterns and improve overall cluster CPU utilization.",
			header, c.CPU.Analysis, c.Memory.Analysis)
	case memStatus == StatusUnderflow:
		return fmt.Sprintf(
			"ℹ️ MEMORY UNDERUTILIZATION NOTICE: %s\n\n%s\n\n%s\n\n"+
				"RECOMMENDATION: The container has excess memory allocation. Consider reducing memory requests "+
				"to better align with actual usage patterns. This could improve cluster memory efficiency.",
			header, c.Memory.Analysis, c.CPU.Analysis)
	default:
		return fmt.Sprintf(
			"✅ HEALTHY RESOURCE UTILIZATION: %s\n\n"+
				"Both CPU and memory usage are within normal operational parameters.\n\n"+
				"%s\n\n%s\n\n"+
				"RECOMMENDATION: No action needed. Resource allocation appears to be appropriately sized "+
				"for the current workload.",
			header, c.CPU.Analysis, c.Memory.Analysis)
	}
}

var reportTemplate = template.Must(template.New("report").Parse(
	`=== RESOURCE ANALYSIS METADATA ===
Timestamp: {{.Timestamp}}
Pod: {{.Analysis.Pod}}
Container: {{.Analysis.Container}}
CPU Status: {{.Analysis.CPU.Status}}
CPU Usage: {{.Analysis.CPU.Usage}} nanocores
CPU Utilization: {{printf "%.1f" .Analysis.CPU.UtilizationPercent}}%
Memory Status: {{.Analysis.Memory.Status}}
Memory Usage: {{.Analysis.Memory.Usage}} bytes ({{.MemoryMiB}})
Memory Utilization: {{printf "%.1f" .Analysis.Memory.UtilizationPercent}}%

=== ANALYSIS ===

{{.Analysis.Report}}
`))

// RenderReportFile renders the analysis report file body: a metadata
// block followed by the container verdict.
func RenderReportFile(a ContainerAnalysis, now time.Time) (string, error) {
	var b strings.Builder
	data := struct {
		Timestamp string
		Analysis  ContainerAnalysis
		MemoryMiB string
	}{
		Timestamp: now.Format(time.RFC3339),
		Analysis:  a,
		MemoryMiB: FormatMebibytes(a.Memory.Usage),
	}
	if err := reportTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render analysis report: %w", err)
	}
	return b.String(), nil
}
