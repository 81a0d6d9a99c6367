package kube

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ContainerUsage holds one container's usage quantities as reported by
// the metrics API, e.g. CPU "1500000n" and memory "31712Ki".
type ContainerUsage struct {
	CPU    string `json:"cpu" yaml:"cpu"`
	Memory string `json:"memory" yaml:"memory"`
}

// PodMetrics holds per-container usage readings for one pod.
type PodMetrics struct {
	Name       string                    `json:"name" yaml:"name"`
	Timestamp  time.Time                 `json:"timestamp" yaml:"timestamp"`
	Containers map[string]ContainerUsage `json:"containers" yaml:"containers"`
}

// MetricsAvailable reports whether the metrics API client was built.
func (c *Client) MetricsAvailable() bool {
	return c.metrics != nil
}

// ListPodMetrics returns usage readings for the pods under watch. When
// the metrics API is unavailable it returns an empty slice, not an
// error, so a cluster without metrics-server degrades gracefully.
func (c *Client) ListPodMetrics(ctx context.Context) ([]PodMetrics, error) {
	if c.metrics == nil {
		return nil, nil
	}

	list, err := c.metrics.MetricsV1beta1().PodMetricses(c.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: c.selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pod metrics: %w", err)
	}

	result := make([]PodMetrics, 0, len(list.Items))
	for _, item := range list.Items {
		pm := PodMetrics{
			Name:       item.Name,
			Timestamp:  item.Timestamp.Time,
			Containers: make(map[string]ContainerUsage, len(item.Containers)),
		}
		for _, container := range item.Containers {
			pm.Containers[container.Name] = ContainerUsage{
				CPU:    quantityString(container.Usage, corev1.ResourceCPU),
				Memory: quantityString(container.Usage, corev1.ResourceMemory),
			}
		}
		result = append(result, pm)
	}

	return result, nil
}

func quantityString(usage corev1.ResourceList, name corev1.ResourceName) string {
	q, ok := usage[name]
	if !ok {
		return "0"
	}
	return q.String()
}
