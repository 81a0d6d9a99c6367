package kube

import (
	"context"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
)

func testPodMetrics(name, namespace string, podLabels map[string]string, cpu, memory string) *metricsv1beta1.PodMetrics {
	return &metricsv1beta1.PodMetrics{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			Labels:    podLabels,
		},
		Timestamp: metav1.NewTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		Containers: []metricsv1beta1.ContainerMetrics{
			{
				Name: "app",
				Usage: corev1.ResourceList{
					corev1.ResourceCPU:    resource.MustParse(cpu),
					corev1.ResourceMemory: resource.MustParse(memory),
				},
			},
		},
	}
}

func TestListPodMetrics(t *testing.T) {
	appLabels := map[string]string{"app": "fastapi-app"}

	client := newTestClient(t, "default", appLabels,
		testPodMetrics("web-0", "default", appLabels, "12m", "15Mi"),
		testPodMetrics("other", "default", map[string]string{"app": "other"}, "1m", "1Mi"),
		testPodMetrics("elsewhere", "kube-system", appLabels, "1m", "1Mi"),
	)

	metrics, err := client.ListPodMetrics(context.Background())
	if err != nil {
		t.Fatalf("ListPodMetrics failed: %v", err)
	}

	if len(metrics) != 1 {
		t.Fatalf("Expected 1 pod metrics entry, got %d", len(metrics))
	}

	pm := metrics[0]
	if pm.Name != "web-0" {
		t.Errorf("Expected pod web-0, got %s", pm.Name)
	}
	if pm.Timestamp.IsZero() {
		t.Error("Expected a timestamp")
	}

	usage, ok := pm.Containers["app"]
	if !ok {
		t.Fatalf("Expected container 'app' in %v", pm.Containers)
	}
	if usage.CPU != "12m" {
		t.Errorf("Expected CPU '12m', got %q", usage.CPU)
	}
	if usage.Memory != "15Mi" {
		t.Errorf("Expected memory '15Mi', got %q", usage.Memory)
	}
}

func TestListPodMetricsMissingUsage(t *testing.T) {
	appLabels := map[string]string{"app": "fastapi-app"}
	pm := testPodMetrics("web-0", "default", appLabels, "12m", "15Mi")
	pm.Containers[0].Usage = corev1.ResourceList{}

	client := newTestClient(t, "default", appLabels, pm)

	metrics, err := client.ListPodMetrics(context.Background())
	if err != nil {
		t.Fatalf("ListPodMetrics failed: %v", err)
	}

	usage := metrics[0].Containers["app"]
	if usage.CPU != "0" || usage.Memory != "0" {
		t.Errorf("Expected zero quantities for missing usage, got %+v", usage)
	}
}

func TestListPodMetricsUnavailable(t *testing.T) {
	client := &Client{namespace: "default"}

	metrics, err := client.ListPodMetrics(context.Background())
	if err != nil {
		t.Fatalf("ListPodMetrics should not error when metrics API is unavailable: %v", err)
	}
	if metrics != nil {
		t.Errorf("Expected nil metrics, got %v", metrics)
	}
	if client.MetricsAvailable() {
		t.Error("MetricsAvailable should be false")
	}
}
