package kube

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PodInfo is the subset of pod state the monitor cares about.
type PodInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Namespace  string   `json:"namespace" yaml:"namespace"`
	Phase      string   `json:"phase" yaml:"phase"`
	IP         string   `json:"ip,omitempty" yaml:"ip,omitempty"`
	Node       string   `json:"node,omitempty" yaml:"node,omitempty"`
	StartTime  string   `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	Containers []string `json:"containers" yaml:"containers"`
}

// ListPods returns the pods in the configured namespace matching the
// configured labels.
func (c *Client) ListPods(ctx context.Context) ([]PodInfo, error) {
	pods, err := c.clientset.CoreV1().Pods(c.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: c.selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	infos := make([]PodInfo, 0, len(pods.Items))
	for _, pod := range pods.Items {
		infos = append(infos, toPodInfo(&pod))
	}
	return infos, nil
}

func toPodInfo(pod *corev1.Pod) PodInfo {
	info := PodInfo{
		Name:      pod.Name,
		Namespace: pod.Namespace,
		Phase:     string(pod.Status.Phase),
		IP:        pod.Status.PodIP,
		Node:      pod.Spec.NodeName,
	}
	if pod.Status.StartTime != nil {
		info.StartTime = pod.Status.StartTime.Format(time.RFC3339)
	}
	for _, container := range pod.Spec.Containers {
		info.Containers = append(info.Containers, container.Name)
	}
	return info
}

// GetPodLogs returns the tail of a container's log as a string.
func (c *Client) GetPodLogs(ctx context.Context, podName, container string, tailLines int64) (string, error) {
	opts := &corev1.PodLogOptions{
		TailLines: &tailLines,
	}
	if container != "" {
		opts.Container = container
	}

	req := c.clientset.CoreV1().Pods(c.namespace).GetLogs(podName, opts)
	stream, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open log stream for pod %s: %w", podName, err)
	}
	defer stream.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, stream); err != nil {
		return "", fmt.Errorf("failed to read log stream for pod %s: %w", podName, err)
	}

	return buf.String(), nil
}
