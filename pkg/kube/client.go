// Package kube provides read access to the pods under watch: listing,
// log retrieval and usage metrics from the metrics.k8s.io API.
package kube

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/apimon/apimon/pkg/config"
)

// Client wraps the typed Kubernetes clientset and the metrics clientset,
// scoped to one namespace and label set.
type Client struct {
	namespace string
	selector  string

	clientset kubernetes.Interface
	// metrics is nil when the metrics API client could not be built;
	// callers degrade to empty metrics in that case.
	metrics metricsclient.Interface
}

// NewClient builds a client from the in-cluster service account when
// running inside Kubernetes, falling back to the local kubeconfig
// (KUBECONFIG or ~/.kube/config). The metrics clientset is optional:
// a failure to build it is logged, not returned.
func NewClient(cfg config.KubernetesConfig) (*Client, error) {
	restConfig, err := buildRestConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build Kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	client := &Client{
		namespace: cfg.Namespace,
		selector:  labels.Set(cfg.Labels).AsSelector().String(),
		clientset: clientset,
	}

	metrics, err := metricsclient.NewForConfig(restConfig)
	if err != nil {
		log.Warn().Err(err).Msg("Metrics API client unavailable, resource analysis will be skipped")
	} else {
		client.metrics = metrics
	}

	return client, nil
}

func buildRestConfig() (*rest.Config, error) {
	if restConfig, err := rest.InClusterConfig(); err == nil {
		return restConfig, nil
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
}

// Namespace returns the namespace this client is scoped to.
func (c *Client) Namespace() string {
	return c.namespace
}
