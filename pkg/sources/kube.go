package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"
)

// defaultQueryTimeout bounds every outbound orchestrator call.
const defaultQueryTimeout = 10 * time.Second

// KubeSource queries pod state through the Kubernetes API and the metrics API.
type KubeSource struct {
	clientset     kubernetes.Interface
	metricsClient metricsv.Interface
	namespace     string
	timeout       time.Duration
}

// NewKubeSource builds the clients from the given kubeconfig, preferring
// in-cluster config when available. Failure to build a client configuration
// at all is a fatal setup error; the cluster being unreachable later is not.
func NewKubeSource(kubeconfig, namespace string) (*KubeSource, error) {
	config, err := rest.InClusterConfig()
	if err != nil {
		if kubeconfig == "" {
			kubeconfig = filepath.Join(os.Getenv("HOME"), ".kube", "config")
		}
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
		}
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	metricsClient, err := metricsv.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &KubeSource{
		clientset:     clientset,
		metricsClient: metricsClient,
		namespace:     namespace,
		timeout:       defaultQueryTimeout,
	}, nil
}

// PodCounts lists pods and tallies them by phase. Succeeded pods count as
// completed; everything outside running/completed/pending is left to the
// caller's remainder derivation.
func (k *KubeSource) PodCounts(ctx context.Context) (PodCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	pods, err := k.clientset.CoreV1().Pods(k.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return PodCounts{}, fmt.Errorf("failed to list pods: %w", err)
	}

	counts := PodCounts{Total: len(pods.Items)}
	for _, pod := range pods.Items {
		switch pod.Status.Phase {
		case corev1.PodRunning:
			counts.Running++
		case corev1.PodSucceeded:
			counts.Completed++
		case corev1.PodPending:
			counts.Pending++
		}
	}
	return counts, nil
}

// TopConsumers asks the metrics API for the pods with the highest CPU and
// memory usage, summed across their containers.
func (k *KubeSource) TopConsumers(ctx context.Context) (TopPods, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	metrics, err := k.metricsClient.MetricsV1beta1().PodMetricses(k.namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return TopPods{}, fmt.Errorf("failed to query metrics API: %w", err)
	}
	if len(metrics.Items) == 0 {
		return TopPods{}, fmt.Errorf("metrics API returned no pods")
	}

	var top TopPods
	var maxCPU, maxMem int64 = -1, -1
	for _, m := range metrics.Items {
		var cpuMillis, memoryMB int64
		for _, container := range m.Containers {
			cpuMillis += container.Usage.Cpu().MilliValue()
			memoryMB += container.Usage.Memory().Value() / (1024 * 1024)
		}

		if cpuMillis > maxCPU {
			maxCPU = cpuMillis
			top.CPU = m.Name
		}
		if memoryMB > maxMem {
			maxMem = memoryMB
			top.Memory = m.Name
		}
	}
	return top, nil
}
