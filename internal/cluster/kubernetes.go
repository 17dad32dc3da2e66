package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

// Gateway implements domain.ClusterGateway against the Kubernetes API.
// The clientset is initialized once at startup and is safe for concurrent
// use by every saga and reconciler invocation.
type Gateway struct {
	client kubernetes.Interface
	logger *zap.Logger
}

func NewGateway(client kubernetes.Interface, logger *zap.Logger) *Gateway {
	return &Gateway{client: client, logger: logger}
}

// NewGatewayFromKubeconfig builds a gateway from a kubeconfig file. Outside
// production the given context is pinned so a stray current-context cannot
// point the orchestrator at the wrong cluster.
func NewGatewayFromKubeconfig(kubeconfigPath, kubeContext string, production bool, logger *zap.Logger) (*Gateway, error) {
	overrides := &clientcmd.ConfigOverrides{}
	if !production && kubeContext != "" {
		overrides.CurrentContext = kubeContext
	}

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath},
		overrides,
	).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig %s: %w", kubeconfigPath, err)
	}

	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build kubernetes client: %w", err)
	}

	logger.Info("kubernetes client initialized",
		zap.String("kubeconfig", kubeconfigPath),
		zap.String("host", cfg.Host))

	return NewGateway(client, logger), nil
}

// CreateNamespace creates the namespace, returning domain.ErrNamespaceExists
// on a conflict so callers can treat it as already satisfied.
func (g *Gateway) CreateNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	_, err := g.client.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return domain.ErrNamespaceExists
		}
		return fmt.Errorf("create namespace %s: %w", name, err)
	}
	return nil
}

// DeleteNamespace requests namespace deletion, returning
// domain.ErrNamespaceNotFound when the namespace is already gone.
func (g *Gateway) DeleteNamespace(ctx context.Context, name string) error {
	err := g.client.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return domain.ErrNamespaceNotFound
		}
		return fmt.Errorf("delete namespace %s: %w", name, err)
	}
	return nil
}

// ListPods returns the reconciler's view of every pod in the namespace,
// carrying the role label and per-container readiness.
func (g *Gateway) ListPods(ctx context.Context, namespace string) ([]domain.Pod, error) {
	list, err := g.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list pods in %s: %w", namespace, err)
	}

	pods := make([]domain.Pod, 0, len(list.Items))
	for _, p := range list.Items {
		pod := domain.Pod{
			Name:  p.Name,
			Phase: string(p.Status.Phase),
			Role:  domain.Role(p.Labels[domain.RoleLabelKey]),
		}
		for _, cs := range p.Status.ContainerStatuses {
			pod.Containers = append(pod.Containers, domain.ContainerState{
				Name:  cs.Name,
				Ready: cs.Ready,
			})
		}
		pods = append(pods, pod)
	}
	return pods, nil
}
