package cluster

import (
	"context"
	"errors"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

func TestCreateNamespace(t *testing.T) {
	gw := NewGateway(fake.NewSimpleClientset(), zap.NewNop())

	if err := gw.CreateNamespace(context.Background(), "store-myshop"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Second create hits the conflict path.
	err := gw.CreateNamespace(context.Background(), "store-myshop")
	if !errors.Is(err, domain.ErrNamespaceExists) {
		t.Fatalf("expected ErrNamespaceExists, got %v", err)
	}
}

func TestDeleteNamespace(t *testing.T) {
	gw := NewGateway(fake.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "store-myshop"}},
	), zap.NewNop())

	if err := gw.DeleteNamespace(context.Background(), "store-myshop"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err := gw.DeleteNamespace(context.Background(), "store-myshop")
	if !errors.Is(err, domain.ErrNamespaceNotFound) {
		t.Fatalf("expected ErrNamespaceNotFound, got %v", err)
	}
}

func TestListPods(t *testing.T) {
	gw := NewGateway(fake.NewSimpleClientset(
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "myshop-wordpress-0",
				Namespace: "store-myshop",
				Labels:    map[string]string{domain.RoleLabelKey: "web"},
			},
			Status: corev1.PodStatus{
				Phase: corev1.PodRunning,
				ContainerStatuses: []corev1.ContainerStatus{
					{Name: "wordpress", Ready: true},
				},
			},
		},
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "myshop-mysql-0",
				Namespace: "store-myshop",
			},
			Status: corev1.PodStatus{
				Phase: corev1.PodPending,
			},
		},
	), zap.NewNop())

	pods, err := gw.ListPods(context.Background(), "store-myshop")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pods) != 2 {
		t.Fatalf("pods = %d, want 2", len(pods))
	}

	byName := make(map[string]domain.Pod)
	for _, p := range pods {
		byName[p.Name] = p
	}

	web := byName["myshop-wordpress-0"]
	if web.Role != domain.RoleWeb || !web.Ready() {
		t.Errorf("web pod = %+v", web)
	}
	db := byName["myshop-mysql-0"]
	if db.Role != domain.RoleUnknown || db.Ready() {
		t.Errorf("db pod = %+v", db)
	}
}

func TestListPodsEmptyNamespace(t *testing.T) {
	gw := NewGateway(fake.NewSimpleClientset(), zap.NewNop())

	pods, err := gw.ListPods(context.Background(), "store-empty")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pods) != 0 {
		t.Errorf("pods = %v, want none", pods)
	}
}
