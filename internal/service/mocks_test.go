package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopkube/shopkube/internal/domain"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// mockStoreRepo implements domain.StoreRepository in memory.
type mockStoreRepo struct {
	mu        sync.Mutex
	stores    map[string]*domain.Store
	nextID    int64
	insertErr error
	updateErr error
	deleteErr error
	updates   int
}

func newMockStoreRepo() *mockStoreRepo {
	return &mockStoreRepo{stores: make(map[string]*domain.Store)}
}

func (m *mockStoreRepo) Insert(ctx context.Context, s *domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, exists := m.stores[s.Name]; exists {
		return domain.ErrDuplicateName
	}
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.stores[s.Name] = &cp
	return nil
}

func (m *mockStoreRepo) UpdateStatus(ctx context.Context, name string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	s, exists := m.stores[name]
	if !exists {
		return domain.ErrRecordNotFound
	}
	s.Status = status
	m.updates++
	return nil
}

func (m *mockStoreRepo) FindByNameOrNamespace(ctx context.Context, key string) (*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stores {
		if s.Name == key || s.Namespace == key {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (m *mockStoreRepo) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for name, s := range m.stores {
		if s.ID == id {
			delete(m.stores, name)
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (m *mockStoreRepo) ListAll(ctx context.Context) ([]domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Store
	for _, s := range m.stores {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockStoreRepo) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[domain.Status]int)
	for _, s := range m.stores {
		counts[s.Status]++
	}
	return counts, nil
}

func (m *mockStoreRepo) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = make(map[string]*domain.Store)
	m.nextID = 0
	return nil
}

// mockAuditLog records appended events for assertions.
type mockAuditLog struct {
	mu        sync.Mutex
	events    []domain.AuditEvent
	appendErr error
}

func newMockAuditLog() *mockAuditLog {
	return &mockAuditLog{}
}

func (m *mockAuditLog) Append(ctx context.Context, e *domain.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	e.ID = int64(len(m.events) + 1)
	m.events = append(m.events, *e)
	return nil
}

func (m *mockAuditLog) List(ctx context.Context, storeName string, limit int) ([]domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEvent
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if storeName == "" || m.events[i].StoreName == storeName {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *mockAuditLog) CountByAction(ctx context.Context) (map[domain.Action]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[domain.Action]int)
	for _, e := range m.events {
		counts[e.Action]++
	}
	return counts, nil
}

func (m *mockAuditLog) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	return nil
}

// actions returns the recorded action tags in order.
func (m *mockAuditLog) actions() []domain.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Action
	for _, e := range m.events {
		out = append(out, e.Action)
	}
	return out
}

func (m *mockAuditLog) countAction(a domain.Action) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Action == a {
			n++
		}
	}
	return n
}

// mockGateway implements domain.ClusterGateway with scriptable failures.
type mockGateway struct {
	mu          sync.Mutex
	created     []string
	deleted     []string
	createErr   error
	deleteErr   error
	listErr     error
	existing    map[string]bool
	missingOnNs map[string]bool
	pods        map[string][]domain.Pod
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		existing:    make(map[string]bool),
		missingOnNs: make(map[string]bool),
		pods:        make(map[string][]domain.Pod),
	}
}

func (m *mockGateway) CreateNamespace(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.existing[name] {
		return domain.ErrNamespaceExists
	}
	m.created = append(m.created, name)
	return nil
}

func (m *mockGateway) DeleteNamespace(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missingOnNs[name] {
		return domain.ErrNamespaceNotFound
	}
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockGateway) ListPods(ctx context.Context, namespace string) ([]domain.Pod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.pods[namespace], nil
}

// mockRunner implements domain.DeploymentRunner with a scriptable outcome.
type mockRunner struct {
	mu       sync.Mutex
	requests []domain.RunRequest
	runFn    func(req domain.RunRequest) (*domain.RunResult, error)
}

func newMockRunner() *mockRunner {
	return &mockRunner{}
}

func (m *mockRunner) Run(ctx context.Context, req domain.RunRequest) (*domain.RunResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.runFn
	m.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return &domain.RunResult{ExitCode: 0, Stdout: fmt.Sprintf("%s %s ok", req.Command, req.Release)}, nil
}

func (m *mockRunner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
