package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a store, persisted on its record.
// Only the reconciler moves a store between Provisioning, Installing and
// Ready; Failed is set solely by the provisioning saga's failure path.
type Status string

const (
	StatusProvisioning Status = "Provisioning"
	StatusInstalling   Status = "Installing"
	StatusReady        Status = "Ready"
	StatusFailed       Status = "Failed"
)

// Engine selects the packaged application variant installed for a store.
type Engine string

const (
	EngineWooCommerce Engine = "woocommerce"
	EngineMedusa      Engine = "medusa"
)

// ValidEngine reports whether e is a known engine selector.
func ValidEngine(e Engine) bool {
	switch e {
	case EngineWooCommerce, EngineMedusa:
		return true
	}
	return false
}

// Store represents one provisioned (or provisioning) instance. Namespace and
// URL are derived once at creation and never recomputed afterwards.
type Store struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Engine    Engine    `json:"engine"`
	Namespace string    `json:"namespace"`
	Status    Status    `json:"status"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

const maxStoreNameLen = 40

// DeriveNamespace maps a store name to its cluster isolation boundary:
// "store-" + lowercase(name) with every character outside [a-z0-9] removed.
// Idempotent under re-application.
func DeriveNamespace(name string) string {
	var b strings.Builder
	b.WriteString("store-")
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateName rejects names that are empty, too long, or that normalize to
// an empty namespace suffix. The namespace derivation silently drops invalid
// characters, so a name like "---" would otherwise collide on "store-".
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "name is required"}
	}
	if len(name) > maxStoreNameLen {
		return &ValidationError{Field: "name", Reason: fmt.Sprintf("name exceeds %d characters", maxStoreNameLen)}
	}
	if DeriveNamespace(name) == "store-" {
		return &ValidationError{Field: "name", Reason: "name must contain at least one alphanumeric character"}
	}
	return nil
}

// IngressHost derives the externally reachable hostname for a store.
// Production clusters publish under the configured ingress domain; local
// clusters use the .local convention.
func IngressHost(name, ingressDomain string, production bool) string {
	if production {
		return name + "." + ingressDomain
	}
	return name + ".local"
}

// StoreURL is the address handed back to callers at creation time.
func StoreURL(name, ingressDomain string, production bool) string {
	return "http://" + IngressHost(name, ingressDomain, production)
}
