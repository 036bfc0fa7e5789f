// Package compliance evaluates execution contexts against regulatory
// standards. A standard is a required-key predicate; validation is pure and
// leaves persistence to the caller.
package compliance

import (
	"strings"

	"github.com/stagegate-io/stagegate/internal/core/domain"
)

// Built-in standard names.
const (
	StandardSOX    = "SOX"
	StandardGDPR   = "GDPR"
	StandardHIPAA  = "HIPAA"
	StandardPCIDSS = "PCI_DSS"
)

// Standard is a named regulatory rule set. Every required key must be present
// with a non-empty value in the execution context for the standard to pass.
type Standard struct {
	Name         string
	RequiredKeys []string
}

// Registry holds the known standards. NewRegistry starts with the built-ins;
// deployments can register their own predicates on top.
type Registry struct {
	byName map[string]Standard
}

// NewRegistry returns a registry preloaded with the built-in standards.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Standard)}
	for _, std := range builtins() {
		r.byName[std.Name] = std
	}
	return r
}

func builtins() []Standard {
	return []Standard{
		{Name: StandardSOX, RequiredKeys: []string{"data_classification", "access_controls", "audit_trail"}},
		{Name: StandardGDPR, RequiredKeys: []string{"consent_status", "data_purpose", "retention_period"}},
		{Name: StandardHIPAA, RequiredKeys: []string{"phi_classification", "encryption_status", "access_controls"}},
		{Name: StandardPCIDSS, RequiredKeys: []string{"cardholder_data_scope", "encryption_status", "access_controls"}},
	}
}

// Register adds or replaces a standard.
func (r *Registry) Register(std Standard) error {
	if std.Name == "" {
		return domain.NewConfigurationError("compliance.standards", "standard name cannot be empty")
	}
	if len(std.RequiredKeys) == 0 {
		return domain.NewConfigurationError("compliance.standards", "standard %s declares no required keys", std.Name)
	}
	r.byName[std.Name] = std
	return nil
}

// Resolve maps configured standard names to their predicates, preserving the
// configuration order. Unknown names fail fast.
func (r *Registry) Resolve(names []string) ([]Standard, error) {
	stds := make([]Standard, 0, len(names))
	for _, name := range names {
		std, ok := r.byName[name]
		if !ok {
			return nil, domain.NewConfigurationError("compliance.standards", "unknown standard %q", name)
		}
		stds = append(stds, std)
	}
	return stds, nil
}

// ForLevel selects the standards a run checks. Level "all" keeps the whole
// configured set; a single standard name (case-insensitive, e.g. "gdpr")
// narrows to that standard, which must be among the configured names. The
// error is a ConfigurationError and is raised before the run starts.
func (r *Registry) ForLevel(level string, configured []string) ([]Standard, error) {
	if level == "" || strings.EqualFold(level, "all") {
		return r.Resolve(configured)
	}
	want := strings.ToUpper(level)
	for _, name := range configured {
		if name == want {
			return r.Resolve([]string{name})
		}
	}
	return nil, domain.NewConfigurationError("compliance_level", "level %q does not match a configured standard", level)
}
