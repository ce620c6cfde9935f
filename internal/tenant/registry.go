package tenant

import (
	"encoding/json"
	"fmt"
)

// Registry is an ordered, read-only collection of tenant descriptors with
// a resolved default. It is built once at startup; iteration order is the
// configuration order.
type Registry struct {
	tenants     []Descriptor
	byName      map[string]int
	defaultName string
}

// BuildRegistry validates cfg and constructs the registry. In multi-tenant
// mode (PROMETHEUS_TENANTS set) every entry is parsed and validated;
// otherwise a single descriptor named "default" is synthesized from the
// single-tenant fields.
func BuildRegistry(cfg Config) (*Registry, error) {
	var tenants []Descriptor

	if cfg.TenantsJSON != "" {
		if err := json.Unmarshal([]byte(cfg.TenantsJSON), &tenants); err != nil {
			return nil, fmt.Errorf("invalid JSON in PROMETHEUS_TENANTS: %w", err)
		}
		if len(tenants) == 0 {
			return nil, ErrNoTenants
		}
	} else {
		tenants = []Descriptor{{
			Name:     DefaultTenantName,
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Token:    cfg.Token,
			OrgID:    cfg.OrgID,
		}}
	}

	r := &Registry{
		tenants: make([]Descriptor, 0, len(tenants)),
		byName:  make(map[string]int, len(tenants)),
	}
	for _, t := range tenants {
		if err := t.normalize(); err != nil {
			return nil, err
		}
		if _, exists := r.byName[t.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTenant, t.Name)
		}
		r.byName[t.Name] = len(r.tenants)
		r.tenants = append(r.tenants, t)
	}

	if cfg.DefaultTenant != "" {
		if _, ok := r.byName[cfg.DefaultTenant]; !ok {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownDefaultTenant, cfg.DefaultTenant, r.Names())
		}
		r.defaultName = cfg.DefaultTenant
	} else {
		r.defaultName = r.tenants[0].Name
	}

	return r, nil
}

// Resolve returns the descriptor for name, or the default tenant when name
// is empty. An unknown name is an error, never silently replaced by the
// default.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	if name == "" {
		name = r.defaultName
	}
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownTenant, name, r.Names())
	}
	return r.tenants[i], nil
}

// All returns a copy of the descriptors in configuration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.tenants))
	copy(out, r.tenants)
	return out
}

// Names returns the tenant names in configuration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tenants))
	for i, t := range r.tenants {
		names[i] = t.Name
	}
	return names
}

// DefaultName returns the resolved default tenant name.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Len returns the number of configured tenants.
func (r *Registry) Len() int {
	return len(r.tenants)
}
