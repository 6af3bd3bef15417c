package permission

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrRegistryFrozen = errors.New("registry frozen")
	ErrEmptyRole      = errors.New("role name cannot be empty")
	ErrDuplicateRole  = errors.New("role already registered")
	ErrRoleLimit      = errors.New("role limit exceeded")
	ErrUnknownRole    = errors.New("role not registered")
)

// Registry maps role names to bit positions within a Mask64.
type Registry struct {
	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName map[int]string
	frozen    bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nameToBit: make(map[string]int),
		bitToName: make(map[int]string),
	}
}

// DefaultRegistry returns a frozen registry holding the portal roles.
// CHECKER is not registered: it only exists as an alias.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, name := range []string{RoleSuperUser, RoleMaker, RoleCheckerLevel1, RoleCheckerLevel2, RoleCheckerLevel3, RoleViewer} {
		_, _ = r.Register(name)
	}
	r.Freeze()
	return r
}

// Register assigns the next available bit to the named role. It must be
// called before Freeze.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, ErrRegistryFrozen
	}
	if name == "" {
		return -1, ErrEmptyRole
	}
	if _, exists := r.nameToBit[name]; exists {
		return -1, ErrDuplicateRole
	}

	nextBit := len(r.nameToBit)
	if nextBit >= 64 {
		return -1, ErrRoleLimit
	}

	r.nameToBit[name] = nextBit
	r.bitToName[nextBit] = name
	return nextBit, nil
}

// Bit returns the bit index for the named role, or false if not registered.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[name]
	return bit, ok
}

// Name returns the role name for the given bit index, or false if unassigned.
func (r *Registry) Name(bit int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.bitToName[bit]
	return name, ok
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered roles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nameToBit)
}

// Mask returns the bits of the registered roles in roles. Unknown roles are
// ignored: tokens may carry roles the portal does not gate on.
func (r *Registry) Mask(roles []string) Mask64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var m Mask64
	for _, name := range roles {
		if bit, ok := r.nameToBit[name]; ok {
			m.Set(bit)
		}
	}
	return m
}

// Names returns the role names set in m, in bit order.
func (r *Registry) Names(m Mask64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []string{}
	for bit := 0; bit < 64; bit++ {
		if !m.Has(bit) {
			continue
		}
		if name, ok := r.bitToName[bit]; ok {
			out = append(out, name)
		}
	}
	return out
}

/*
====================================
REQUIREMENTS
====================================
*/

// Requirement is a compiled any-of role check.
type Requirement struct {
	registry *Registry
	mask     Mask64
	invert   bool
}

// Compile expands required and resolves it against the registry. Every
// expanded role must be registered.
func (r *Registry) Compile(required ...string) (Requirement, error) {
	var m Mask64
	for _, name := range Expand(required...) {
		bit, ok := r.Bit(name)
		if !ok {
			return Requirement{}, fmt.Errorf("%w: %s", ErrUnknownRole, name)
		}
		m.Set(bit)
	}
	return Requirement{registry: r, mask: m}, nil
}

// MustCompile is Compile that panics on unknown roles. It is meant for
// package-level route tables.
func (r *Registry) MustCompile(required ...string) Requirement {
	req, err := r.Compile(required...)
	if err != nil {
		panic(err)
	}
	return req
}

// Inverted returns a requirement that passes when the user holds none of
// the roles.
func (q Requirement) Inverted() Requirement {
	q.invert = !q.invert
	return q
}

// Allows reports whether userRoles satisfy the requirement. A requirement
// with no roles never matches before inversion.
func (q Requirement) Allows(userRoles []string) bool {
	has := false
	if q.registry != nil && len(userRoles) > 0 {
		has = q.registry.Mask(userRoles).Intersects(q.mask)
	}
	return has != q.invert
}
