package stylestructure

import (
	"fmt"
	"strings"
)

// UnknownStyleError is returned when a style name is not registered.
type UnknownStyleError struct {
	Style     string
	Available []string
}

func (e *UnknownStyleError) Error() string {
	return fmt.Sprintf("unknown style: %q; available styles: %s", e.Style, strings.Join(e.Available, ", "))
}

// StyleRegistry maps style names to processors in registration order. It
// is filled during package initialization and only read afterwards, so it
// needs no locking.
type StyleRegistry struct {
	processors map[string]Processor
	names      []string
}

// NewStyleRegistry creates an empty registry.
func NewStyleRegistry() *StyleRegistry {
	return &StyleRegistry{
		processors: make(map[string]Processor),
	}
}

// Register adds a processor under its own name.
func (r *StyleRegistry) Register(p Processor) error {
	if p == nil {
		return fmt.Errorf("processor cannot be nil")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("style name cannot be empty")
	}
	if _, exists := r.processors[name]; exists {
		return fmt.Errorf("style %s is already registered", name)
	}

	seen := make(map[string]bool)
	for _, d := range p.Parameters() {
		if seen[d.Name] {
			return fmt.Errorf("style %s declares parameter %s twice", name, d.Name)
		}
		seen[d.Name] = true
		if err := d.check(); err != nil {
			return fmt.Errorf("style %s: %w", name, err)
		}
	}

	r.processors[name] = p
	r.names = append(r.names, name)
	return nil
}

// Resolve returns the processor registered under name.
func (r *StyleRegistry) Resolve(name string) (Processor, error) {
	p, exists := r.processors[name]
	if !exists {
		return nil, &UnknownStyleError{Style: name, Available: r.GetRegisteredNames()}
	}
	return p, nil
}

// Describe returns the descriptor of the named style.
func (r *StyleRegistry) Describe(name string) (StyleDescriptor, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return StyleDescriptor{}, err
	}
	return Describe(p), nil
}

// ListStyles returns every style descriptor in registration order.
func (r *StyleRegistry) ListStyles() []StyleDescriptor {
	styles := make([]StyleDescriptor, 0, len(r.names))
	for _, name := range r.names {
		styles = append(styles, Describe(r.processors[name]))
	}
	return styles
}

// IsRegistered checks if a style with the given name is registered
func (r *StyleRegistry) IsRegistered(name string) bool {
	_, exists := r.processors[name]
	return exists
}

// GetRegisteredNames returns the registered style names in registration order
func (r *StyleRegistry) GetRegisteredNames() []string {
	return append([]string(nil), r.names...)
}

// WithDefaults returns a new registry in which the named styles advertise
// and apply different default values. Overrides are validated against the
// original descriptors; the receiver is left untouched.
func (r *StyleRegistry) WithDefaults(overrides map[string]map[string]any) (*StyleRegistry, error) {
	out := NewStyleRegistry()
	for _, name := range r.names {
		p := r.processors[name]
		if params, ok := overrides[name]; ok && len(params) > 0 {
			wrapped, err := newDefaultsOverride(p, params)
			if err != nil {
				return nil, err
			}
			p = wrapped
		}
		if err := out.Register(p); err != nil {
			return nil, err
		}
	}
	for name := range overrides {
		if !r.IsRegistered(name) {
			return nil, &UnknownStyleError{Style: name, Available: r.GetRegisteredNames()}
		}
	}
	return out, nil
}

// defaultsOverride wraps a processor and replaces the defaults it declares.
type defaultsOverride struct {
	Processor
	params []ParameterDescriptor
}

func newDefaultsOverride(p Processor, overrides map[string]any) (Processor, error) {
	values, err := Validate(p.Parameters(), overrides)
	if err != nil {
		return nil, fmt.Errorf("style %s: %w", p.Name(), err)
	}
	params := append([]ParameterDescriptor(nil), p.Parameters()...)
	for i := range params {
		params[i].Default = values[params[i].Name]
	}
	return &defaultsOverride{Processor: p, params: params}, nil
}

func (o *defaultsOverride) Parameters() []ParameterDescriptor {
	return o.params
}

// IsNondeterministic forwards to the wrapped processor.
func (o *defaultsOverride) IsNondeterministic(params Values) bool {
	if n, ok := o.Processor.(Nondeterministic); ok {
		return n.IsNondeterministic(params)
	}
	return false
}

// DefaultRegistry holds every built-in style. Styles register themselves
// from init functions.
var DefaultRegistry = NewStyleRegistry()
