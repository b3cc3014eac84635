package stylestructure

import (
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// Processor is a named image transform with a declared parameter schema.
// Process must treat src as read-only and return a new buffer of the same
// dimensions. Implementations hold no mutable state and may be shared
// between goroutines.
type Processor interface {
	Name() string
	Description() string
	Parameters() []ParameterDescriptor
	Process(src *pixel.Buffer, params Values) (*pixel.Buffer, error)
}

// Nondeterministic is implemented by processors whose output depends on
// random draws for some parameter values. Results for which it reports
// true must not be cached.
type Nondeterministic interface {
	IsNondeterministic(params Values) bool
}

// StyleDescriptor advertises a processor and its parameters.
type StyleDescriptor struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  []ParameterDescriptor `json:"parameters"`
}

// Describe builds the descriptor of a processor.
func Describe(p Processor) StyleDescriptor {
	return StyleDescriptor{
		Name:        p.Name(),
		Description: p.Description(),
		Parameters:  p.Parameters(),
	}
}
