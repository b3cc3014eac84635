package stylestructure

import (
	"github.com/deerking0923/prj-sketch-backend/internal/backend/pixel"
)

// mockProcessor is a simple Processor for testing
type mockProcessor struct {
	name        string
	params      []ParameterDescriptor
	processFunc func(*pixel.Buffer, Values) (*pixel.Buffer, error)
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Description() string {
	return "mock " + m.name
}

func (m *mockProcessor) Parameters() []ParameterDescriptor {
	return m.params
}

func (m *mockProcessor) Process(src *pixel.Buffer, params Values) (*pixel.Buffer, error) {
	if m.processFunc != nil {
		return m.processFunc(src, params)
	}
	return src.Clone(), nil
}

// newMockProcessor creates a pass-through processor with a level and a size parameter
func newMockProcessor(name string) *mockProcessor {
	return &mockProcessor{
		name: name,
		params: []ParameterDescriptor{
			IntParam("levels", 8, 3, 20, 1, "levels"),
			IntParam("size", 21, 5, 51, 2, "size").OddOnly(),
			FloatParam("scale", 256, 100, 400, 10, "scale"),
			BoolParam("with_edges", true, "edges"),
		},
	}
}
