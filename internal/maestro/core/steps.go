package core

type Step struct {
	Name    string
	Execute func(ctx *MaestroContext) error
	// Compensate undoes Execute when a later step fails. Optional.
	Compensate func(ctx *MaestroContext) error
}

func NewStep(name string, execute func(ctx *MaestroContext) error) *Step {
	return &Step{
		Name:    name,
		Execute: execute,
	}
}

// WithCompensation sets the undo action and returns s.
func (s *Step) WithCompensation(compensate func(ctx *MaestroContext) error) *Step {
	s.Compensate = compensate
	return s
}

type Flow interface {
	Name() string
	Steps() []*Step
}

// StaticFlow is a named, fixed list of steps.
type StaticFlow struct {
	name  string
	steps []*Step
}

func NewFlow(name string, steps ...*Step) *StaticFlow {
	return &StaticFlow{name: name, steps: steps}
}

func (f *StaticFlow) Name() string   { return f.name }
func (f *StaticFlow) Steps() []*Step { return f.steps }
