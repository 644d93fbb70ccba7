package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

var ErrUnknownFlow = errors.New("unsupported flow")

// StepError names the step that failed a flow.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

const compensationTimeout = 10 * time.Second

type Engine struct {
	flows map[string]Flow
}

func NewEngine(flows ...Flow) *Engine {
	m := map[string]Flow{}
	for _, f := range flows {
		m[f.Name()] = f
	}
	return &Engine{flows: m}
}

func (e *Engine) FlowNames() []string {
	names := make([]string, 0, len(e.flows))
	for name := range e.flows {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Run executes the flow's steps in order. When a step fails, the
// compensations of the steps that already completed run in reverse order.
func (e *Engine) Run(flowName string, ctx *MaestroContext) error {
	f, exists := e.flows[flowName]
	if !exists {
		return fmt.Errorf("%w: %v", ErrUnknownFlow, flowName)
	}

	var done []*Step
	for _, step := range f.Steps() {
		if err := step.Execute(ctx); err != nil {
			e.compensate(ctx, flowName, done)
			return &StepError{Step: step.Name, Err: err}
		}
		done = append(done, step)
	}
	return nil
}

func (e *Engine) compensate(ctx *MaestroContext, flowName string, done []*Step) {
	// the request context may be what failed the step
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Ctx), compensationTimeout)
	defer cancel()
	original := ctx.Ctx
	ctx.Ctx = cctx
	defer func() { ctx.Ctx = original }()

	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			ctx.Log.Error("Compensation failed", "flow", flowName, "step", step.Name, "error", err)
			continue
		}
		ctx.Log.Info("Compensation applied", "flow", flowName, "step", step.Name)
	}
}
