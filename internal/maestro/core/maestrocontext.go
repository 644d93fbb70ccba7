package core

import (
	"busbook/pkg/client"
	"busbook/pkg/logger"
	"context"
)

// MaestroContext carries one flow execution: caller input, values shared
// between steps, and the output returned to the caller.
type MaestroContext struct {
	Ctx     context.Context
	Input   map[string]any
	Process map[string]any
	Output  map[string]any
	API     *client.API
	Log     *logger.Logger
}

func NewMaestroContext(ctx context.Context, input map[string]any, api *client.API, log *logger.Logger) *MaestroContext {
	if input == nil {
		input = map[string]any{}
	}
	return &MaestroContext{
		Ctx:     ctx,
		Input:   input,
		Process: make(map[string]any),
		Output:  make(map[string]any),
		API:     api,
		Log:     log,
	}
}
