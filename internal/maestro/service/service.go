package service

import (
	maestro "busbook/internal/maestro/core"
	"busbook/internal/maestro/flows"
	"busbook/pkg/client"
	"busbook/pkg/logger"
	"context"
	"time"
)

type MaestroService struct {
	api    *client.API
	engine *maestro.Engine
	Logger *logger.Logger
}

func NewMaestroService(api *client.API, logger *logger.Logger) *MaestroService {
	return &MaestroService{
		api: api,
		engine: maestro.NewEngine(
			flows.Checkout(),
			flows.SeatMapFlow(time.Now),
		),
		Logger: logger,
	}
}

func (s *MaestroService) ExecuteFlow(ctx context.Context, flowName string, input map[string]any) (map[string]any, error) {
	mctx := maestro.NewMaestroContext(ctx, input, s.api, s.Logger)
	if err := s.engine.Run(flowName, mctx); err != nil {
		return nil, err
	}
	return mctx.Output, nil
}

func (s *MaestroService) GetAvailableFlows() []string {
	return s.engine.FlowNames()
}
