package kinds

import (
	"context"
	"fmt"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
)

// ServiceConfig is the configuration for the kinds service.
type ServiceConfig struct {
	// DefaultParams are the user configured params of each analysis.
	DefaultParams map[model.AnalysisKind]model.AnalysisParams
	Logger        log.Logger
}

func (c *ServiceConfig) defaults() error {
	for k := range c.DefaultParams {
		if err := k.Validate(); err != nil {
			return fmt.Errorf("invalid default params: %w", err)
		}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service lists the supported analysis kinds.
type Service struct {
	defaultParams map[model.AnalysisKind]model.AnalysisParams
	logger        log.Logger
}

// NewService creates a new kinds service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		defaultParams: cfg.DefaultParams,
		logger:        cfg.Logger,
	}, nil
}

// Request represents the kinds request parameters.
type Request struct{}

// Run returns the supported analyses with the params that a launch without
// params would send.
func (s *Service) Run(ctx context.Context, req Request) ([]model.AnalysisInfo, error) {
	analyses := model.Analyses()
	for i, a := range analyses {
		analyses[i].DefaultParams = model.MergeParams(a.Kind, s.defaultParams[a.Kind])
	}

	s.logger.Debugf("%d analysis kinds", len(analyses))

	return analyses, nil
}
