package service

import (
	"context"
	"fmt"

	"github.com/okian/personnel-insights/internal/adapters/inference/kserve"
	"github.com/okian/personnel-insights/internal/config"
	"github.com/okian/personnel-insights/internal/domain/classifier"
	"github.com/okian/personnel-insights/internal/domain/encoding"
	"golang.org/x/sync/errgroup"
)

// LoadModels builds the model pair selected by cfg.ModelBackend. It returns
// either a complete set or an error wrapping ErrModelLoad.
func LoadModels(ctx context.Context, cfg *config.Config) (*classifier.Set, error) {
	switch cfg.ModelBackend {
	case config.BackendFile:
		return loadFiles(cfg)
	case config.BackendKServe:
		return loadRemote(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrModelLoad, cfg.ModelBackend)
	}
}

func loadFiles(cfg *config.Config) (*classifier.Set, error) {
	lead, err := classifier.LoadFile(cfg.LeadershipModelPath, encoding.LeadershipSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, encoding.ModelLeadership, err)
	}
	attr, err := classifier.LoadFile(cfg.AttritionModelPath, encoding.AttritionSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, encoding.ModelAttrition, err)
	}
	return &classifier.Set{Leadership: lead, Attrition: attr}, nil
}

// loadRemote probes both remote models concurrently; a model that is not
// ready counts as a load failure.
func loadRemote(ctx context.Context, cfg *config.Config) (*classifier.Set, error) {
	opts := []kserve.Option{
		kserve.WithTimeout(cfg.KServeTimeout()),
		kserve.WithInputName(cfg.KServeInputName),
	}
	lead := kserve.New(cfg.KServeEndpoint, cfg.LeadershipModelName, encoding.LeadershipSchema, opts...)
	attr := kserve.New(cfg.KServeEndpoint, cfg.AttritionModelName, encoding.AttritionSchema, opts...)
	set := &classifier.Set{Leadership: lead, Attrition: attr}

	g, gctx := errgroup.WithContext(ctx)
	for _, remote := range []*kserve.Client{lead, attr} {
		g.Go(func() error {
			if err := remote.Ready(gctx); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrModelLoad, remote.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = set.Close(ctx)
		return nil, err
	}
	return set, nil
}
