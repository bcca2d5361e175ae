// Package bootstrap assembles the writer, reader and enrichment services from
// configuration. Both binaries build their dependencies here.
package bootstrap

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"

	"iq-bot/internal/cache"
	"iq-bot/internal/catalog"
	"iq-bot/internal/common/config"
	apperrors "iq-bot/internal/common/errors"
	commonhttp "iq-bot/internal/common/http"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/enrichment"
	"iq-bot/internal/generation"
	"iq-bot/internal/reader"
	"iq-bot/internal/writer"
)

type Services struct {
	Config    *config.Config
	Store     cache.Store
	Catalog   *catalog.Catalog
	Resources *catalog.Resources
	Registry  *enrichment.Registry
	Prompts   *writer.PromptService
	Reader    *reader.Reader

	logger logger.Logger
}

// New loads the template catalog and builds every service that does not need
// the generation service.
func New(cfg *config.Config, rdb redis.Cmdable, log logger.Logger) (*Services, error) {
	store := cache.NewRedisStore(rdb, log)

	cat, err := catalog.LoadFile(cfg.Resources.TemplatesFile, log)
	if err != nil {
		return nil, err
	}

	data := cfg.APIs.Data
	client := enrichment.NewClient(
		data.BaseURL,
		commonhttp.NewClient(config.GetDuration(data.Timeout), data.MaxRetries),
		store,
		enrichment.EndpointsFromConfig(data.Endpoints),
		log,
	)
	registry, err := enrichment.NewRegistry(log, client.Operations()...)
	if err != nil {
		return nil, err
	}

	return &Services{
		Config:    cfg,
		Store:     store,
		Catalog:   cat,
		Resources: catalog.NewResources(os.DirFS(cfg.Resources.Dir), log),
		Registry:  registry,
		Prompts:   writer.NewPromptService(cat, store, log),
		Reader:    reader.New(store, log),
		logger:    log,
	}, nil
}

// NewOrchestrator builds the response orchestrator around the configured
// generation service.
func (s *Services) NewOrchestrator() (*writer.Orchestrator, error) {
	gen, err := s.NewGenerator()
	if err != nil {
		return nil, err
	}
	return writer.NewOrchestrator(s.Store, s.Registry, s.Resources, gen, s.logger), nil
}

func (s *Services) NewGenerator() (generation.Generator, error) {
	o := s.Config.APIs.OpenAI
	return generation.NewOpenAIGenerator(generation.OpenAIConfig{
		APIKey:      o.APIKey,
		BaseURL:     o.BaseURL,
		Model:       o.Model,
		Temperature: o.Temperature,
		Timeout:     config.GetDuration(o.Timeout),
		MaxRetries:  o.MaxRetries,
	}, s.logger)
}

// DataSources reads the data sources file, when present, adds the sources
// produced by the configured enrichment operations, then assigns the
// configured id fields.
func (s *Services) DataSources(ctx context.Context) (writer.DataSources, error) {
	sources := writer.DataSources{}

	if path := s.Config.Resources.DataSourcesFile; path != "" {
		fromFile, err := writer.LoadDataSources(path)
		switch {
		case err == nil:
			sources.Merge(fromFile)
		case apperrors.IsCode(err, apperrors.ErrCodeResourceMissing):
			s.logger.Warn("data sources file not found", map[string]interface{}{"path": path})
		default:
			return nil, err
		}
	}

	if len(s.Config.Writer.Sources) > 0 {
		sources.Merge(writer.GatherSources(ctx, s.Registry, s.Config.Writer.Sources, s.logger))
	}
	sources.AssignIDs(s.Config.Writer.SourceIDs)
	return sources, nil
}
