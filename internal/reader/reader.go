// Package reader serves stored prompt records and their cached responses.
package reader

import (
	"context"
	"encoding/json"
	"sort"

	"iq-bot/internal/cache"
	"iq-bot/internal/common/logger"
	"iq-bot/internal/models"
)

type Reader struct {
	store  cache.Store
	logger logger.Logger
}

func New(store cache.Store, log logger.Logger) *Reader {
	return &Reader{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "reader"}),
	}
}

// ListGeneratedPrompts returns every stored record ordered by template and
// prompt id.
func (r *Reader) ListGeneratedPrompts(ctx context.Context) []*models.GeneratedPrompt {
	keys := r.store.Scan(ctx, cache.GeneratedPromptPattern(""))
	sort.Strings(keys)

	out := make([]*models.GeneratedPrompt, 0, len(keys))
	for _, key := range keys {
		if p, ok := r.load(ctx, key); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *Reader) ListGeneratedPromptsByTopic(ctx context.Context, topic string) []*models.GeneratedPrompt {
	out := []*models.GeneratedPrompt{}
	for _, p := range r.ListGeneratedPrompts(ctx) {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// GetGeneratedPrompt finds the record of promptID under any template.
func (r *Reader) GetGeneratedPrompt(ctx context.Context, promptID string) (*models.GeneratedPrompt, bool) {
	keys := r.store.Scan(ctx, cache.PromptIDPattern(promptID))
	sort.Strings(keys)
	for _, key := range keys {
		if p, ok := r.load(ctx, key); ok {
			return p, true
		}
	}
	return nil, false
}

// GetResponse returns the cached response of promptID, found through the
// record's cache key.
func (r *Reader) GetResponse(ctx context.Context, promptID string) (*models.GeneratedResponse, bool) {
	p, ok := r.GetGeneratedPrompt(ctx, promptID)
	if !ok || p.CacheKey == "" {
		return nil, false
	}

	body, ok := r.store.Get(ctx, p.CacheKey)
	if !ok {
		return nil, false
	}
	return &models.GeneratedResponse{
		Response:    string(body),
		PromptID:    p.ID,
		TemplateID:  p.TemplateID,
		Topic:       p.Topic,
		CacheKey:    p.CacheKey,
		ContextKeys: p.ContextKeys,
		Cached:      true,
	}, true
}

func (r *Reader) load(ctx context.Context, key string) (*models.GeneratedPrompt, bool) {
	body, ok := r.store.Get(ctx, key)
	if !ok {
		return nil, false
	}

	var p models.GeneratedPrompt
	if err := json.Unmarshal(body, &p); err != nil {
		r.logger.Warn("deleting undecodable prompt record", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		r.store.Delete(ctx, key)
		return nil, false
	}

	if templateID, promptID, ok := cache.ParseGeneratedPromptKey(key); ok {
		if p.ID == "" {
			p.ID = promptID
		}
		if p.TemplateID == "" {
			p.TemplateID = templateID
		}
	}
	return &p, true
}
