package reader

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iq-bot/internal/cache"
	"iq-bot/internal/common/logger"
)

func setup(t *testing.T) (*miniredis.Miniredis, *Reader) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	log := logger.NewTestLogger(t)
	return mr, New(cache.NewRedisStore(client, log), log)
}

func seed(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()
	require.NoError(t, mr.Set(cache.GeneratedPromptKey("t1", "p1"),
		`{"id":"p1","prompt_template_id":"t1","title":"About Harry","topic":"character","cache_key":"iq:prompt-response:p1:harry","context_keys":["get_characters"],"ttl_seconds":600,"enabled":true,"character":"harry"}`))
	require.NoError(t, mr.Set(cache.GeneratedPromptKey("t2", "p2"),
		`{"id":"p2","prompt_template_id":"t2","title":"About Gryffindor","topic":"house","cache_key":"","context_keys":[],"ttl_seconds":600,"enabled":true}`))
	require.NoError(t, mr.Set("iq:prompt-response:p1:harry", "The boy who lived."))
}

func TestListGeneratedPrompts(t *testing.T) {
	mr, r := setup(t)
	seed(t, mr)
	ctx := context.Background()

	all := r.ListGeneratedPrompts(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "p1", all[0].ID)
	assert.Equal(t, "p2", all[1].ID)

	chars := r.ListGeneratedPromptsByTopic(ctx, "character")
	require.Len(t, chars, 1)
	assert.Equal(t, "About Harry", chars[0].Title)
	v, ok := chars[0].Params.Get("character")
	require.True(t, ok)
	assert.Equal(t, "harry", v.String())

	assert.Empty(t, r.ListGeneratedPromptsByTopic(ctx, "spell"))
}

func TestGetGeneratedPrompt(t *testing.T) {
	mr, r := setup(t)
	seed(t, mr)

	p, ok := r.GetGeneratedPrompt(context.Background(), "p2")
	require.True(t, ok)
	assert.Equal(t, "t2", p.TemplateID)
	assert.Equal(t, []string{}, p.ContextKeys)

	_, ok = r.GetGeneratedPrompt(context.Background(), "missing")
	assert.False(t, ok)
}

func TestGetResponse(t *testing.T) {
	mr, r := setup(t)
	seed(t, mr)
	ctx := context.Background()

	resp, ok := r.GetResponse(ctx, "p1")
	require.True(t, ok)
	assert.Equal(t, "The boy who lived.", resp.Response)
	assert.True(t, resp.Cached)
	assert.Equal(t, "iq:prompt-response:p1:harry", resp.CacheKey)

	_, ok = r.GetResponse(ctx, "p2")
	assert.False(t, ok, "record without cache key has no response")

	mr.Del("iq:prompt-response:p1:harry")
	_, ok = r.GetResponse(ctx, "p1")
	assert.False(t, ok)
}

func TestCorruptRecordIsDeleted(t *testing.T) {
	mr, r := setup(t)
	key := cache.GeneratedPromptKey("t1", "bad")
	require.NoError(t, mr.Set(key, "{broken"))

	_, ok := r.GetGeneratedPrompt(context.Background(), "bad")
	assert.False(t, ok)
	assert.False(t, mr.Exists(key))
}

func TestGetResponseUsesStoredKeyVerbatim(t *testing.T) {
	mr, r := setup(t)
	responseKey := `iq:prompt-response:p3:{"number":1,"title":"Philosopher's Stone"}`
	require.NoError(t, mr.Set(cache.GeneratedPromptKey("t3", "p3"),
		`{"id":"p3","prompt_template_id":"t3","title":"Book one","topic":"book","cache_key":"iq:prompt-response:p3:{\"number\":1,\"title\":\"Philosopher's Stone\"}","context_keys":[],"ttl_seconds":600,"enabled":true}`))
	require.NoError(t, mr.Set(responseKey, "It begins."))

	resp, ok := r.GetResponse(context.Background(), "p3")
	require.True(t, ok)
	assert.Equal(t, "It begins.", resp.Response)
	assert.Equal(t, responseKey, resp.CacheKey)
}
