package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iq-bot/internal/prompt"
)

func TestGeneratedPromptRecordLayout(t *testing.T) {
	p := &GeneratedPrompt{
		ID:          "p-1",
		TemplateID:  "t-1",
		Title:       "How are the Eagles doing?",
		Topic:       "team",
		CacheKey:    "iq:prompt-response:p-1:T1",
		ContextKeys: []string{"get_team_stats"},
		TTLSeconds:  600,
		Enabled:     true,
		Params:      prompt.ObjectOf("team_id", "T1", "team_name", "Eagles"),
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"p-1","prompt_template_id":"t-1","title":"How are the Eagles doing?","topic":"team",`+
			`"cache_key":"iq:prompt-response:p-1:T1","context_keys":["get_team_stats"],"ttl_seconds":600,`+
			`"enabled":true,"team_id":"T1","team_name":"Eagles"}`,
		string(data))

	var decoded GeneratedPrompt
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p.ID, decoded.ID)
	assert.Equal(t, p.TemplateID, decoded.TemplateID)
	assert.Equal(t, p.ContextKeys, decoded.ContextKeys)
	assert.Equal(t, 600, decoded.TTLSeconds)
	assert.True(t, decoded.Enabled)
	assert.Equal(t, []string{"team_id", "team_name"}, decoded.Params.Keys())
	assert.Empty(t, decoded.MissingFields())
}

func TestGeneratedPromptDefaults(t *testing.T) {
	var p GeneratedPrompt
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p-1","topic":"team"}`), &p))

	assert.Equal(t, time.Hour, p.TTL())
	assert.True(t, p.Enabled)
	assert.Equal(t, []string{"title", "context_keys"}, p.MissingFields())
}

func TestGeneratedPromptRejectsBadContextKeys(t *testing.T) {
	var p GeneratedPrompt
	err := json.Unmarshal([]byte(`{"id":"p-1","context_keys":"get_team"}`), &p)
	require.Error(t, err)
}

func TestGeneratedPromptContext(t *testing.T) {
	p := &GeneratedPrompt{ID: "p-1", Params: prompt.ObjectOf("team_id", "T1")}

	ctx := p.Context()
	assert.Equal(t, []string{"id", "team_id"}, ctx.Keys())
	id, _ := ctx.Get("id")
	assert.Equal(t, "p-1", id.String())
}
