package agent

import (
	"strings"
	"testing"

	"github.com/hupe1980/agenthive/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigValidatesName(t *testing.T) {
	cases := []struct {
		name      string
		agentName string
		wantCode  core.Code
	}{
		{"empty", "", core.CodeInvalidAgentName},
		{"too long", strings.Repeat("a", 65), core.CodeInvalidAgentName},
		{"uppercase", "Researcher", core.CodeInvalidAgentName},
		{"spaces", "data analyst", core.CodeInvalidAgentName},
		{"dots", "web.crawler", core.CodeInvalidAgentName},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.agentName, "desc", "prompt")
			require.Error(t, err)
			de, ok := core.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantCode, de.Code)
		})
	}

	// Boundary: exactly 64 characters is fine, as are digits, hyphens
	// and underscores.
	cfg, err := NewConfig(strings.Repeat("a", 64), "desc", "prompt")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 64), cfg.Name())

	_, err = NewConfig("web-crawler_2", "desc", "prompt")
	assert.NoError(t, err)
}

func TestNewConfigPromptBudget(t *testing.T) {
	// 16000 chars estimate to exactly 4000 tokens: accepted.
	cfg, err := NewConfig("researcher", "desc", strings.Repeat("x", 16000))
	require.NoError(t, err)
	assert.Equal(t, 16000, len(cfg.Instructions()))

	// 16004 chars estimate to 4001 tokens: rejected.
	_, err = NewConfig("researcher", "desc", strings.Repeat("x", 16004))
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodePromptTooLarge, de.Code)
	assert.Equal(t, "System prompt is ~4001 tokens, max is 4000.", de.Message)
}

func TestNewConfigClampsMaxSteps(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 10}, // zero means default
		{-5, 1},
		{1, 1},
		{10, 10},
		{25, 25},
		{26, 25},
		{100, 25},
	}

	for _, tc := range cases {
		cfg, err := NewConfig("worker", "desc", "prompt", func(o *ConfigOptions) {
			o.MaxSteps = tc.in
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, cfg.MaxSteps(), "MaxSteps=%d", tc.in)
	}

	// Absent option: default.
	cfg, err := NewConfig("worker2", "desc", "prompt")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSteps, cfg.MaxSteps())
}

func TestNewConfigStripsDelegationCapability(t *testing.T) {
	cfg, err := NewConfig("researcher", "desc", "prompt", func(o *ConfigOptions) {
		o.Capabilities = []string{"subagent", "web_search", "subagent", "shared_context"}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"web_search", "shared_context"}, cfg.Capabilities())

	// Only the delegation tool: empty capability set, not an error.
	cfg, err = NewConfig("loner", "desc", "prompt", func(o *ConfigOptions) {
		o.Capabilities = []string{"subagent"}
	})
	require.NoError(t, err)
	assert.Empty(t, cfg.Capabilities())
}

func TestConfigCapabilitiesCopy(t *testing.T) {
	cfg, err := NewConfig("researcher", "desc", "prompt", func(o *ConfigOptions) {
		o.Capabilities = []string{"web_search"}
	})
	require.NoError(t, err)

	caps := cfg.Capabilities()
	caps[0] = "mutated"
	assert.Equal(t, []string{"web_search"}, cfg.Capabilities())
}

func TestConfigSummary(t *testing.T) {
	cfg, err := NewConfig("researcher", "Finds things", "You research.", func(o *ConfigOptions) {
		o.Capabilities = []string{"web_search"}
		o.Model = "claude-sonnet-4-20250514"
		o.MaxSteps = 15
	})
	require.NoError(t, err)

	s := cfg.Summary()
	assert.Equal(t, "researcher", s.Name)
	assert.Equal(t, "Finds things", s.Description)
	assert.Equal(t, "claude-sonnet-4-20250514", s.Model)
	assert.Equal(t, 15, s.MaxSteps)
	assert.Equal(t, []string{"web_search"}, s.Capabilities)
}
