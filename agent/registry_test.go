package agent

import (
	"testing"

	"github.com/hupe1980/agenthive/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustConfig(t *testing.T, name string) *Config {
	t.Helper()
	cfg, err := NewConfig(name, "desc", "prompt")
	require.NoError(t, err)
	return cfg
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(mustConfig(t, "researcher")))
	assert.Equal(t, 1, r.Len())

	err := r.Register(mustConfig(t, "researcher"))
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeAgentAlreadyExists, de.Code)
	assert.Equal(t, `Agent already registered: "researcher"`, de.Message)
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustConfig(t, "researcher")))

	cfg, err := r.Get("researcher")
	require.NoError(t, err)
	assert.Equal(t, "researcher", cfg.Name())

	_, err = r.Get("writer")
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeAgentNotFound, de.Code)
	assert.Equal(t, `Unknown agent: "writer"`, de.Message)
}

func TestRegistryDefine(t *testing.T) {
	r := NewRegistry()

	cfg, err := r.Define(Definition{
		Name:         "analyst",
		Description:  "Crunches numbers",
		Instructions: "You analyze data sets.",
		Capabilities: []string{"subagent", "calculator"},
		MaxSteps:     40,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"calculator"}, cfg.Capabilities())
	assert.Equal(t, AbsoluteMaxSteps, cfg.MaxSteps())

	// The defined agent is immediately retrievable.
	got, err := r.Get("analyst")
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	// Redefining the same name fails.
	_, err = r.Define(Definition{Name: "analyst", Instructions: "other"})
	require.Error(t, err)
	de, _ := core.AsError(err)
	assert.Equal(t, core.CodeAgentAlreadyExists, de.Code)
}

func TestRegistryDefineCapabilityAllowList(t *testing.T) {
	r := NewRegistry(func(o *RegistryOptions) {
		o.KnownCapabilities = []string{"web_search", "shared_context"}
	})

	// Known names pass; the delegation tool is dropped before the check.
	cfg, err := r.Define(Definition{
		Name:         "researcher",
		Instructions: "You research.",
		Capabilities: []string{"subagent", "web_search"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"web_search"}, cfg.Capabilities())

	// Unknown names are rejected.
	_, err = r.Define(Definition{
		Name:         "rogue",
		Instructions: "You misbehave.",
		Capabilities: []string{"filesystem"},
	})
	require.Error(t, err)
	de, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeInvalidTool, de.Code)
	assert.Equal(t, `Tool not in application registry: "filesystem"`, de.Message)
}

func TestRegistryDefineWithoutAllowListAcceptsAnything(t *testing.T) {
	r := NewRegistry()

	cfg, err := r.Define(Definition{
		Name:         "freeform",
		Instructions: "You do things.",
		Capabilities: []string{"made_up_tool"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"made_up_tool"}, cfg.Capabilities())
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"writer", "analyst", "researcher"} {
		require.NoError(t, r.Register(mustConfig(t, name)))
	}

	list := r.List()
	names := make([]string, 0, len(list))
	for _, cfg := range list {
		names = append(names, cfg.Name())
	}
	assert.Equal(t, []string{"analyst", "researcher", "writer"}, names)
}
