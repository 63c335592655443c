package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/task"
)

// -------------------- Request Parsing Tests --------------------

func TestParseRequest_Define(t *testing.T) {
	req, err := parseRequest(map[string]interface{}{
		"action":       "define",
		"name":         "researcher",
		"description":  "Investigates questions",
		"instructions": "You are a careful researcher.",
		"capabilities": []interface{}{"search", "shared_context"},
		"model":        "claude-sonnet-4-20250514",
		"max_steps":    float64(15),
	})
	require.NoError(t, err)

	def, ok := req.(DefineRequest)
	require.True(t, ok)
	assert.Equal(t, "researcher", def.Name)
	assert.Equal(t, "Investigates questions", def.Description)
	assert.Equal(t, "You are a careful researcher.", def.Instructions)
	assert.Equal(t, []string{"search", "shared_context"}, def.Capabilities)
	assert.Equal(t, "claude-sonnet-4-20250514", def.Model)
	assert.Equal(t, 15, def.MaxSteps)
}

func TestParseRequest_DefineDefaults(t *testing.T) {
	req, err := parseRequest(map[string]interface{}{"action": "define"})
	require.NoError(t, err)

	def := req.(DefineRequest)
	assert.Empty(t, def.Name)
	assert.Empty(t, def.Instructions)
	assert.Nil(t, def.Capabilities)

	// Absent max_steps stays zero so the config layer applies its default.
	assert.Equal(t, 0, def.MaxSteps)
}

func TestParseRequest_NonPositiveMaxStepsClampsToOne(t *testing.T) {
	req, err := parseRequest(map[string]interface{}{
		"action":    "define",
		"max_steps": float64(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, req.(DefineRequest).MaxSteps)

	req, err = parseRequest(map[string]interface{}{
		"action":    "define",
		"max_steps": float64(-5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, req.(DefineRequest).MaxSteps)
}

func TestParseRequest_CapabilitiesDropNonStrings(t *testing.T) {
	req, err := parseRequest(map[string]interface{}{
		"action":       "define",
		"capabilities": []interface{}{"search", float64(7), "shared_context"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"search", "shared_context"}, req.(DefineRequest).Capabilities)
}

func TestParseRequest_SpawnStatusCollect(t *testing.T) {
	req, err := parseRequest(map[string]interface{}{
		"action": "spawn",
		"agent":  "researcher",
		"task":   "Look into X.",
	})
	require.NoError(t, err)
	assert.Equal(t, SpawnRequest{Agent: "researcher", Task: "Look into X."}, req)

	req, err = parseRequest(map[string]interface{}{"action": "status", "task_id": "t_01"})
	require.NoError(t, err)
	assert.Equal(t, StatusRequest{TaskID: "t_01"}, req)

	req, err = parseRequest(map[string]interface{}{"action": "collect", "task_id": "t_01"})
	require.NoError(t, err)
	assert.Equal(t, CollectRequest{TaskID: "t_01"}, req)

	req, err = parseRequest(map[string]interface{}{"action": "list_agents"})
	require.NoError(t, err)
	assert.Equal(t, ListAgentsRequest{}, req)
}

func TestParseRequest_UnknownAction(t *testing.T) {
	_, err := parseRequest(map[string]interface{}{"action": "dance"})
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeInvalidAction, coreErr.Code)
	assert.Equal(t, `Unknown action: "dance". Valid: [collect define list_agents spawn status]`, coreErr.Message)
}

func TestParseRequest_MissingAction(t *testing.T) {
	_, err := parseRequest(map[string]interface{}{})
	require.Error(t, err)

	coreErr, ok := core.AsError(err)
	require.True(t, ok)
	assert.Equal(t, core.CodeInvalidAction, coreErr.Code)
	assert.Contains(t, coreErr.Message, `Unknown action: ""`)
}

// -------------------- Response Rendering Tests --------------------

func TestStatusResponse_NeverCarriesResult(t *testing.T) {
	snap := task.Task{
		ID:        "t_01",
		Agent:     "researcher",
		Status:    task.StatusCompleted,
		Result:    "findings",
		StepsUsed: 3,
	}

	resp := statusResponse(snap)
	assert.Nil(t, resp.Result)
	assert.Empty(t, resp.Error)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"t_01","agent":"researcher","status":"completed","steps_used":3}`, string(data))
}

func TestStatusResponse_CarriesErrorWhenFailed(t *testing.T) {
	snap := task.Task{
		ID:        "t_02",
		Agent:     "researcher",
		Status:    task.StatusFailed,
		Error:     "model call failed: boom",
		StepsUsed: 2,
	}

	data, err := json.Marshal(statusResponse(snap))
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"t_02","agent":"researcher","status":"failed","steps_used":2,"error":"model call failed: boom"}`, string(data))
}

func TestCollectResponse_Completed(t *testing.T) {
	snap := task.Task{
		ID:        "t_01",
		Agent:     "researcher",
		Status:    task.StatusCompleted,
		Result:    "findings",
		StepsUsed: 4,
	}

	data, err := json.Marshal(collectResponse(snap))
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"t_01","agent":"researcher","status":"completed","steps_used":4,"result":"findings"}`, string(data))
}

func TestCollectResponse_EmptyResultKeepsField(t *testing.T) {
	snap := task.Task{
		ID:        "t_01",
		Agent:     "researcher",
		Status:    task.StatusCompleted,
		StepsUsed: 1,
	}

	data, err := json.Marshal(collectResponse(snap))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"result":""`)
}

func TestCollectResponse_Failed(t *testing.T) {
	snap := task.Task{
		ID:        "t_03",
		Agent:     "researcher",
		Status:    task.StatusFailed,
		Error:     "runner panicked: oops",
		StepsUsed: 0,
	}

	resp := collectResponse(snap)
	assert.Nil(t, resp.Result)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"t_03","agent":"researcher","status":"failed","steps_used":0,"error":"runner panicked: oops"}`, string(data))
}
