package agenthive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/engine"
	"github.com/hupe1980/agenthive/runner"
	"github.com/hupe1980/agenthive/task"
)

func TestHive_DelegationRoundTrip(t *testing.T) {
	r := runner.RunnerFunc(func(_ context.Context, _ *agent.Config, taskDesc, _ string) (*runner.Outcome, error) {
		return &runner.Outcome{Text: "Echo: " + taskDesc, StepsUsed: 1}, nil
	})

	hive := New(r, func(o *Options) {
		o.Config.MaxConcurrentTasks = 2
	})
	t.Cleanup(func() { require.NoError(t, hive.Close()) })

	cfg, err := agent.NewConfig("researcher", "Investigates questions", "You are a careful researcher.")
	require.NoError(t, err)
	require.NoError(t, hive.RegisterAgent(cfg))

	assert.Equal(t, "subagent", hive.Tool().Name())

	ctx := context.Background()
	spawned, err := hive.Handle(ctx, map[string]interface{}{
		"action": "spawn",
		"agent":  "researcher",
		"task":   "Check the backlog.",
	})
	require.NoError(t, err)
	taskID := spawned.(*engine.SpawnResponse).TaskID

	require.Eventually(t, func() bool {
		resp, err := hive.Engine().Status(ctx, engine.StatusRequest{TaskID: taskID})
		return err == nil && resp.Status == string(task.StatusCompleted)
	}, 2*time.Second, 5*time.Millisecond)

	collected, err := hive.Handle(ctx, map[string]interface{}{"action": "collect", "task_id": taskID})
	require.NoError(t, err)
	result := collected.(*engine.TaskResponse).Result
	require.NotNil(t, result)
	assert.Equal(t, "Echo: Check the backlog.", *result)
}
