package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/feichai0017/correspondence-tracker/config"
)

func TestAnalyzeFileTaskRoundTrip(t *testing.T) {
	task := AnalyzeFileTask("abc", "temp/temp_20250102_101500_a.pdf", "a.pdf")
	data, err := json.Marshal(task)
	require.NoError(t, err)

	var got Task
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TaskTypeAnalyzeFile, got.Type)
	assert.Equal(t, "temp/temp_20250102_101500_a.pdf", got.Payload["key"])
	assert.Equal(t, "a.pdf", got.Payload["originalName"])
}

func TestQueueFor(t *testing.T) {
	assert.Equal(t, QueueCritical, queueFor(1))
	assert.Equal(t, QueueDefault, queueFor(2))
	assert.Equal(t, QueueLow, queueFor(0))
}

func TestConvertAsynqStatus(t *testing.T) {
	done := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)

	s := convertAsynqStatus(&asynq.TaskInfo{ID: "1", State: asynq.TaskStateCompleted, CompletedAt: done, Result: []byte(`{"exito":true}`)})
	assert.Equal(t, "completed", s.Status)
	assert.Equal(t, done, s.FinishedAt)
	assert.JSONEq(t, `{"exito":true}`, string(s.Result))

	s = convertAsynqStatus(&asynq.TaskInfo{ID: "2", State: asynq.TaskStateArchived, LastErr: "boom"})
	assert.Equal(t, "failed", s.Status)
	assert.Equal(t, "boom", s.Error)

	s = convertAsynqStatus(&asynq.TaskInfo{ID: "3", State: asynq.TaskStateActive})
	assert.Equal(t, "running", s.Status)

	s = convertAsynqStatus(&asynq.TaskInfo{ID: "4", State: asynq.TaskStateScheduled})
	assert.Equal(t, "pending", s.Status)
}

func TestConfigFromRedis(t *testing.T) {
	c := ConfigFromRedis(&cfg.RedisConfig{Addr: "redis:6379", Password: "pw", DB: 2, ResultTTL: time.Hour}, time.Minute)
	assert.Equal(t, time.Hour, c.StatusTTL)
	assert.Equal(t, time.Minute, c.ProcessTimeout)
	opt := c.RedisOpt()
	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
}
