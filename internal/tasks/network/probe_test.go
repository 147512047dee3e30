package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceymoss/board-crawler/internal/tasks"
)

func TestProbeRegistered(t *testing.T) {
	task, err := tasks.GetTask(Name)
	require.NoError(t, err)
	assert.Equal(t, Name, task.Identifier())
}

func TestProbeRun(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer ok.Close()
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blocked.Close()

	task := NewProbeTask()

	require.NoError(t, task.Run(context.Background(), map[string]any{"urls": []any{ok.URL}, "timeout": 2}))

	err := task.Run(context.Background(), map[string]any{"urls": []string{ok.URL, blocked.URL}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), blocked.URL)
	assert.NotContains(t, err.Error(), ok.URL+",")

	assert.Error(t, task.Run(context.Background(), map[string]any{}))
}
