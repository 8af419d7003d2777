package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seatsathi-workers/internal/models"
	"seatsathi-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	ready bool
}

func (f fakeIndex) IsReady() bool { return f.ready }

func (f fakeIndex) Stats(context.Context) models.IndexStats {
	return models.IndexStats{Colleges: 3, Cutoffs: 40, Ready: f.ready, Strategy: "memory"}
}

type fakeBroker struct {
	err error
}

func (f fakeBroker) HealthCheck(context.Context) error { return f.err }

func get(t *testing.T, h http.Handler, path string) (int, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealthMux(t *testing.T) {
	tests := []struct {
		name       string
		index      fakeIndex
		broker     brokerStatus
		path       string
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name:       "health is always ok",
			index:      fakeIndex{},
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "healthy"},
		},
		{
			name:       "not ready while index warms",
			index:      fakeIndex{ready: false},
			broker:     fakeBroker{},
			path:       "/ready",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]interface{}{"status": "warming", "broker": "ok"},
		},
		{
			name:       "ready once index built",
			index:      fakeIndex{ready: true},
			broker:     fakeBroker{err: errors.New("gateway unreachable")},
			path:       "/ready",
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "ready", "broker": "gateway unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(t, newHealthMux(tt.index, tt.broker), tt.path)
			assert.Equal(t, tt.wantStatus, code)
			for k, v := range tt.wantBody {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}

func TestHealthMux_ReadyIncludesStats(t *testing.T) {
	_, body := get(t, newHealthMux(fakeIndex{ready: true}, nil), "/ready")

	stats, ok := body["index"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), stats["colleges"])
	assert.Equal(t, "memory", stats["strategy"])
	assert.NotContains(t, body, "broker")
}

func TestHealthMux_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux(fakeIndex{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestJobTimeout(t *testing.T) {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{
		{TaskType: "rebuild-cutoff-index", Timeout: "2m"},
		{TaskType: "get-college-cutoff", Timeout: "soon"},
	}}

	assert.Equal(t, 2*time.Minute, jobTimeout(reg, "rebuild-cutoff-index", time.Second))
	assert.Equal(t, time.Second, jobTimeout(reg, "get-college-cutoff", time.Second))
	assert.Equal(t, 5*time.Second, jobTimeout(reg, "unknown", 5*time.Second))
}
