// internal/workers/counseling/rebuild-cutoff-index/handler.go
package rebuildcutoffindex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/common/metrics"
	"seatsathi-workers/internal/common/observability"
	"seatsathi-workers/internal/counseling/resultcache"
	"seatsathi-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "rebuild-cutoff-index"

type Rebuilder interface {
	Rebuild(ctx context.Context) (models.IndexStats, error)
}

type Handler struct {
	config *Config
	engine Rebuilder
	caches []*resultcache.Cache
	obs    *observability.Observability
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, engine Rebuilder, obs *observability.Observability, log logger.Logger, caches ...*resultcache.Cache) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		caches: caches,
		obs:    obs,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		h.record(timer, "PARSE_ERROR")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		h.record(timer, string(apperrors.Normalize(err).Code))
		return
	}

	h.completeJob(client, job, output)
	h.record(timer, "")
}

// execute reloads the dataset and drops every memoised answer. Caches are
// left alone when the reload fails so callers keep getting the old results.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	h.logger.Info("rebuilding cutoff index", map[string]interface{}{"reason": input.Reason})

	stats, err := h.engine.Rebuild(ctx)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.NewDatasetLoadFailedError("index rebuild", err)
	}

	purged := 0
	for _, c := range h.caches {
		n, err := c.Purge(ctx)
		if err != nil {
			h.logger.Warn("result cache purge failed", map[string]interface{}{"error": err.Error()})
		}
		purged += n
	}

	output := &Output{
		Colleges:    stats.Colleges,
		Branches:    stats.Branches,
		Cutoffs:     stats.Cutoffs,
		Strategy:    stats.Strategy,
		CachePurged: purged,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	h.logger.Info("cutoff index rebuilt", map[string]interface{}{
		"colleges":    output.Colleges,
		"cutoffs":     output.Cutoffs,
		"strategy":    output.Strategy,
		"cachePurged": purged,
		"durationMs":  output.DurationMs,
	})
	return output, nil
}

func (h *Handler) record(timer *metrics.JobTimer, errorCode string) {
	elapsed := timer.Done(errorCode)
	status := "completed"
	if errorCode != "" {
		status = "failed"
	}
	ctx := context.Background()
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, status)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
