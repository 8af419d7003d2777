// internal/workers/counseling/get-college-cutoff/handler.go
package getcollegecutoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/common/metrics"
	"seatsathi-workers/internal/common/observability"
	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/counseling/resultcache"
	"seatsathi-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType  = "get-college-cutoff"
	CacheKind = "lookup"
)

type Lookup interface {
	GetSpecificCollegeCutoff(ctx context.Context, collegeName, category, course string) models.CollegeCutoffResult
}

type Handler struct {
	config *Config
	engine Lookup
	cache  *resultcache.Cache
	obs    *observability.Observability
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, engine Lookup, cache *resultcache.Cache, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		cache:  cache,
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

// execute never turns a missing college or missing data into a job error;
// the status field carries it back to the process.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	if strings.TrimSpace(input.CollegeName) == "" || strings.TrimSpace(input.Category) == "" {
		return nil, apperrors.NewInvalidQueryInputError("collegeName and category are required")
	}

	key := h.cache.Key(
		strings.ToLower(strings.TrimSpace(input.CollegeName)),
		normalize.ReservationCategory(input.Category),
		strings.ToLower(strings.TrimSpace(input.Course)),
	)

	var cached Output
	if h.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		cached.QueryTimeMs = time.Since(start).Milliseconds()
		return &cached, nil
	}

	result := h.engine.GetSpecificCollegeCutoff(ctx, input.CollegeName, input.Category, input.Course)
	output := &Output{
		CollegeCutoffResult: result,
		QueryTimeMs:         time.Since(start).Milliseconds(),
	}

	// Unavailable results are never cached.
	if result.Status != models.LookupUnavailable {
		h.cache.Set(ctx, key, output)
	}

	h.logger.Info("college cutoff looked up", map[string]interface{}{
		"collegeName": input.CollegeName,
		"collegeCode": result.CollegeCode,
		"status":      string(result.Status),
		"branches":    len(result.Data),
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
