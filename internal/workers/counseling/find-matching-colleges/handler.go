// internal/workers/counseling/find-matching-colleges/handler.go
package findmatchingcolleges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/common/metrics"
	"seatsathi-workers/internal/common/observability"
	"seatsathi-workers/internal/counseling/engine"
	"seatsathi-workers/internal/counseling/normalize"
	"seatsathi-workers/internal/counseling/resultcache"
	"seatsathi-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType  = "find-matching-colleges"
	CacheKind = "match"
)

// Searcher is the part of the engine this worker needs.
type Searcher interface {
	Find(ctx context.Context, q models.Query) models.SearchResult
}

type Handler struct {
	config *Config
	engine Searcher
	cache  *resultcache.Cache
	obs    *observability.Observability
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler wires the worker. cache and obs may be nil.
func NewHandler(config *Config, engine Searcher, cache *resultcache.Cache, obs *observability.Observability, log logger.Logger) *Handler {
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	if err := validateInput(input); err != nil {
		return nil, err
	}

	query := models.Query{
		Rank:     input.Rank,
		Category: input.Category,
		Course:   input.Course,
		Location: input.Location,
	}
	// Course and location keep their case: results are tagged with the
	// caller's own values.
	key := h.cache.Key(
		strconv.Itoa(input.Rank),
		normalize.ReservationCategory(input.Category),
		strings.Join(engine.SplitList(input.Course), ","),
		strings.Join(engine.SplitList(input.Location), ","),
	)

	var cached Output
	if h.cache.Get(ctx, key, &cached) {
		cached.QueryID = uuid.NewString()
		cached.Cached = true
		cached.QueryTimeMs = time.Since(start).Milliseconds()
		h.obs.RecordRecommendations(ctx, cached.Count, true)
		return &cached, nil
	}

	result := h.engine.Find(ctx, query)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		// Partial fan-out results must not be cached or returned.
		return nil, apperrors.NewQueryTimeoutError(TaskType)
	}
	output := &Output{
		QueryID:             uuid.NewString(),
		Recommendations:     result.Recommendations,
		Count:               len(result.Recommendations),
		TotalRecordsScanned: result.RecordsScanned,
		Combinations:        result.Combinations,
		Strategy:            result.Strategy,
		QueryTimeMs:         time.Since(start).Milliseconds(),
	}
	h.cache.Set(ctx, key, output)
	h.obs.RecordRecommendations(ctx, output.Count, false)

	h.logger.Info("colleges matched", map[string]interface{}{
		"rank":        input.Rank,
		"category":    input.Category,
		"course":      input.Course,
		"location":    input.Location,
		"count":       output.Count,
		"strategy":    output.Strategy,
		"queryTimeMs": output.QueryTimeMs,
	})
	return output, nil
}

func validateInput(input *Input) error {
	var problems []string
	if input.Rank <= 0 {
		problems = append(problems, "rank must be a positive integer")
	}
	if strings.TrimSpace(input.Category) == "" {
		problems = append(problems, "category is required")
	}
	if strings.TrimSpace(input.Course) == "" {
		problems = append(problems, "course is required")
	}
	if len(problems) > 0 {
		return apperrors.NewInvalidQueryInputError(strings.Join(problems, "; "))
	}
	return nil
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
