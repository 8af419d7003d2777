// internal/workers/counseling/load-supplementary-cutoffs/handler.go
package loadsupplementarycutoffs

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "seatsathi-workers/internal/common/errors"
	"seatsathi-workers/internal/common/logger"
	"seatsathi-workers/internal/common/metrics"
	"seatsathi-workers/internal/common/observability"
	"seatsathi-workers/internal/counseling/resultcache"
	"seatsathi-workers/internal/counseling/supplementary"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "load-supplementary-cutoffs"

type Handler struct {
	config *Config
	store  supplementary.Store
	caches []*resultcache.Cache
	obs    *observability.Observability
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler wires the worker. Every cache passed in is purged after a
// successful upload.
func NewHandler(config *Config, store supplementary.Store, obs *observability.Observability, log logger.Logger, caches ...*resultcache.Cache) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := supplementary.Validate(input.Entries); err != nil {
		return nil, err
	}

	batch := supplementary.NewBatch(input.Entries)
	if err := h.store.Append(ctx, batch, input.Replace); err != nil {
		return nil, err
	}

	stored, err := h.store.Entries(ctx)
	if err != nil {
		return nil, err
	}

	purged := 0
	for _, c := range h.caches {
		n, err := c.Purge(ctx)
		if err != nil {
			h.logger.Warn("result cache purge failed", map[string]interface{}{"error": err.Error()})
		}
		purged += n
	}

	h.logger.Info("supplementary cutoffs stored", map[string]interface{}{
		"batchId":     batch.ID,
		"accepted":    len(batch.Entries),
		"total":       len(stored),
		"replace":     input.Replace,
		"cachePurged": purged,
	})

	return &Output{
		BatchID:     batch.ID,
		Accepted:    len(batch.Entries),
		Total:       len(stored),
		Replaced:    input.Replace,
		CachePurged: purged,
	}, nil
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
