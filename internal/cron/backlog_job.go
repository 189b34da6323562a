package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	"go.uber.org/multierr"
)

type quotationCounter interface {
	CountByStatus(ctx context.Context) (map[enums.QuotationStatus]int64, error)
}

type pendencyCounter interface {
	CountByStatus(ctx context.Context) (map[enums.PendencyStatus]int64, error)
}

type unpublishedCounter interface {
	CountUnpublished(ctx context.Context) (int64, error)
}

type deadLetterCounter interface {
	Count(ctx context.Context) (int64, error)
}

type backlogGauge interface {
	SetBacklog(aggregate string, counts map[string]int64)
}

type BacklogJobParams struct {
	Logger      *logger.Logger
	Quotations  quotationCounter
	Pendencies  pendencyCounter
	Outbox      unpublishedCounter
	DeadLetters deadLetterCounter // optional
	Gauge       backlogGauge
}

// NewBacklogJob snapshots per-status counts of quotations, pendencies and the
// unpublished outbox into gauges.
func NewBacklogJob(params BacklogJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Quotations == nil || params.Pendencies == nil || params.Outbox == nil {
		return nil, fmt.Errorf("backlog sources required")
	}
	if params.Gauge == nil {
		return nil, fmt.Errorf("backlog gauge required")
	}
	return &backlogJob{params: params}, nil
}

type backlogJob struct {
	params BacklogJobParams
}

func (j *backlogJob) Name() string { return "workflow-backlog" }

// Run publishes what it can; a failing source does not block the others.
func (j *backlogJob) Run(ctx context.Context) error {
	var errs error
	fields := map[string]any{}

	if counts, err := j.params.Quotations.CountByStatus(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count quotations: %w", err))
	} else {
		values := make(map[string]int64, len(enums.QuotationStatuses()))
		for _, status := range enums.QuotationStatuses() {
			values[string(status)] = counts[status]
		}
		j.params.Gauge.SetBacklog(string(enums.AggregateQuotation), values)
		fields["quotations_new"] = counts[enums.QuotationStatusNew]
	}

	if counts, err := j.params.Pendencies.CountByStatus(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count pendencies: %w", err))
	} else {
		values := make(map[string]int64, len(enums.PendencyStatuses()))
		for _, status := range enums.PendencyStatuses() {
			values[string(status)] = counts[status]
		}
		j.params.Gauge.SetBacklog(string(enums.AggregateRegistrationPendency), values)
		fields["pendencies_pending"] = counts[enums.PendencyStatusPending]
	}

	outboxValues := map[string]int64{}
	if count, err := j.params.Outbox.CountUnpublished(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count outbox: %w", err))
	} else {
		outboxValues["unpublished"] = count
		fields["outbox_unpublished"] = count
	}
	if j.params.DeadLetters != nil {
		if count, err := j.params.DeadLetters.Count(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("count dead letters: %w", err))
		} else {
			outboxValues["dead_lettered"] = count
			fields["outbox_dead_lettered"] = count
		}
	}
	if len(outboxValues) > 0 {
		j.params.Gauge.SetBacklog("outbox", outboxValues)
	}

	j.params.Logger.Info(j.params.Logger.WithFields(ctx, fields), "workflow backlog sampled")
	return errs
}
