package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/repairops-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	dlqRetentionDays    = 90
	day                 = 24 * time.Hour
)

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository publishedPurger
	// DeadLetters is optional; without it only published rows are purged.
	DeadLetters  deadLetterPurger
	Retention    int
	DLQRetention int
}

type publishedPurger interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type deadLetterPurger interface {
	DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob purges published outbox rows and old dead letters.
// Unpublished rows are never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	return &outboxRetentionJob{
		logg:         params.Logger,
		published:    params.Repository,
		deadLetters:  params.DeadLetters,
		retention:    daysOr(params.Retention, outboxRetentionDays),
		dlqRetention: daysOr(params.DLQRetention, dlqRetentionDays),
		now:          time.Now,
	}, nil
}

func daysOr(days, fallback int) int {
	if days <= 0 {
		return fallback
	}
	return days
}

type outboxRetentionJob struct {
	logg         *logger.Logger
	published    publishedPurger
	deadLetters  deadLetterPurger
	retention    int
	dlqRetention int
	now          func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run attempts both purges even if the first fails.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	fields := map[string]any{"retention_days": j.retention}

	var errs error
	cutoff := now.Add(-time.Duration(j.retention) * day)
	deleted, err := j.published.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("purge published outbox rows: %w", err))
	}
	fields["published_deleted"] = deleted

	if j.deadLetters != nil {
		dlqCutoff := now.Add(-time.Duration(j.dlqRetention) * day)
		dead, err := j.deadLetters.DeleteFailedBefore(ctx, dlqCutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge dead letters: %w", err))
		}
		fields["dlq_retention_days"] = j.dlqRetention
		fields["dead_letters_deleted"] = dead
	}

	if errs != nil {
		return errs
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "outbox retention cleanup complete")
	return nil
}
