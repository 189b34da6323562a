package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/repairops-backend/pkg/enums"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
)

type fakeQuotationCounter struct {
	counts map[enums.QuotationStatus]int64
	err    error
}

func (f fakeQuotationCounter) CountByStatus(context.Context) (map[enums.QuotationStatus]int64, error) {
	return f.counts, f.err
}

type fakePendencyCounter struct {
	counts map[enums.PendencyStatus]int64
}

func (f fakePendencyCounter) CountByStatus(context.Context) (map[enums.PendencyStatus]int64, error) {
	return f.counts, nil
}

type fakeUnpublished int64

func (f fakeUnpublished) CountUnpublished(context.Context) (int64, error) { return int64(f), nil }

type fakeDeadLetters int64

func (f fakeDeadLetters) Count(context.Context) (int64, error) { return int64(f), nil }

type recordingGauge map[string]map[string]int64

func (r recordingGauge) SetBacklog(aggregate string, counts map[string]int64) {
	r[aggregate] = counts
}

func TestBacklogJobPublishesEveryStatus(t *testing.T) {
	gauge := recordingGauge{}
	job, err := NewBacklogJob(BacklogJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		Quotations:  fakeQuotationCounter{counts: map[enums.QuotationStatus]int64{enums.QuotationStatusNew: 3}},
		Pendencies:  fakePendencyCounter{counts: map[enums.PendencyStatus]int64{enums.PendencyStatusPending: 2}},
		Outbox:      fakeUnpublished(5),
		DeadLetters: fakeDeadLetters(1),
		Gauge:       gauge,
	})
	if err != nil {
		t.Fatalf("NewBacklogJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	quotations := gauge[string(enums.AggregateQuotation)]
	if quotations["new"] != 3 || quotations["purchased"] != 0 || len(quotations) != len(enums.QuotationStatuses()) {
		t.Fatalf("unexpected quotation backlog %v", quotations)
	}
	if gauge[string(enums.AggregateRegistrationPendency)]["pending"] != 2 {
		t.Fatalf("unexpected pendency backlog %v", gauge)
	}
	if gauge["outbox"]["unpublished"] != 5 || gauge["outbox"]["dead_lettered"] != 1 {
		t.Fatalf("unexpected outbox backlog %v", gauge["outbox"])
	}
}

func TestBacklogJobContinuesPastFailingSource(t *testing.T) {
	gauge := recordingGauge{}
	job, _ := NewBacklogJob(BacklogJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Quotations: fakeQuotationCounter{err: errors.New("db down")},
		Pendencies: fakePendencyCounter{counts: map[enums.PendencyStatus]int64{}},
		Outbox:     fakeUnpublished(0),
		Gauge:      gauge,
	})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing source")
	}
	if _, ok := gauge[string(enums.AggregateRegistrationPendency)]; !ok {
		t.Fatal("pendency backlog should still be published")
	}
}
