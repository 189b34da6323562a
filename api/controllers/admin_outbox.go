package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/repairops-backend/api/responses"
	"github.com/angelmondragon/repairops-backend/api/validators"
	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
)

// DLQReader reads dead-lettered outbox events.
type DLQReader interface {
	List(ctx context.Context, filter outbox.DLQFilter) ([]models.OutboxDLQ, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error)
}

type dlqEntry struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	ErrorReason   string          `json:"error_reason"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	AttemptCount  int             `json:"attempt_count"`
	FailedAt      time.Time       `json:"failed_at"`
}

func toDLQEntry(row models.OutboxDLQ) dlqEntry {
	return dlqEntry{
		EventID:       row.EventID,
		EventType:     string(row.EventType),
		AggregateType: string(row.AggregateType),
		AggregateID:   row.AggregateID,
		Payload:       row.Payload,
		ErrorReason:   string(row.ErrorReason),
		ErrorMessage:  row.ErrorMessage,
		AttemptCount:  row.AttemptCount,
		FailedAt:      row.FailedAt,
	}
}

func buildDLQFilter(r *http.Request) (outbox.DLQFilter, error) {
	var filter outbox.DLQFilter
	limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	if raw := strings.TrimSpace(r.URL.Query().Get("aggregate_type")); raw != "" {
		aggregate := enums.OutboxAggregateType(raw)
		if !aggregate.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid aggregate_type")
		}
		filter.AggregateType = &aggregate
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("reason")); raw != "" {
		reason := enums.OutboxDLQErrorReason(raw)
		if !reason.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid reason")
		}
		filter.Reason = &reason
	}
	if filter.AggregateID, err = validators.ParseQueryUUID(r, "aggregate_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

// AdminOutboxDLQList returns the most recent dead-lettered events.
func AdminOutboxDLQList(repo DLQReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dlq repository unavailable"))
			return
		}
		filter, err := buildDLQFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := repo.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list dlq"))
			return
		}
		out := make([]dlqEntry, 0, len(rows))
		for _, row := range rows {
			out = append(out, toDLQEntry(row))
		}
		responses.WriteSuccess(w, map[string]any{"events": out})
	}
}

func AdminOutboxDLQDetail(repo DLQReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dlq repository unavailable"))
			return
		}
		eventID, err := validators.ParsePathUUID(r, "eventId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := repo.FindByEventID(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dlq event"))
			return
		}
		if row == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "dlq event not found"))
			return
		}
		responses.WriteSuccess(w, toDLQEntry(*row))
	}
}
