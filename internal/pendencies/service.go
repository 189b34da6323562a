package pendencies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/repairops-backend/pkg/db/models"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	"github.com/angelmondragon/repairops-backend/pkg/outbox"
	"github.com/angelmondragon/repairops-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
	"github.com/angelmondragon/repairops-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const aggregateName = "registration_pendency"

// maxGroupParts bounds a grouped request so one call cannot hold the counter
// row for long.
const maxGroupParts = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sequenceAllocator interface {
	Next(ctx context.Context, tx *gorm.DB, kind enums.CounterKind) (int64, error)
}

type transitionRecorder interface {
	ObserveTransition(aggregate, action string, err error)
}

// Service runs the registration pendency workflow.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*PendencyDetail, error)
	CreateGroup(ctx context.Context, input CreateGroupInput) (*GroupResult, error)
	Start(ctx context.Context, input StartInput) (*PendencyDetail, error)
	Answer(ctx context.Context, input AnswerInput) (*PendencyDetail, error)
	Complete(ctx context.Context, input CompleteInput) (*PendencyDetail, error)
	Reject(ctx context.Context, input RejectInput) (*PendencyDetail, error)
	Delete(ctx context.Context, input DeleteInput) error
	Get(ctx context.Context, id uuid.UUID, actor Actor) (*PendencyDetail, error)
	List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*PendencyList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	sequence sequenceAllocator
	metrics  transitionRecorder
	logg     *logger.Logger
	now      func() time.Time
}

type noopRecorder struct{}

func (noopRecorder) ObserveTransition(string, string, error) {}

// NewService builds the pendency workflow service. metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, sequence sequenceAllocator, metrics transitionRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pendencies repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if sequence == nil {
		return nil, fmt.Errorf("sequence allocator required")
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outbox,
		sequence: sequence,
		metrics:  metrics,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*PendencyDetail, error) {
	var created []PendencyDetail
	err := s.createParts(ctx, input.Actor, nil, nil, []PartInput{input.Part}, &created)
	s.metrics.ObserveTransition(aggregateName, "create", err)
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

func (s *service) CreateGroup(ctx context.Context, input CreateGroupInput) (*GroupResult, error) {
	result, err := s.createGroup(ctx, input)
	s.metrics.ObserveTransition(aggregateName, "create_group", err)
	return result, err
}

func (s *service) createGroup(ctx context.Context, input CreateGroupInput) (*GroupResult, error) {
	label := strings.TrimSpace(input.GroupLabel)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group_label is required")
	}
	if len(input.Parts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one part is required")
	}
	if len(input.Parts) > maxGroupParts {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "a group holds at most %d parts", maxGroupParts)
	}
	var created []PendencyDetail
	if err := s.createParts(ctx, input.Actor, &label, types.OptionalText(input.Notes), input.Parts, &created); err != nil {
		return nil, err
	}
	return &GroupResult{GroupLabel: label, Pendencies: created}, nil
}

// createParts persists one pendency per part in a single transaction, each
// with its own sequence number.
func (s *service) createParts(ctx context.Context, actor Actor, label, sharedNotes *string, parts []PartInput, out *[]PendencyDetail) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	if err := ValidateParts(parts); err != nil {
		return err
	}

	now := s.now().UTC()
	rows := make([]models.RegistrationPendency, 0, len(parts))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, part := range parts {
			number, err := s.sequence.Next(ctx, tx, enums.CounterKindRegistrationPendency)
			if err != nil {
				return err
			}
			row := models.RegistrationPendency{
				ID:             uuid.New(),
				SequenceNumber: number,
				PartCode:       strings.TrimSpace(part.PartCode),
				Description:    strings.TrimSpace(part.Description),
				Brand:          types.OptionalText(part.Brand),
				Notes:          combineNotes(sharedNotes, types.OptionalText(part.Notes)),
				AttachmentRef:  types.OptionalText(part.AttachmentRef),
				GroupLabel:     label,
				Status:         enums.PendencyStatusPending,
				RequesterID:    actor.ID,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := repo.Create(ctx, &row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pendency")
			}
			if err := s.emit(ctx, tx, actor, now, row.ID, outbox.DomainEvent{
				EventType: enums.EventPendencyCreated,
				Data: payloads.PendencyCreatedEvent{
					PendencyID:     row.ID,
					SequenceNumber: number,
					PartCode:       row.PartCode,
					GroupLabel:     label,
					RequesterID:    actor.ID,
				},
			}); err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return err
	}

	details := make([]PendencyDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, toDetail(row))
		s.logTransition(ctx, row.ID, "create", row.Status)
	}
	*out = details
	return nil
}

func (s *service) Start(ctx context.Context, input StartInput) (*PendencyDetail, error) {
	return s.apply(ctx, input.PendencyID, input.Actor, enums.PendencyActionStart,
		func(ctx context.Context, repo Repository, p *models.RegistrationPendency, now time.Time) (*outbox.DomainEvent, error) {
			resolver := input.Actor.ID
			if err := swap(ctx, repo, p, map[string]any{
				"status":      enums.PendencyStatusInProgress,
				"resolver_id": resolver,
				"started_at":  now,
				"updated_at":  now,
			}); err != nil {
				return nil, err
			}
			return transitionEvent(enums.EventPendencyStarted, p, enums.PendencyStatusInProgress, &resolver, nil, nil), nil
		})
}

func (s *service) Answer(ctx context.Context, input AnswerInput) (*PendencyDetail, error) {
	return s.apply(ctx, input.PendencyID, input.Actor, enums.PendencyActionAnswer,
		func(ctx context.Context, repo Repository, p *models.RegistrationPendency, now time.Time) (*outbox.DomainEvent, error) {
			code := strings.TrimSpace(input.CatalogCode)
			if code == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog_code is required")
			}
			resolver := resolverFor(p, input.Actor)
			updates := map[string]any{
				"status":       enums.PendencyStatusAnswered,
				"catalog_code": code,
				"resolver_id":  resolver,
				"answered_at":  now,
				"updated_at":   now,
			}
			if notes := types.OptionalText(input.Notes); notes != nil {
				updates["notes"] = combineNotes(p.Notes, notes)
			}
			if err := swap(ctx, repo, p, updates); err != nil {
				return nil, err
			}
			return transitionEvent(enums.EventPendencyAnswered, p, enums.PendencyStatusAnswered, &resolver, &code, nil), nil
		})
}

func (s *service) Complete(ctx context.Context, input CompleteInput) (*PendencyDetail, error) {
	return s.apply(ctx, input.PendencyID, input.Actor, enums.PendencyActionComplete,
		func(ctx context.Context, repo Repository, p *models.RegistrationPendency, now time.Time) (*outbox.DomainEvent, error) {
			if err := swap(ctx, repo, p, map[string]any{
				"status":       enums.PendencyStatusCompleted,
				"completed_at": now,
				"updated_at":   now,
			}); err != nil {
				return nil, err
			}
			return transitionEvent(enums.EventPendencyCompleted, p, enums.PendencyStatusCompleted, p.ResolverID, p.CatalogCode, nil), nil
		})
}

func (s *service) Reject(ctx context.Context, input RejectInput) (*PendencyDetail, error) {
	return s.apply(ctx, input.PendencyID, input.Actor, enums.PendencyActionReject,
		func(ctx context.Context, repo Repository, p *models.RegistrationPendency, now time.Time) (*outbox.DomainEvent, error) {
			reason := strings.TrimSpace(input.Reason)
			if reason == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "reject reason is required")
			}
			resolver := resolverFor(p, input.Actor)
			if err := swap(ctx, repo, p, map[string]any{
				"status":        enums.PendencyStatusRejected,
				"reject_reason": reason,
				"resolver_id":   resolver,
				"rejected_at":   now,
				"updated_at":    now,
			}); err != nil {
				return nil, err
			}
			return transitionEvent(enums.EventPendencyRejected, p, enums.PendencyStatusRejected, &resolver, nil, &reason), nil
		})
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	_, err := s.apply(ctx, input.PendencyID, input.Actor, enums.PendencyActionDelete,
		func(ctx context.Context, repo Repository, p *models.RegistrationPendency, _ time.Time) (*outbox.DomainEvent, error) {
			ok, err := repo.DeleteIfStatus(ctx, p.ID, p.Status)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pendency")
			}
			if !ok {
				return nil, errChangedConcurrently()
			}
			return &outbox.DomainEvent{
				EventType: enums.EventPendencyDeleted,
				Data: payloads.PendencyDeletedEvent{
					PendencyID:     p.ID,
					SequenceNumber: p.SequenceNumber,
					RequesterID:    p.RequesterID,
				},
			}, nil
		})
	return err
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*PendencyDetail, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load pendency")
	}
	if actor.Role.IsRequesterClass() && p.RequesterID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pendency belongs to another requester")
	}
	detail := toDetail(*p)
	return &detail, nil
}

func (s *service) List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*PendencyList, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if actor.Role.IsRequesterClass() {
		self := actor.ID
		filters.RequesterID = &self
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateFrom.After(*filters.DateTo) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date_from must not be after date_to")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pendencies")
	}
	return list, nil
}

type mutation func(ctx context.Context, repo Repository, p *models.RegistrationPendency, now time.Time) (*outbox.DomainEvent, error)

func (s *service) apply(ctx context.Context, id uuid.UUID, actor Actor, action enums.PendencyAction, mutate mutation) (*PendencyDetail, error) {
	detail, err := s.applyTx(ctx, id, actor, action, mutate)
	s.metrics.ObserveTransition(aggregateName, string(action), err)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) applyTx(ctx context.Context, id uuid.UUID, actor Actor, action enums.PendencyAction, mutate mutation) (*PendencyDetail, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pendency id required")
	}

	var detail *PendencyDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		p, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "load pendency")
		}
		if !CanTransition(p.Status, action) {
			return invalidTransition(p.Status, action)
		}
		hasResolver := p.ResolverID != nil
		isResolver := hasResolver && *p.ResolverID == actor.ID
		if err := Authorize(p.Status, action, actor.Role, p.RequesterID == actor.ID, isResolver, hasResolver); err != nil {
			return err
		}

		now := s.now().UTC()
		event, err := mutate(ctx, repo, p, now)
		if err != nil {
			return err
		}
		if err := s.emit(ctx, tx, actor, now, p.ID, *event); err != nil {
			return err
		}
		if action == enums.PendencyActionDelete {
			return nil
		}

		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload pendency")
		}
		d := toDetail(*reloaded)
		detail = &d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, id, string(action), TargetStatus(action))
	return detail, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor Actor, at time.Time, pendencyID uuid.UUID, event outbox.DomainEvent) error {
	event.AggregateType = enums.AggregateRegistrationPendency
	event.AggregateID = pendencyID
	event.Version = 1
	event.OccurredAt = at
	event.Actor = &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue pendency event")
	}
	return nil
}

func (s *service) logTransition(ctx context.Context, id uuid.UUID, action string, status enums.PendencyStatus) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithPendencyID(ctx, id.String())
	fields := map[string]any{"action": action}
	if status != "" {
		fields["status"] = status
	}
	ctx = s.logg.WithFields(ctx, fields)
	s.logg.Info(ctx, "pendency transition committed")
}

func swap(ctx context.Context, repo Repository, p *models.RegistrationPendency, updates map[string]any) error {
	ok, err := repo.UpdateIfStatus(ctx, p.ID, p.Status, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pendency")
	}
	if !ok {
		return errChangedConcurrently()
	}
	return nil
}

// resolverFor keeps the resolver who started the work; otherwise the actor
// resolving it becomes the resolver.
func resolverFor(p *models.RegistrationPendency, actor Actor) uuid.UUID {
	if p.ResolverID != nil {
		return *p.ResolverID
	}
	return actor.ID
}

func combineNotes(shared, own *string) *string {
	switch {
	case shared == nil:
		return own
	case own == nil:
		return shared
	default:
		combined := *shared + "\n" + *own
		return &combined
	}
}

func checkActor(actor Actor) error {
	if actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !actor.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pendency not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func errChangedConcurrently() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "pendency was changed by another request")
}

func transitionEvent(eventType enums.OutboxEventType, p *models.RegistrationPendency, to enums.PendencyStatus, resolver *uuid.UUID, catalogCode, reason *string) *outbox.DomainEvent {
	return &outbox.DomainEvent{
		EventType: eventType,
		Data: payloads.PendencyTransitionEvent{
			PendencyID:     p.ID,
			SequenceNumber: p.SequenceNumber,
			From:           p.Status,
			To:             to,
			RequesterID:    p.RequesterID,
			ResolverID:     resolver,
			CatalogCode:    catalogCode,
			Reason:         reason,
		},
	}
}
