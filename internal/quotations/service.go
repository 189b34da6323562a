package quotations

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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const aggregateName = "quotation"

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

// Service runs the quotation workflow. Every mutating call is one transaction
// that checks, in order: existence, transition legality, permission, input,
// and finally a compare-and-swap write.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Claim(ctx context.Context, input ClaimInput) (*QuotationDetail, error)
	Quote(ctx context.Context, input QuoteInput) (*QuotationDetail, error)
	Approve(ctx context.Context, input ApproveInput) (*QuotationDetail, error)
	Purchase(ctx context.Context, input PurchaseInput) (*QuotationDetail, error)
	Cancel(ctx context.Context, input CancelInput) (*QuotationDetail, error)
	EditItems(ctx context.Context, input EditItemsInput) (*QuotationDetail, error)
	Delete(ctx context.Context, input DeleteInput) error
	Get(ctx context.Context, id uuid.UUID, actor Actor) (*QuotationDetail, error)
	List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*QuotationList, error)
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

// NewService builds the quotation workflow service. metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, sequence sequenceAllocator, metrics transitionRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quotations repository required")
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

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	result, err := s.create(ctx, input)
	s.metrics.ObserveTransition(aggregateName, "create", err)
	return result, err
}

func (s *service) create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if err := checkActor(input.Actor); err != nil {
		return nil, err
	}
	if !input.Actor.Role.IsRequesterClass() && !input.Actor.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only requesters can open quotations")
	}

	orderRef := types.OptionalText(input.Header.OrderRef)
	budgetRef := types.OptionalText(input.Header.BudgetRef)
	client := types.OptionalText(input.Header.Client)
	if orderRef == nil && budgetRef == nil && client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one of order_ref, budget_ref or client is required")
	}

	// Invalid items are dropped rather than failing the request.
	valid := make([]ItemInput, 0, len(input.Items))
	for _, item := range input.Items {
		if ValidateItem(item) == nil {
			valid = append(valid, item)
		}
	}
	if len(valid) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one valid item is required")
	}

	now := s.now().UTC()
	quotation := &models.Quotation{
		ID:          uuid.New(),
		OrderRef:    orderRef,
		BudgetRef:   budgetRef,
		Client:      client,
		Status:      enums.QuotationStatusNew,
		RequesterID: input.Actor.ID,
		Notes:       types.OptionalText(input.Header.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := s.sequence.Next(ctx, tx, enums.CounterKindQuotation)
		if err != nil {
			return err
		}
		quotation.SequenceNumber = number

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, quotation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quotation")
		}
		items := make([]models.QuotationItem, 0, len(valid))
		for idx, item := range valid {
			items = append(items, newItem(item, quotation.ID, idx+1, now))
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quotation items")
		}

		return s.emit(ctx, tx, input.Actor, now, outbox.DomainEvent{
			EventType: enums.EventQuotationCreated,
			Data: payloads.QuotationCreatedEvent{
				QuotationID:    quotation.ID,
				SequenceNumber: number,
				RequesterID:    quotation.RequesterID,
				ItemCount:      len(items),
				DroppedItems:   len(input.Items) - len(valid),
			},
		}, quotation.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logTransition(ctx, quotation.ID, "create", enums.QuotationStatusNew)
	return &CreateResult{
		ID:             quotation.ID,
		SequenceNumber: quotation.SequenceNumber,
		Status:         quotation.Status,
		ItemCount:      len(valid),
		DroppedItems:   len(input.Items) - len(valid),
	}, nil
}

func (s *service) Claim(ctx context.Context, input ClaimInput) (*QuotationDetail, error) {
	return s.apply(ctx, input.QuotationID, input.Actor, enums.QuotationActionClaim,
		func(ctx context.Context, repo Repository, q *models.Quotation, now time.Time) (*outbox.DomainEvent, error) {
			if q.BuyerID != nil {
				if *q.BuyerID == input.Actor.ID {
					return nil, nil
				}
				return nil, errAlreadyClaimed()
			}
			ok, err := repo.ClaimIfUnclaimed(ctx, q.ID, q.Status, input.Actor.ID, now)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim quotation")
			}
			if !ok {
				return nil, errAlreadyClaimed()
			}
			buyer := input.Actor.ID
			return transitionEvent(enums.EventQuotationClaimed, q, enums.QuotationStatusQuoting, &buyer, nil, nil, nil), nil
		})
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*QuotationDetail, error) {
	return s.apply(ctx, input.QuotationID, input.Actor, enums.QuotationActionQuote,
		func(ctx context.Context, repo Repository, q *models.Quotation, now time.Time) (*outbox.DomainEvent, error) {
			byID := make(map[uuid.UUID]*models.QuotationItem, len(q.Items))
			for i := range q.Items {
				byID[q.Items[i].ID] = &q.Items[i]
			}
			touched := make([]*models.QuotationItem, 0, len(input.Items))
			for _, resp := range input.Items {
				item, ok := byID[resp.ItemID]
				if !ok {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("quotation item %s not found", resp.ItemID))
				}
				applyResponse(item, resp)
				touched = append(touched, item)
			}
			if err := ValidateForQuote(q.Items); err != nil {
				return nil, err
			}

			updates := map[string]any{
				"status":     enums.QuotationStatusQuoted,
				"quoted_at":  now,
				"updated_at": now,
			}
			if input.Notes != nil {
				updates["notes"] = types.OptionalText(input.Notes)
			}
			if err := s.swap(ctx, repo, q, updates); err != nil {
				return nil, err
			}
			for _, item := range touched {
				if err := repo.UpdateItem(ctx, q.ID, item.ID, map[string]any{
					"unit_price":    item.UnitPrice,
					"delivery_term": item.DeliveryTerm,
					"supplier":      item.Supplier,
					"catalog_code":  item.CatalogCode,
					"notes":         item.Notes,
					"updated_at":    now,
				}); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quoted item")
				}
			}
			total := Total(q.Items)
			return transitionEvent(enums.EventQuotationQuoted, q, enums.QuotationStatusQuoted, q.BuyerID, &total, types.OptionalText(input.Notes), nil), nil
		})
}

func (s *service) Approve(ctx context.Context, input ApproveInput) (*QuotationDetail, error) {
	return s.apply(ctx, input.QuotationID, input.Actor, enums.QuotationActionApprove,
		func(ctx context.Context, repo Repository, q *models.Quotation, now time.Time) (*outbox.DomainEvent, error) {
			notes := types.OptionalText(input.Notes)
			if err := s.swap(ctx, repo, q, map[string]any{
				"status":         enums.QuotationStatusApprovedForPurchase,
				"approved_at":    now,
				"approved_by":    input.Actor.ID,
				"approval_notes": notes,
				"updated_at":     now,
			}); err != nil {
				return nil, err
			}
			total := Total(q.Items)
			return transitionEvent(enums.EventQuotationApproved, q, enums.QuotationStatusApprovedForPurchase, q.BuyerID, &total, notes, nil), nil
		})
}

func (s *service) Purchase(ctx context.Context, input PurchaseInput) (*QuotationDetail, error) {
	return s.apply(ctx, input.QuotationID, input.Actor, enums.QuotationActionPurchase,
		func(ctx context.Context, repo Repository, q *models.Quotation, now time.Time) (*outbox.DomainEvent, error) {
			notes := types.OptionalText(input.Notes)
			if err := s.swap(ctx, repo, q, map[string]any{
				"status":         enums.QuotationStatusPurchased,
				"purchased_at":   now,
				"purchased_by":   input.Actor.ID,
				"purchase_notes": notes,
				"updated_at":     now,
			}); err != nil {
				return nil, err
			}
			total := Total(q.Items)
			return transitionEvent(enums.EventQuotationPurchased, q, enums.QuotationStatusPurchased, q.BuyerID, &total, notes, nil), nil
		})
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*QuotationDetail, error) {
	return s.apply(ctx, input.QuotationID, input.Actor, enums.QuotationActionCancel,
		func(ctx context.Context, repo Repository, q *models.Quotation, now time.Time) (*outbox.DomainEvent, error) {
			reason := strings.TrimSpace(input.Reason)
			if reason == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancel reason is required")
			}
			if err := s.swap(ctx, repo, q, map[string]any{
				"status":        enums.QuotationStatusCancelled,
				"cancel_reason": reason,
				"cancelled_at":  now,
				"cancelled_by":  input.Actor.ID,
				"updated_at":    now,
			}); err != nil {
				return nil, err
			}
			return transitionEvent(enums.EventQuotationCancelled, q, enums.QuotationStatusCancelled, q.BuyerID, nil, nil, &reason), nil
		})
}

func (s *service) EditItems(ctx context.Context, input EditItemsInput) (*QuotationDetail, error) {
	return s.apply(ctx, input.QuotationID, input.Actor, enums.QuotationActionEdit,
		func(ctx context.Context, repo Repository, q *models.Quotation, now time.Time) (*outbox.DomainEvent, error) {
			if len(input.Items) == 0 && len(input.RemovedItemIDs) == 0 && input.Notes == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to edit")
			}

			existing := make(map[uuid.UUID]struct{}, len(q.Items))
			maxPosition := 0
			for _, item := range q.Items {
				existing[item.ID] = struct{}{}
				if item.Position > maxPosition {
					maxPosition = item.Position
				}
			}
			removed := make(map[uuid.UUID]struct{}, len(input.RemovedItemIDs))
			for _, id := range input.RemovedItemIDs {
				if _, ok := existing[id]; !ok {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("quotation item %s not found", id))
				}
				removed[id] = struct{}{}
			}
			added := 0
			for _, item := range input.Items {
				if item.ID == nil {
					added++
					continue
				}
				if _, ok := existing[*item.ID]; !ok {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("quotation item %s not found", *item.ID))
				}
				if _, ok := removed[*item.ID]; ok {
					return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quotation item %s is both updated and removed", *item.ID))
				}
			}
			if err := ValidateItems(input.Items); err != nil {
				return nil, err
			}
			remaining := len(existing) - len(removed) + added
			if remaining == 0 {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "a quotation must keep at least one item")
			}

			// Only the requester (or an admin) decides which parts need registering.
			setsRegistration := q.RequesterID == input.Actor.ID || input.Actor.Role.IsAdmin()

			updates := map[string]any{"updated_at": now}
			if input.Notes != nil {
				updates["notes"] = types.OptionalText(input.Notes)
			}
			if err := s.swap(ctx, repo, q, updates); err != nil {
				return nil, err
			}

			removedIDs := make([]uuid.UUID, 0, len(removed))
			for id := range removed {
				removedIDs = append(removedIDs, id)
			}
			if err := repo.DeleteItems(ctx, q.ID, removedIDs); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove quotation items")
			}

			newItems := make([]models.QuotationItem, 0, added)
			for _, item := range input.Items {
				if item.ID == nil {
					if !setsRegistration {
						item.NeedsRegistration = false
					}
					maxPosition++
					newItems = append(newItems, newItem(item, q.ID, maxPosition, now))
					continue
				}
				if err := repo.UpdateItem(ctx, q.ID, *item.ID, itemUpdates(item, now, setsRegistration)); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quotation item")
				}
			}
			if err := repo.CreateItems(ctx, newItems); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add quotation items")
			}

			return &outbox.DomainEvent{
				EventType: enums.EventQuotationItemsEdited,
				Data: payloads.QuotationItemsEditedEvent{
					QuotationID:    q.ID,
					SequenceNumber: q.SequenceNumber,
					Status:         q.Status,
					Added:          added,
					Updated:        len(input.Items) - added,
					Removed:        len(removedIDs),
					ItemCount:      remaining,
				},
			}, nil
		})
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	_, err := s.apply(ctx, input.QuotationID, input.Actor, enums.QuotationActionDelete,
		func(ctx context.Context, repo Repository, q *models.Quotation, _ time.Time) (*outbox.DomainEvent, error) {
			ok, err := repo.DeleteIfStatus(ctx, q.ID, q.Status)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete quotation")
			}
			if !ok {
				return nil, errChangedConcurrently()
			}
			return &outbox.DomainEvent{
				EventType: enums.EventQuotationDeleted,
				Data: payloads.QuotationDeletedEvent{
					QuotationID:    q.ID,
					SequenceNumber: q.SequenceNumber,
					RequesterID:    q.RequesterID,
				},
			}, nil
		})
	return err
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*QuotationDetail, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load quotation")
	}
	if actor.Role.IsRequesterClass() && q.RequesterID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "quotation belongs to another requester")
	}
	return toDetail(q), nil
}

func (s *service) List(ctx context.Context, actor Actor, filters ListFilters, params pagination.Params) (*QuotationList, error) {
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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotations")
	}
	return list, nil
}

type mutation func(ctx context.Context, repo Repository, q *models.Quotation, now time.Time) (*outbox.DomainEvent, error)

// apply runs one guarded transition inside a transaction and returns the
// reloaded quotation. A mutation returning no event made no change.
func (s *service) apply(ctx context.Context, id uuid.UUID, actor Actor, action enums.QuotationAction, mutate mutation) (*QuotationDetail, error) {
	detail, err := s.applyTx(ctx, id, actor, action, mutate)
	s.metrics.ObserveTransition(aggregateName, string(action), err)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) applyTx(ctx context.Context, id uuid.UUID, actor Actor, action enums.QuotationAction, mutate mutation) (*QuotationDetail, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quotation id required")
	}

	var (
		detail  *QuotationDetail
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		q, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "load quotation")
		}
		if !CanTransition(q.Status, action) {
			return invalidTransition(q.Status, action)
		}
		isBuyer := q.BuyerID != nil && *q.BuyerID == actor.ID
		if err := Authorize(q.Status, action, actor.Role, q.RequesterID == actor.ID, isBuyer); err != nil {
			return err
		}

		now := s.now().UTC()
		event, err := mutate(ctx, repo, q, now)
		if err != nil {
			return err
		}
		if event != nil {
			changed = true
			if err := s.emit(ctx, tx, actor, now, *event, q.ID); err != nil {
				return err
			}
		}
		if action == enums.QuotationActionDelete {
			return nil
		}

		reloaded, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload quotation")
		}
		detail = toDetail(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		status := TargetStatus("", action)
		if detail != nil {
			status = detail.Status
		}
		s.logTransition(ctx, id, string(action), status)
	}
	return detail, nil
}

// swap writes updates only if the quotation still holds the status it was
// loaded with.
func (s *service) swap(ctx context.Context, repo Repository, q *models.Quotation, updates map[string]any) error {
	ok, err := repo.UpdateIfStatus(ctx, q.ID, q.Status, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quotation")
	}
	if !ok {
		return errChangedConcurrently()
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor Actor, at time.Time, event outbox.DomainEvent, quotationID uuid.UUID) error {
	event.AggregateType = enums.AggregateQuotation
	event.AggregateID = quotationID
	event.Version = 1
	event.OccurredAt = at
	event.Actor = &outbox.ActorRef{UserID: actor.ID, Role: actor.Role.String()}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue quotation event")
	}
	return nil
}

func (s *service) logTransition(ctx context.Context, id uuid.UUID, action string, status enums.QuotationStatus) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithQuotationID(ctx, id.String())
	ctx = s.logg.WithFields(ctx, map[string]any{"action": action, "status": status})
	s.logg.Info(ctx, "quotation transition committed")
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
		return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func errAlreadyClaimed() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "quotation already claimed")
}

func errChangedConcurrently() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "quotation was changed by another request")
}

func transitionEvent(eventType enums.OutboxEventType, q *models.Quotation, to enums.QuotationStatus, buyer *uuid.UUID, total *decimal.Decimal, notes, reason *string) *outbox.DomainEvent {
	return &outbox.DomainEvent{
		EventType: eventType,
		Data: payloads.QuotationTransitionEvent{
			QuotationID:    q.ID,
			SequenceNumber: q.SequenceNumber,
			From:           q.Status,
			To:             to,
			RequesterID:    q.RequesterID,
			BuyerID:        buyer,
			Total:          total,
			Notes:          notes,
			Reason:         reason,
		},
	}
}

func applyResponse(item *models.QuotationItem, resp ItemResponse) {
	if resp.UnitPrice != nil {
		item.UnitPrice = decimal.NewNullDecimal(*resp.UnitPrice)
	}
	if resp.DeliveryTerm != nil {
		item.DeliveryTerm = types.OptionalText(resp.DeliveryTerm)
	}
	if resp.Supplier != nil {
		item.Supplier = types.OptionalText(resp.Supplier)
	}
	if resp.CatalogCode != nil {
		item.CatalogCode = types.OptionalText(resp.CatalogCode)
	}
	if resp.Notes != nil {
		item.Notes = types.OptionalText(resp.Notes)
	}
}

func newItem(in ItemInput, quotationID uuid.UUID, position int, now time.Time) models.QuotationItem {
	return models.QuotationItem{
		ID:                uuid.New(),
		QuotationID:       quotationID,
		Position:          position,
		PartCode:          strings.TrimSpace(in.PartCode),
		Description:       strings.TrimSpace(in.Description),
		Quantity:          in.Quantity,
		UnitPrice:         nullDecimal(in.UnitPrice),
		DeliveryTerm:      types.OptionalText(in.DeliveryTerm),
		Supplier:          types.OptionalText(in.Supplier),
		Notes:             types.OptionalText(in.Notes),
		NeedsRegistration: in.NeedsRegistration,
		CatalogCode:       types.OptionalText(in.CatalogCode),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func itemUpdates(in ItemInput, now time.Time, setsRegistration bool) map[string]any {
	updates := map[string]any{
		"part_code":          strings.TrimSpace(in.PartCode),
		"description":        strings.TrimSpace(in.Description),
		"quantity":           in.Quantity,
		"unit_price":         nullDecimal(in.UnitPrice),
		"delivery_term":      types.OptionalText(in.DeliveryTerm),
		"supplier":           types.OptionalText(in.Supplier),
		"notes":              types.OptionalText(in.Notes),
		"needs_registration": in.NeedsRegistration,
		"catalog_code":       types.OptionalText(in.CatalogCode),
		"updated_at":         now,
	}
	if !setsRegistration {
		delete(updates, "needs_registration")
	}
	return updates
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*value)
}
