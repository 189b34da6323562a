package quotations

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/repairops-backend/api/middleware"
	"github.com/angelmondragon/repairops-backend/api/responses"
	"github.com/angelmondragon/repairops-backend/api/validators"
	internalquotations "github.com/angelmondragon/repairops-backend/internal/quotations"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
)

type itemRequest struct {
	ID                *uuid.UUID       `json:"id"`
	PartCode          string           `json:"part_code"`
	Description       string           `json:"description"`
	Quantity          int              `json:"quantity"`
	UnitPrice         *decimal.Decimal `json:"unit_price"`
	DeliveryTerm      *string          `json:"delivery_term"`
	Supplier          *string          `json:"supplier"`
	Notes             *string          `json:"notes"`
	NeedsRegistration bool             `json:"needs_registration"`
	CatalogCode       *string          `json:"catalog_code"`
}

type createRequest struct {
	OrderRef  *string       `json:"order_ref" validate:"omitempty,max=120"`
	BudgetRef *string       `json:"budget_ref" validate:"omitempty,max=120"`
	Client    *string       `json:"client" validate:"omitempty,max=200"`
	Notes     *string       `json:"notes"`
	Items     []itemRequest `json:"items"`
}

type responseItem struct {
	ItemID       uuid.UUID        `json:"item_id"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	DeliveryTerm *string          `json:"delivery_term"`
	Supplier     *string          `json:"supplier"`
	CatalogCode  *string          `json:"catalog_code"`
	Notes        *string          `json:"notes"`
}

type quoteRequest struct {
	Items []responseItem `json:"items"`
	Notes *string        `json:"notes"`
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type editItemsRequest struct {
	Items          []itemRequest `json:"items"`
	RemovedItemIDs []uuid.UUID   `json:"removed_item_ids"`
	Notes          *string       `json:"notes"`
}

// Create opens a quotation. Items failing validation are dropped and counted
// in the response.
func Create(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), internalquotations.CreateInput{
			Header: internalquotations.HeaderInput{
				OrderRef:  payload.OrderRef,
				BudgetRef: payload.BudgetRef,
				Client:    payload.Client,
				Notes:     payload.Notes,
			},
			Items: toItemInputs(payload.Items),
			Actor: actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// List returns a page of quotations visible to the caller.
func List(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.List(r.Context(), actor, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Get(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Claim(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Claim(r.Context(), internalquotations.ClaimInput{QuotationID: id, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Quote records the buyer's answers and moves the quotation to quoted.
func Quote(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		answers := make([]internalquotations.ItemResponse, 0, len(payload.Items))
		for _, item := range payload.Items {
			answers = append(answers, internalquotations.ItemResponse{
				ItemID:       item.ItemID,
				UnitPrice:    item.UnitPrice,
				DeliveryTerm: item.DeliveryTerm,
				Supplier:     item.Supplier,
				CatalogCode:  item.CatalogCode,
				Notes:        item.Notes,
			})
		}
		detail, err := svc.Quote(r.Context(), internalquotations.QuoteInput{
			QuotationID: id,
			Actor:       actor,
			Items:       answers,
			Notes:       payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Approve(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := decodeOptionalNotes(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Approve(r.Context(), internalquotations.ApproveInput{QuotationID: id, Actor: actor, Notes: payload.Notes})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Purchase(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := decodeOptionalNotes(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Purchase(r.Context(), internalquotations.PurchaseInput{QuotationID: id, Actor: actor, Notes: payload.Notes})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Cancel(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Cancel(r.Context(), internalquotations.CancelInput{QuotationID: id, Actor: actor, Reason: payload.Reason})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// EditItems merges the submitted items into the quotation in one step.
func EditItems(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload editItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.EditItems(r.Context(), internalquotations.EditItemsInput{
			QuotationID:    id,
			Actor:          actor,
			Items:          toItemInputs(payload.Items),
			RemovedItemIDs: payload.RemovedItemIDs,
			Notes:          payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Delete(svc internalquotations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quotations service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), internalquotations.DeleteInput{QuotationID: id, Actor: actor}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actorFromRequest(r *http.Request) (internalquotations.Actor, error) {
	id, role, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		return internalquotations.Actor{}, err
	}
	return internalquotations.Actor{ID: id, Role: role}, nil
}

func actorAndID(r *http.Request) (internalquotations.Actor, uuid.UUID, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return actor, uuid.Nil, err
	}
	id, err := validators.ParsePathUUID(r, "quotationId")
	if err != nil {
		return actor, uuid.Nil, err
	}
	return actor, id, nil
}

// decodeOptionalNotes tolerates an empty body for approve and purchase.
func decodeOptionalNotes(r *http.Request) (notesRequest, error) {
	var payload notesRequest
	err := validators.DecodeOptionalJSONBody(r, &payload)
	return payload, err
}

func toItemInputs(items []itemRequest) []internalquotations.ItemInput {
	out := make([]internalquotations.ItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, internalquotations.ItemInput{
			ID:                item.ID,
			PartCode:          item.PartCode,
			Description:       item.Description,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			DeliveryTerm:      item.DeliveryTerm,
			Supplier:          item.Supplier,
			Notes:             item.Notes,
			NeedsRegistration: item.NeedsRegistration,
			CatalogCode:       item.CatalogCode,
		})
	}
	return out
}

func buildListFilters(r *http.Request) (internalquotations.ListFilters, error) {
	var filters internalquotations.ListFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseQuotationStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}

	var err error
	if filters.RequesterID, err = validators.ParseQueryUUID(r, "requester_id"); err != nil {
		return filters, err
	}
	if filters.BuyerID, err = validators.ParseQueryUUID(r, "buyer_id"); err != nil {
		return filters, err
	}
	if filters.DateFrom, err = validators.ParseQueryTime(r, "date_from", false); err != nil {
		return filters, err
	}
	if filters.DateTo, err = validators.ParseQueryTime(r, "date_to", true); err != nil {
		return filters, err
	}
	if filters.IncludeHistory, err = validators.ParseQueryBool(r, "include_history"); err != nil {
		return filters, err
	}
	filters.Query = validators.SanitizeString(query.Get("q"), 200)
	return filters, nil
}
