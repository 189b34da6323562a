package pendencies

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/repairops-backend/api/middleware"
	"github.com/angelmondragon/repairops-backend/api/responses"
	"github.com/angelmondragon/repairops-backend/api/validators"
	internalpendencies "github.com/angelmondragon/repairops-backend/internal/pendencies"
	"github.com/angelmondragon/repairops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/repairops-backend/pkg/errors"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
	"github.com/angelmondragon/repairops-backend/pkg/pagination"
)

type partRequest struct {
	PartCode      string  `json:"part_code"`
	Description   string  `json:"description"`
	Brand         *string `json:"brand"`
	Notes         *string `json:"notes"`
	AttachmentRef *string `json:"attachment_ref"`
}

// createRequest carries either a single part inline or a labelled group in
// Parts. Notes is the part's notes for a single pendency and the shared notes
// for a group.
type createRequest struct {
	PartCode      string        `json:"part_code"`
	Description   string        `json:"description"`
	Brand         *string       `json:"brand"`
	Notes         *string       `json:"notes"`
	AttachmentRef *string       `json:"attachment_ref"`
	GroupLabel    *string       `json:"group_label" validate:"omitempty,max=200"`
	Parts         []partRequest `json:"parts"`
}

func (c createRequest) grouped() bool {
	return c.GroupLabel != nil || len(c.Parts) > 0
}

type answerRequest struct {
	CatalogCode string  `json:"catalog_code"`
	Notes       *string `json:"notes"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Create registers one pendency, or one per part when the body is grouped.
func Create(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
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

		if !payload.grouped() {
			detail, err := svc.Create(r.Context(), internalpendencies.CreateInput{
				Part: internalpendencies.PartInput{
					PartCode:      payload.PartCode,
					Description:   payload.Description,
					Brand:         payload.Brand,
					Notes:         payload.Notes,
					AttachmentRef: payload.AttachmentRef,
				},
				Actor: actor,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, detail)
			return
		}

		if payload.PartCode != "" || payload.Description != "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "grouped requests list their parts under parts"))
			return
		}
		label := ""
		if payload.GroupLabel != nil {
			label = *payload.GroupLabel
		}
		parts := make([]internalpendencies.PartInput, 0, len(payload.Parts))
		for _, part := range payload.Parts {
			parts = append(parts, internalpendencies.PartInput{
				PartCode:      part.PartCode,
				Description:   part.Description,
				Brand:         part.Brand,
				Notes:         part.Notes,
				AttachmentRef: part.AttachmentRef,
			})
		}
		result, err := svc.CreateGroup(r.Context(), internalpendencies.CreateGroupInput{
			GroupLabel: label,
			Notes:      payload.Notes,
			Parts:      parts,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func List(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
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
		list, err := svc.List(r.Context(), actor, filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Get(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
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

func Start(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Start(r.Context(), internalpendencies.StartInput{PendencyID: id, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Answer records the catalog code assigned to the part.
func Answer(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload answerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Answer(r.Context(), internalpendencies.AnswerInput{
			PendencyID:  id,
			Actor:       actor,
			CatalogCode: payload.CatalogCode,
			Notes:       payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Complete(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Complete(r.Context(), internalpendencies.CompleteInput{PendencyID: id, Actor: actor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Reject(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload rejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Reject(r.Context(), internalpendencies.RejectInput{PendencyID: id, Actor: actor, Reason: payload.Reason})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Delete(svc internalpendencies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pendencies service unavailable"))
			return
		}
		actor, id, err := actorAndID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), internalpendencies.DeleteInput{PendencyID: id, Actor: actor}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func actorFromRequest(r *http.Request) (internalpendencies.Actor, error) {
	id, role, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		return internalpendencies.Actor{}, err
	}
	return internalpendencies.Actor{ID: id, Role: role}, nil
}

func actorAndID(r *http.Request) (internalpendencies.Actor, uuid.UUID, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return actor, uuid.Nil, err
	}
	id, err := validators.ParsePathUUID(r, "pendencyId")
	if err != nil {
		return actor, uuid.Nil, err
	}
	return actor, id, nil
}

func buildListFilters(r *http.Request) (internalpendencies.ListFilters, error) {
	var filters internalpendencies.ListFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParsePendencyStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
	if label := strings.TrimSpace(query.Get("group_label")); label != "" {
		filters.GroupLabel = &label
	}

	var err error
	if filters.RequesterID, err = validators.ParseQueryUUID(r, "requester_id"); err != nil {
		return filters, err
	}
	if filters.ResolverID, err = validators.ParseQueryUUID(r, "resolver_id"); err != nil {
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
