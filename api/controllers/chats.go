package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ecomjrm/ecomjrm-backend/api/responses"
	"github.com/ecomjrm/ecomjrm-backend/api/validators"
	"github.com/ecomjrm/ecomjrm-backend/internal/chatarchive"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

type archiveChatsBody struct {
	SessionIDs         []string `json:"session_ids" validate:"required,min=1"`
	Reason             string   `json:"reason"`
	ScheduledPurgeDate string   `json:"scheduled_purge_date"`
}

type restoreChatsBody struct {
	SessionIDs []string `json:"session_ids" validate:"required,min=1"`
	Reason     string   `json:"reason"`
	RestoreTo  string   `json:"restore_to"`
}

func AdminChatsList(svc chatarchive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat archive service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := chatarchive.Filters{Query: strings.TrimSpace(r.URL.Query().Get("query"))}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseChatSessionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func AdminChatsStats(svc chatarchive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat archive service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

func AdminChatsArchive(svc chatarchive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat archive service unavailable"))
			return
		}

		var body archiveChatsBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := chatarchive.ArchiveInput{
			SessionIDs:  body.SessionIDs,
			Reason:      body.Reason,
			ActorUserID: actorID(r),
		}
		if raw := strings.TrimSpace(body.ScheduledPurgeDate); raw != "" {
			purgeAt, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "scheduled_purge_date must be RFC3339"))
				return
			}
			input.ScheduledPurgeDate = &purgeAt
		}

		result, err := svc.ArchiveSessions(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AdminChatsRestore(svc chatarchive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat archive service unavailable"))
			return
		}

		var body restoreChatsBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := chatarchive.RestoreInput{
			SessionIDs:  body.SessionIDs,
			Reason:      body.Reason,
			ActorUserID: actorID(r),
		}
		if raw := strings.TrimSpace(body.RestoreTo); raw != "" {
			status, err := enums.ParseChatSessionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid restore_to status"))
				return
			}
			input.RestoreTo = status
		}

		result, err := svc.RestoreSessions(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminChatsPurge permanently deletes archived sessions past their retention
// window. Destructive and idempotency-protected at the router.
func AdminChatsPurge(svc chatarchive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat archive service unavailable"))
			return
		}

		result, err := svc.PurgeOldArchives(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
