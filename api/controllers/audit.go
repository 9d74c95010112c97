package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ecomjrm/ecomjrm-backend/api/responses"
	"github.com/ecomjrm/ecomjrm-backend/internal/audit"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

func AdminAuditLogList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		filters := audit.Filters{
			Action:   strings.TrimSpace(q.Get("action")),
			Resource: strings.TrimSpace(q.Get("resource")),
		}
		if raw := strings.TrimSpace(q.Get("from")); raw != "" {
			from, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from must be RFC3339"))
				return
			}
			filters.From = &from
		}
		if raw := strings.TrimSpace(q.Get("to")); raw != "" {
			to, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "to must be RFC3339"))
				return
			}
			filters.To = &to
		}

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
