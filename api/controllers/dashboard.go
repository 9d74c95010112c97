package controllers

import (
	"net/http"

	"github.com/ecomjrm/ecomjrm-backend/api/responses"
	"github.com/ecomjrm/ecomjrm-backend/internal/dashboard"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

func AdminDashboardOverview(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		overview, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, overview)
	}
}
