package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/api/responses"
	"github.com/ecomjrm/ecomjrm-backend/api/validators"
	"github.com/ecomjrm/ecomjrm-backend/internal/discounts"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

type createDiscountBody struct {
	Code          string           `json:"code" validate:"required"`
	Description   string           `json:"description"`
	DiscountType  string           `json:"discount_type" validate:"required"`
	Value         decimal.Decimal  `json:"value" validate:"required"`
	MinOrderTotal decimal.Decimal  `json:"min_order_total"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	UsageLimit    *int             `json:"usage_limit"`
	StartsAt      *time.Time       `json:"starts_at"`
	ExpiresAt     *time.Time       `json:"expires_at"`
	MemberOnly    bool             `json:"member_only"`
	Active        *bool            `json:"active"`
}

type updateDiscountBody struct {
	Description   *string          `json:"description"`
	Value         *decimal.Decimal `json:"value"`
	MinOrderTotal *decimal.Decimal `json:"min_order_total"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	UsageLimit    *int             `json:"usage_limit"`
	StartsAt      *time.Time       `json:"starts_at"`
	ExpiresAt     *time.Time       `json:"expires_at"`
	MemberOnly    *bool            `json:"member_only"`
	Active        *bool            `json:"active"`
}

type validateDiscountBody struct {
	Code       string          `json:"code" validate:"required"`
	OrderTotal decimal.Decimal `json:"order_total" validate:"required"`
	IsMember   bool            `json:"is_member"`
}

func AdminDiscountCreate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		var body createDiscountBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(body.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		active := true
		if body.Active != nil {
			active = *body.Active
		}

		code, err := svc.Create(r.Context(), discounts.CreateInput{
			Code:          body.Code,
			Description:   body.Description,
			DiscountType:  discountType,
			Value:         body.Value,
			MinOrderTotal: body.MinOrderTotal,
			MaxDiscount:   body.MaxDiscount,
			UsageLimit:    body.UsageLimit,
			StartsAt:      body.StartsAt,
			ExpiresAt:     body.ExpiresAt,
			MemberOnly:    body.MemberOnly,
			Active:        active,
			ActorUserID:   actorID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, code)
	}
}

func AdminDiscountList(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := discounts.Filters{Query: strings.TrimSpace(r.URL.Query().Get("query"))}
		if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
			active, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "active must be true or false"))
				return
			}
			filters.Active = &active
		}

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func AdminDiscountDetail(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, code)
	}
}

func AdminDiscountUpdate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateDiscountBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.Update(r.Context(), discounts.UpdateInput{
			ID:            id,
			Description:   body.Description,
			Value:         body.Value,
			MinOrderTotal: body.MinOrderTotal,
			MaxDiscount:   body.MaxDiscount,
			UsageLimit:    body.UsageLimit,
			StartsAt:      body.StartsAt,
			ExpiresAt:     body.ExpiresAt,
			MemberOnly:    body.MemberOnly,
			Active:        body.Active,
			ActorUserID:   actorID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, code)
	}
}

func AdminDiscountDelete(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id, actorID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// AdminDiscountValidate dry-runs a code against a cart total without
// consuming usage. The storefront checkout uses the same service path.
func AdminDiscountValidate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discounts service unavailable"))
			return
		}

		var body validateDiscountBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), body.Code, body.OrderTotal, body.IsMember)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
