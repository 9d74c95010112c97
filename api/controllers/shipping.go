package controllers

import (
	"net/http"

	"github.com/ecomjrm/ecomjrm-backend/api/responses"
	"github.com/ecomjrm/ecomjrm-backend/api/validators"
	"github.com/ecomjrm/ecomjrm-backend/internal/shipping"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

type shippingConfigBody struct {
	BusinessName   string  `json:"business_name" validate:"required"`
	RegistrationNo *string `json:"registration_no"`
	PickupName     string  `json:"pickup_name" validate:"required"`
	PickupPhone    string  `json:"pickup_phone" validate:"required"`
	PickupLine1    string  `json:"pickup_line1" validate:"required"`
	PickupLine2    *string `json:"pickup_line2"`
	PickupCity     string  `json:"pickup_city" validate:"required"`
	PickupState    string  `json:"pickup_state" validate:"required"`
	PickupPostcode string  `json:"pickup_postcode" validate:"required"`
	PickupCountry  string  `json:"pickup_country"`
}

func AdminShippingConfig(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		profile, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

func AdminShippingConfigUpdate(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		var body shippingConfigBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Upsert(r.Context(), shipping.UpdateInput{
			BusinessName:   body.BusinessName,
			RegistrationNo: body.RegistrationNo,
			PickupName:     body.PickupName,
			PickupPhone:    body.PickupPhone,
			PickupLine1:    body.PickupLine1,
			PickupLine2:    body.PickupLine2,
			PickupCity:     body.PickupCity,
			PickupState:    body.PickupState,
			PickupPostcode: body.PickupPostcode,
			PickupCountry:  body.PickupCountry,
			ActorUserID:    actorID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}
