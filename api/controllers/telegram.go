package controllers

import (
	"net/http"
	"strings"

	"github.com/ecomjrm/ecomjrm-backend/api/responses"
	"github.com/ecomjrm/ecomjrm-backend/api/validators"
	"github.com/ecomjrm/ecomjrm-backend/internal/telegram"
	"github.com/ecomjrm/ecomjrm-backend/pkg/enums"
	pkgerrors "github.com/ecomjrm/ecomjrm-backend/pkg/errors"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

type createChannelBody struct {
	Name    string `json:"name" validate:"required"`
	ChatID  string `json:"chat_id" validate:"required"`
	Kind    string `json:"kind"`
	Enabled *bool  `json:"enabled"`
}

type updateChannelBody struct {
	Name    *string `json:"name"`
	ChatID  *string `json:"chat_id"`
	Kind    *string `json:"kind"`
	Enabled *bool   `json:"enabled"`
}

func AdminTelegramChannelCreate(svc telegram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telegram service unavailable"))
			return
		}

		var body createChannelBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := telegram.CreateInput{
			Name:        body.Name,
			ChatID:      body.ChatID,
			Enabled:     true,
			ActorUserID: actorID(r),
		}
		if body.Enabled != nil {
			input.Enabled = *body.Enabled
		}
		if raw := strings.TrimSpace(body.Kind); raw != "" {
			kind, err := enums.ParseTelegramChannelKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel kind"))
				return
			}
			input.Kind = kind
		}

		channel, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, channel)
	}
}

func AdminTelegramChannelList(svc telegram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telegram service unavailable"))
			return
		}

		channels, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, channels)
	}
}

func AdminTelegramChannelUpdate(svc telegram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telegram service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "channelId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateChannelBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := telegram.UpdateInput{
			ID:          id,
			Name:        body.Name,
			ChatID:      body.ChatID,
			Enabled:     body.Enabled,
			ActorUserID: actorID(r),
		}
		if body.Kind != nil {
			kind, err := enums.ParseTelegramChannelKind(*body.Kind)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid channel kind"))
				return
			}
			input.Kind = &kind
		}

		channel, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, channel)
	}
}

func AdminTelegramChannelDelete(svc telegram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telegram service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "channelId")
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

func AdminTelegramChannelTest(svc telegram.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telegram service unavailable"))
			return
		}

		id, err := parseUUIDParam(r, "channelId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SendTestMessage(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
