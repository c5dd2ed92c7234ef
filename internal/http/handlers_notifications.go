package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	applog "madrassa/internal/log"
	"madrassa/internal/notify"
)

type sendRequest struct {
	Phones  phoneList `json:"phones"`
	Message string    `json:"message"`
}

type eventRequest struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data" validate:"required"`
}

func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	res, err := s.deps.Notifier.Send(r.Context(), req.Phones, sanitizeInput(req.Message))
	switch {
	case errors.Is(err, notify.ErrEmptyMessage):
		BadRequestError("Message cannot be empty").Write(w)
		return
	case errors.Is(err, notify.ErrNoRecipients):
		BadRequestError("At least one phone number is required").Write(w)
		return
	case err != nil:
		s.serverError(w, r, "Notification send failed", err)
		return
	}

	NewJSONResponse().
		Success(res.Sent > 0).
		Field("result", res).
		Write(w)
}

func (s *Server) handleNotificationEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		BadRequestError(validationMessage(err)).Write(w)
		return
	}

	ev, err := notify.DecodeEvent(strings.ToUpper(strings.TrimSpace(req.Event)), req.Data)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.validate.Struct(ev); err != nil {
		BadRequestError(validationMessage(err)).Write(w)
		return
	}

	out := s.deps.Notifier.Trigger(r.Context(), ev)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Notification event handled",
		applog.FieldEvent, string(ev.Kind()),
		applog.FieldSent, out.Sent,
		applog.FieldFailed, out.Failed)

	NewJSONResponse().
		Success(out.Success).
		Field("result", out).
		Write(w)
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+" failed "+fe.Tag())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
