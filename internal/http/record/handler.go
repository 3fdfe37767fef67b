package record

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fiore/internal/http/session"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
	"github.com/MrJamesThe3rd/fiore/internal/record"
)

type Handler struct {
	svc *record.Service
}

func NewHandler(svc *record.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{resource}", h.list)
}

type listResponse struct {
	Resource record.Resource `json:"resource"`
	Data     []record.Record `json:"data"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	res, err := record.ParseResource(chi.URLParam(r, "resource"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := session.Request(w, r)
	req.Query = r.URL.Query()

	records, err := h.svc.Load(r.Context(), res, record.Params{}, req)
	if err != nil {
		if invoicing.IsCanceled(err) {
			return
		}

		status := http.StatusBadGateway
		if errors.Is(err, invoicing.ErrTokenExpired) || errors.Is(err, invoicing.ErrTokenRefresh) {
			status = http.StatusUnauthorized
		}

		slog.ErrorContext(r.Context(), "failed to load records", "resource", res, "error", err)
		http.Error(w, record.Message(err), status)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(listResponse{Resource: res, Data: records}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
