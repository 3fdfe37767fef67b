package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/fiore/internal/dashboard"
	"github.com/MrJamesThe3rd/fiore/internal/http/session"
	"github.com/MrJamesThe3rd/fiore/internal/record"
)

type Handler struct {
	svc      *record.Service
	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(svc *record.Service, validate *validator.Validate, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}

	return &Handler{svc: svc, validate: validate, now: now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.view)
}

type viewQuery struct {
	Resource    string `validate:"required"`
	ReportType  string `validate:"omitempty,oneof=weekly monthly"`
	StartDate   string `validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `validate:"omitempty,datetime=2006-01-02"`
	FilterField string `validate:"max=128"`
	FilterValue string `validate:"max=256"`
	Page        int    `validate:"gte=0"`
	PageSize    int    `validate:"omitempty,oneof=5 10 20 50"`
}

func parseQuery(r *http.Request) (viewQuery, error) {
	q := r.URL.Query()

	out := viewQuery{
		Resource:    q.Get("resource"),
		ReportType:  q.Get("report_type"),
		StartDate:   q.Get("start_date"),
		EndDate:     q.Get("end_date"),
		FilterField: q.Get("filter_field"),
		FilterValue: q.Get("filter_value"),
	}

	if out.Resource == "" {
		out.Resource = string(record.Expenses)
	}

	var err error

	if s := q.Get("page"); s != "" {
		if out.Page, err = strconv.Atoi(s); err != nil {
			return out, errors.New("invalid page")
		}
	}

	if s := q.Get("page_size"); s != "" {
		if out.PageSize, err = strconv.Atoi(s); err != nil {
			return out, errors.New("invalid page_size")
		}
	}

	return out, nil
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := record.ParseResource(q.Resource)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rt, _ := dashboard.ParseReportType(q.ReportType)

	var rng dashboard.Range

	var params record.Params

	if res.SupportsDates() {
		rng = dashboard.DefaultRange(rt, h.now())

		if q.StartDate != "" {
			rng = rng.WithStart(q.StartDate)
		}

		if q.EndDate != "" {
			rng = rng.WithEnd(q.EndDate)
		}

		params.StartDate, params.EndDate = rng.Start, rng.End
	}

	state := &record.State{}
	h.svc.Fetch(r.Context(), res, params, state, session.Request(w, r))

	if r.Context().Err() != nil {
		return
	}

	snap := state.Snapshot()
	if snap.Err != nil {
		writeError(w, http.StatusBadGateway, record.Message(snap.Err))
		return
	}

	v := dashboard.NewView()
	v.SetRecords(snap.Data)

	if q.PageSize > 0 {
		v.SetPageSize(q.PageSize)
	}

	field := q.FilterField
	if field == "" {
		field = v.FilterField()
	}

	v.SetFilter(field, q.FilterValue)
	v.SetPage(q.Page)

	writeJSON(w, http.StatusOK, toResponse(res, rt, rng, v))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
