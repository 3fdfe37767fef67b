package dashboard

import (
	"github.com/MrJamesThe3rd/fiore/internal/dashboard"
	"github.com/MrJamesThe3rd/fiore/internal/record"
)

type errorResponse struct {
	Error string `json:"error"`
}

type totalResponse struct {
	Column string `json:"column"`
	Sum    string `json:"sum"`
}

type viewResponse struct {
	Resource     record.Resource `json:"resource"`
	Label        string          `json:"label"`
	ReportType   string          `json:"report_type,omitempty"`
	StartDate    string          `json:"start_date,omitempty"`
	EndDate      string          `json:"end_date,omitempty"`
	HasDateField bool            `json:"has_date_field"`
	Columns      []string        `json:"columns"`
	FilterField  string          `json:"filter_field"`
	FilterValue  string          `json:"filter_value"`
	Rows         []record.Record `json:"rows"`
	Page         int             `json:"page"`
	PageSize     int             `json:"page_size"`
	PageSizes    []int           `json:"page_sizes"`
	TotalPages   int             `json:"total_pages"`
	TotalItems   int             `json:"total_items"`
	Totals       []totalResponse `json:"totals"`
}

func toResponse(res record.Resource, rt dashboard.ReportType, rng dashboard.Range, v *dashboard.View) viewResponse {
	win := v.Window()

	resp := viewResponse{
		Resource:     res,
		Label:        res.Label(),
		StartDate:    rng.Start,
		EndDate:      rng.End,
		HasDateField: v.HasDateField(),
		Columns:      v.Columns(),
		FilterField:  v.FilterField(),
		FilterValue:  v.FilterValue(),
		Rows:         win.Rows,
		Page:         win.Page,
		PageSize:     win.PageSize,
		PageSizes:    dashboard.PageSizes,
		TotalPages:   win.TotalPages,
		TotalItems:   win.TotalItems,
		Totals:       []totalResponse{},
	}

	if res.SupportsDates() {
		resp.ReportType = string(rt)
	}

	for _, t := range v.Totals() {
		resp.Totals = append(resp.Totals, totalResponse{Column: t.Column, Sum: t.Sum.StringFixed(2)})
	}

	return resp
}
