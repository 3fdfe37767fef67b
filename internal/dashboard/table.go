package dashboard

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fiore/internal/record"
)

// moneyHints are matched as case-insensitive substrings of column names.
var moneyHints = []string{
	"total",
	"amount",
	"price",
	"cost",
	"value",
	"amount_gross",
	"amount_net",
}

var nonNumeric = regexp.MustCompile(`[^0-9.-]+`)

// Columns returns the field names of the first record.
func Columns(records []record.Record) []string {
	if len(records) == 0 {
		return []string{}
	}

	return records[0].Keys()
}

// Filter keeps the records whose field contains value, case-insensitively.
// An empty field or value keeps everything; a missing or null cell never
// matches.
func Filter(records []record.Record, field, value string) []record.Record {
	if field == "" || value == "" {
		return records
	}

	needle := strings.ToLower(value)
	out := make([]record.Record, 0, len(records))

	for _, r := range records {
		v, ok := r.Get(field)
		if !ok {
			continue
		}

		s, ok := record.Stringify(v)
		if !ok {
			continue
		}

		if strings.Contains(strings.ToLower(s), needle) {
			out = append(out, r)
		}
	}

	return out
}

// Window is one page of rows.
type Window struct {
	Rows       []record.Record
	Page       int
	PageSize   int
	TotalPages int
	TotalItems int
}

// TotalPages is ceil(items/size) with a floor of one.
func TotalPages(items, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}

	pages := (items + size - 1) / size

	return max(1, pages)
}

// Paginate slices rows into the page'th window of size rows. Pages are
// 1-based; a page past the end yields an empty window.
func Paginate(rows []record.Record, page, size int) Window {
	if size <= 0 {
		size = DefaultPageSize
	}

	page = max(1, page)

	w := Window{
		Page:       page,
		PageSize:   size,
		TotalItems: len(rows),
		TotalPages: TotalPages(len(rows), size),
		Rows:       []record.Record{},
	}

	start := (page - 1) * size
	if start >= len(rows) {
		return w
	}

	end := min(start+size, len(rows))
	w.Rows = rows[start:end]

	return w
}

// MoneyColumns returns the columns that look like monetary amounts.
func MoneyColumns(columns []string) []string {
	out := []string{}

	for _, c := range columns {
		lc := strings.ToLower(c)

		for _, hint := range moneyHints {
			if strings.Contains(lc, hint) {
				out = append(out, c)
				break
			}
		}
	}

	return out
}

type Total struct {
	Column string
	Sum    decimal.Decimal
}

// Totals sums every money column over rows. Cells that do not parse as an
// amount are left out of the sum.
func Totals(rows []record.Record, columns []string) []Total {
	money := MoneyColumns(columns)
	out := make([]Total, 0, len(money))

	for _, col := range money {
		sum := decimal.Zero

		for _, r := range rows {
			v, _ := r.Get(col)
			if amount, ok := ParseAmount(v); ok {
				sum = sum.Add(amount)
			}
		}

		out = append(out, Total{Column: col, Sum: sum})
	}

	return out
}

// ParseAmount coerces a cell to a decimal. Numbers are taken as-is; strings
// are stripped of everything but digits, dots and minus signs first.
func ParseAmount(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		cleaned := nonNumeric.ReplaceAllString(t, "")
		if cleaned == "" {
			return decimal.Zero, false
		}

		d, err := decimal.NewFromString(cleaned)

		return d, err == nil
	}

	return decimal.Zero, false
}
