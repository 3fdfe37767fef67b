package view

import (
	"context"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/fiore/internal/record"
)

const (
	apiTimeout     = 30 * time.Second
	maxColumnWidth = 28
)

// APICtx returns a cancellable context with the standard timeout for API calls.
func APICtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), apiTimeout)
}

// FormatCell renders one field on a single line.
func FormatCell(r record.Record, col string) string {
	s := strings.ReplaceAll(r.String(col), "\n", " ")

	return truncate(s, maxColumnWidth)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}

	return string(runes[:width-1]) + "…"
}

// columnWidth fits the title and the widest visible cell, capped at maxColumnWidth.
func columnWidth(col string, rows []record.Record) int {
	w := len([]rune(col))

	for _, r := range rows {
		w = max(w, len([]rune(FormatCell(r, col))))
	}

	return min(w, maxColumnWidth)
}
