package http

import (
	"cmp"
	"slices"
	"strings"

	"ledger/internal/core"
)

// sanitizeInput removes control characters except tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sortByDateDesc orders a view newest first. Undated rows go last; ties keep
// their view order.
func sortByDateDesc(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		switch {
		case a.Date.IsEmpty() && b.Date.IsEmpty():
			return 0
		case a.Date.IsEmpty():
			return 1
		case b.Date.IsEmpty():
			return -1
		}
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})
}
