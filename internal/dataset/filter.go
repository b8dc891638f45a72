package dataset

import (
	"strings"

	"github.com/airsage/backend/internal/models"
)

// FilterByState returns the rows whose state field equals query ignoring
// case. An empty query matches nothing; distinguishing "no query" from
// "no match" is the caller's job. This is a plain linear scan — the
// distinct-state index is for enumeration, not lookup.
func FilterByState(rows []models.Row, query string) []models.Row {
	if query == "" {
		return nil
	}

	want := strings.ToLower(query)

	var matched []models.Row

	for _, row := range rows {
		if strings.ToLower(row[StateField]) == want {
			matched = append(matched, row)
		}
	}

	return matched
}
