package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/airsage/backend/internal/dataset"
	"github.com/airsage/backend/internal/models"
)

func testRows() []models.Row {
	return []models.Row{
		{"state": "Gujarat", "station": "Maninagar"},
		{"state": "Kerala", "station": "Kacheripady"},
		{"state": "Gujarat", "station": "Limbayat"},
		{"state": "", "station": "Orphan"},
	}
}

func TestFilterByState_CaseInsensitive(t *testing.T) {
	t.Parallel()

	rows := testRows()

	for _, query := range []string{"Gujarat", "gujarat", "GUJARAT", "gUjArAt"} {
		matched := dataset.FilterByState(rows, query)
		assert.Len(t, matched, 2, "query %q", query)
		assert.Equal(t, "Maninagar", matched[0]["station"])
		assert.Equal(t, "Limbayat", matched[1]["station"])
	}
}

func TestFilterByState_EmptyQuery(t *testing.T) {
	t.Parallel()

	// An empty query matches nothing, including the row with an empty key.
	assert.Empty(t, dataset.FilterByState(testRows(), ""))
}

func TestFilterByState_NoMatch(t *testing.T) {
	t.Parallel()

	assert.Empty(t, dataset.FilterByState(testRows(), "Sikkim"))
}
