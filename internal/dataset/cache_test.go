package dataset_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsage/backend/internal/dataset"
)

const testCSV = `state,district,station,longitude,latitude,pm25,pm10,no2,so2,co,ozone
Gujarat,Ahmedabad,Maninagar,72.6030,23.0027,84,120,31,12,0.9,44
Kerala,Ernakulam,Kacheripady,76.2838,9.9906,32,51,14,5,0.4,21
Gujarat,Surat,Limbayat,72.8413,21.1702,91,134,28,10,1.1,39
Delhi,Central Delhi,ITO,77.2410,28.6289,160,238,64,18,1.6,52
`

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func newTestCache(t *testing.T, content string) *dataset.Cache {
	t.Helper()

	return dataset.NewCache(writeTestCSV(t, content), zerolog.Nop())
}

func TestCache_Load(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t, testCSV)

	assert.False(t, cache.Loaded())
	assert.Zero(t, cache.RowCount())
	assert.True(t, cache.LoadedAt().IsZero())

	rows, err := cache.Load()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.True(t, cache.Loaded())
	assert.Equal(t, 4, cache.RowCount())
	assert.False(t, cache.LoadedAt().IsZero())

	// Rows are verbatim header-to-value maps.
	assert.Equal(t, "Gujarat", rows[0]["state"])
	assert.Equal(t, "Maninagar", rows[0]["station"])
	assert.Equal(t, "84", rows[0]["pm25"])
}

func TestCache_LoadIsIdempotent(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t, testCSV)

	first, err := cache.Load()
	require.NoError(t, err)

	loadedAt := cache.LoadedAt()

	second, err := cache.Load()
	require.NoError(t, err)

	assert.Len(t, second, len(first))
	assert.Equal(t, loadedAt, cache.LoadedAt(), "second Load must not re-read the file")
}

func TestCache_ConcurrentLoadCollapses(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t, testCSV)

	const callers = 16

	var wg sync.WaitGroup

	counts := make([]int, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		i := i

		wg.Add(1)

		go func() {
			defer wg.Done()

			rows, err := cache.Load()
			counts[i] = len(rows)
			errs[i] = err
		}()
	}

	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 4, counts[i])
	}

	states, err := cache.States()
	require.NoError(t, err)
	assert.Equal(t, []string{"Delhi", "Gujarat", "Kerala"}, states)
}

func TestCache_DistinctStates(t *testing.T) {
	t.Parallel()

	// Out-of-order states, a duplicate, and a row with an empty key.
	cache := newTestCache(t, `state,district,station,longitude,latitude,pm25,pm10,no2,so2,co,ozone
Kerala,Ernakulam,Kacheripady,76.2838,9.9906,32,51,14,5,0.4,21
,Unknown,Orphan,0,0,0,0,0,0,0,0
Delhi,Central Delhi,ITO,77.2410,28.6289,160,238,64,18,1.6,52
Kerala,Kollam,Polayathode,76.6141,8.8810,29,48,11,4,0.3,19
`)

	states, err := cache.States()
	require.NoError(t, err)

	assert.Equal(t, []string{"Delhi", "Kerala"}, states)
}

func TestCache_MissingFile(t *testing.T) {
	t.Parallel()

	cache := dataset.NewCache(filepath.Join(t.TempDir(), "nope.csv"), zerolog.Nop())

	_, err := cache.Load()
	require.ErrorIs(t, err, dataset.ErrDatasetMissing)
	assert.False(t, cache.Loaded())
}

func TestCache_ParseFailureRetries(t *testing.T) {
	t.Parallel()

	// Second record has the wrong field count.
	path := writeTestCSV(t, "state,district\nGujarat,Ahmedabad\nbroken\n")
	cache := dataset.NewCache(path, zerolog.Nop())

	_, err := cache.Load()
	require.ErrorIs(t, err, dataset.ErrDatasetParse)
	assert.False(t, cache.Loaded(), "failed parse must leave the cache unpopulated")

	// Fix the file; the next Load retries instead of caching the failure.
	require.NoError(t, os.WriteFile(path, []byte("state,district\nGujarat,Ahmedabad\n"), 0o600))

	rows, err := cache.Load()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
