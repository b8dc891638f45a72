package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/airsage/backend/internal/models"
)

// StateField is the dataset column holding the geographic key.
const StateField = "state"

var (
	// ErrDatasetMissing means the backing CSV file does not exist.
	ErrDatasetMissing = errors.New("dataset file missing")

	// ErrDatasetParse means the CSV could not be parsed. The cache stays
	// unpopulated so a later Load retries.
	ErrDatasetParse = errors.New("dataset parse failed")
)

// Cache loads the station CSV into memory once per process lifetime and
// exposes the rows plus the sorted distinct list of state names. There is
// no invalidation: once populated it serves the same rows until exit.
type Cache struct {
	path string
	log  zerolog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	rows     []models.Row
	states   []string
	loadedAt time.Time
}

func NewCache(path string, log zerolog.Logger) *Cache {
	return &Cache{path: path, log: log}
}

// Load returns the full row set, reading the file on the first call.
// Concurrent first calls collapse into a single file read; every caller
// gets the same result. A failed load caches nothing.
func (c *Cache) Load() ([]models.Row, error) {
	c.mu.RLock()
	rows := c.rows
	c.mu.RUnlock()

	if rows != nil {
		return rows, nil
	}

	loaded, err, _ := c.group.Do("load", func() (any, error) {
		// A flight that finished between our check and Do may have
		// populated the cache already.
		c.mu.RLock()
		cached := c.rows
		c.mu.RUnlock()

		if cached != nil {
			return cached, nil
		}

		return c.load()
	})
	if err != nil {
		return nil, err
	}

	return loaded.([]models.Row), nil
}

func (c *Cache) load() ([]models.Row, error) {
	start := time.Now()

	if _, err := os.Stat(c.path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, c.path)
		}

		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetParse, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrDatasetParse)
	}

	header := records[0]
	rows := make([]models.Row, 0, len(records)-1)

	for _, record := range records[1:] {
		row := make(models.Row, len(header))
		for i, name := range header {
			row[name] = record[i]
		}

		rows = append(rows, row)
	}

	states := distinctStates(rows)

	c.mu.Lock()
	c.rows = rows
	c.states = states
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.log.Info().
		Int("rows", len(rows)).
		Int("states", len(states)).
		Dur("elapsed", time.Since(start)).
		Msg("dataset loaded")

	return rows, nil
}

// distinctStates builds the sorted, deduplicated state index. Rows with an
// empty or missing state field are skipped.
func distinctStates(rows []models.Row) []string {
	seen := make(map[string]struct{})
	states := make([]string, 0, 64)

	for _, row := range rows {
		state := row[StateField]
		if state == "" {
			continue
		}

		if _, ok := seen[state]; ok {
			continue
		}

		seen[state] = struct{}{}
		states = append(states, state)
	}

	collate.New(language.English).SortStrings(states)

	return states
}

// States returns the distinct state list, loading the dataset if needed.
func (c *Cache) States() ([]string, error) {
	if _, err := c.Load(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.states, nil
}

// Loaded reports whether the cache has been populated. It never triggers
// a load.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.rows != nil
}

// RowCount returns the number of cached rows, zero before the first load.
func (c *Cache) RowCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.rows)
}

// LoadedAt returns the load timestamp, zero before the first load.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loadedAt
}
