// Package importer loads recipes from the food data API into the catalogue.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"recipebox/internal/foodapi"
	"recipebox/internal/metrics"
	"recipebox/internal/recipe"
)

// ErrImportRunning is returned when Run is called while another run is in progress.
var ErrImportRunning = errors.New("import already in progress")

// Fetcher returns raw recipe records.
type Fetcher interface {
	Fetch(ctx context.Context, limit int) ([]foodapi.Record, error)
}

// Store is the catalogue persistence used by an import.
type Store interface {
	CountRecipes(ctx context.Context) (int, error)
	InsertRecipe(ctx context.Context, r *recipe.Recipe) (int64, bool, error)
	RecipeIDByName(ctx context.Context, name string) (int64, error)
	InsertNutrition(ctx context.Context, recipeID int64, n recipe.Nutrition) error
	InsertStep(ctx context.Context, recipeID int64, step recipe.Step) error
}

// Translator translates one text field.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Stats summarizes one import run.
type Stats struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Fetched   int       `json:"fetched"`
	Imported  int       `json:"imported"`
	Existing  int       `json:"existing"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	// NotRun is set when the catalogue already had data and the run was not forced.
	NotRun bool `json:"not_run,omitempty"`
}

// Duration returns how long the run took.
func (s *Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Importer runs imports one at a time.
type Importer struct {
	fetcher    Fetcher
	store      Store
	translator Translator
	limit      int
	log        *slog.Logger

	mu      sync.Mutex
	running bool
	last    *Stats
}

// New creates an importer. translator may be nil to disable translation.
func New(fetcher Fetcher, store Store, translator Translator, limit int, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		fetcher:    fetcher,
		store:      store,
		translator: translator,
		limit:      limit,
		log:        log.With("component", "importer"),
	}
}

// Running reports whether a run is in progress.
func (i *Importer) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

// LastStats returns the stats of the last finished run, or nil.
func (i *Importer) LastStats() *Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.last
}

// Run fetches and persists recipes. Without force, the run is skipped when the
// catalogue already holds recipes. A fetch failure aborts the run; a record that
// fails to persist is logged and skipped.
func (i *Importer) Run(ctx context.Context, force bool) (*Stats, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return nil, ErrImportRunning
	}
	i.running = true
	i.mu.Unlock()

	stats := &Stats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
		i.mu.Lock()
		i.running = false
		i.last = stats
		i.mu.Unlock()
	}()

	if !force {
		n, err := i.store.CountRecipes(ctx)
		if err != nil {
			metrics.RecordImportRun("failed", time.Since(stats.StartTime))
			return stats, fmt.Errorf("count recipes: %w", err)
		}
		if n > 0 {
			i.log.Info("Recipes already imported, skipping", "count", n)
			stats.NotRun = true
			metrics.RecordImportRun("skipped", 0)
			return stats, nil
		}
	}

	records, err := i.fetcher.Fetch(ctx, i.limit)
	if err != nil {
		i.log.Error("Failed to fetch recipes", "error", err)
		metrics.RecordImportRun("failed", time.Since(stats.StartTime))
		return stats, fmt.Errorf("fetch recipes: %w", err)
	}
	stats.Fetched = len(records)
	i.log.Info("Starting import", "records", len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			metrics.RecordImportRun("failed", time.Since(stats.StartTime))
			return stats, err
		}

		ex, ok := Extract(rec)
		if !ok {
			stats.Skipped++
			metrics.RecordImportRecord("skipped")
			continue
		}

		inserted, err := i.persist(ctx, ex)
		switch {
		case err != nil:
			stats.Failed++
			metrics.RecordImportRecord("failed")
			i.log.Warn("Failed to insert recipe", "name", ex.Recipe.Name, "error", err)
		case inserted:
			stats.Imported++
			metrics.RecordImportRecord("imported")
		default:
			stats.Existing++
			metrics.RecordImportRecord("existing")
		}
	}

	i.log.Info("Import completed",
		"fetched", stats.Fetched,
		"imported", stats.Imported,
		"existing", stats.Existing,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"duration", time.Since(stats.StartTime))
	metrics.RecordImportRun("success", time.Since(stats.StartTime))
	return stats, nil
}

// persist writes one record and reports whether the recipe row is new.
func (i *Importer) persist(ctx context.Context, ex Extracted) (bool, error) {
	// Only new recipes are worth a translation call.
	if i.translator != nil {
		id, err := i.store.RecipeIDByName(ctx, ex.Recipe.Name)
		if err != nil {
			return false, err
		}
		if id == 0 {
			ex.Recipe.NameEN = i.translate(ctx, ex.Recipe.Name)
			ex.Recipe.IngredientsEN = i.translate(ctx, ex.Recipe.Ingredients)
		}
	}

	id, inserted, err := i.store.InsertRecipe(ctx, &ex.Recipe)
	if err != nil {
		return false, err
	}
	if !inserted {
		id, err = i.store.RecipeIDByName(ctx, ex.Recipe.Name)
		if err != nil {
			return false, err
		}
		if id == 0 {
			return false, fmt.Errorf("recipe %q vanished after conflict", ex.Recipe.Name)
		}
	}

	if err := i.store.InsertNutrition(ctx, id, ex.Nutrition); err != nil {
		return false, err
	}
	for _, step := range ex.Steps {
		if err := i.store.InsertStep(ctx, id, step); err != nil {
			return false, err
		}
	}
	return inserted, nil
}

// translate returns "" when the text is empty or translation fails.
func (i *Importer) translate(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}
	out, err := i.translator.Translate(ctx, text)
	if err != nil {
		i.log.Warn("Translation failed", "error", err)
		return ""
	}
	return out
}
