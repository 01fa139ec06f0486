// Package app wires the application's services together for the CLI
// commands: datastore, indexer, extractor, time-of-day adapter, selector
// and metrics.
package app

import (
	"log/slog"

	"github.com/tkivisto/wallshift/internal/conf"
	"github.com/tkivisto/wallshift/internal/datastore"
	"github.com/tkivisto/wallshift/internal/errors"
	"github.com/tkivisto/wallshift/internal/extractor"
	"github.com/tkivisto/wallshift/internal/indexer"
	"github.com/tkivisto/wallshift/internal/logging"
	"github.com/tkivisto/wallshift/internal/observability"
	"github.com/tkivisto/wallshift/internal/selection"
	"github.com/tkivisto/wallshift/internal/selector"
	"github.com/tkivisto/wallshift/internal/suncalc"
	"github.com/tkivisto/wallshift/internal/timeofday"
)

// App holds the shared service graph for one command invocation.
type App struct {
	Settings  *conf.Settings
	Store     datastore.Interface
	Indexer   *indexer.Indexer
	Extractor *extractor.Extractor
	TimeOfDay *timeofday.Adapter
	Selector  *selector.Selector
	Metrics   *observability.Metrics

	logger *slog.Logger
}

// New opens the datastore and builds every service. The caller must Close.
func New(settings *conf.Settings) (*App, error) {
	store := datastore.New(settings)
	if store == nil {
		return nil, errors.Newf("no datastore backend enabled").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := store.Open(); err != nil {
		return nil, err
	}

	a := &App{
		Settings: settings,
		Store:    store,
		Indexer:  indexer.New(store, settings.Library.FavoritesDir),
		logger:   logging.ForService("app"),
	}

	a.Extractor = extractor.New(&settings.Extractor)
	a.TimeOfDay = timeofday.New(settings.TimeOfDay)
	a.Selector = selector.New(settings.Selection, store, a.TimeOfDay, a.Extractor)

	if settings.Metrics.Enabled {
		metrics, err := observability.NewMetrics()
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		a.Metrics = metrics
		selection.SetMetrics(metrics.Selection)
		indexer.SetMetrics(metrics.Indexer)
		extractor.SetMetrics(metrics.Extractor)
		datastore.SetMetrics(metrics.Datastore)
		suncalc.SetMetrics(metrics.SunCalc)
		if sqlStore, ok := store.(*datastore.SQLiteStore); ok {
			sqlStore.RefreshMetrics()
		}

		if settings.Metrics.Listen != "" {
			go func() {
				if err := metrics.Serve(settings.Metrics.Listen); err != nil {
					a.logger.Warn("metrics endpoint stopped", "addr", settings.Metrics.Listen, "error", err)
				}
			}()
		}
	}

	return a, nil
}

// Close releases the datastore.
func (a *App) Close() error {
	return a.Store.Close()
}
