package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/dispatcher"
	"github.com/jdziat/sync-schedules/pkg/gitsync"
	"github.com/jdziat/sync-schedules/pkg/registry"
	"github.com/jdziat/sync-schedules/pkg/storage"
)

// app bundles what a command needs: configuration, the database and the
// registry loaded from it.
type app struct {
	opts       *options
	cfg        *Config
	configPath string
	dsn        string
	loc        *time.Location
	logger     *slog.Logger
	store      *storage.GormStorage
	reg        *registry.Registry
}

// openApp loads the config, opens and migrates the database and loads the
// stored schedules. logOut receives log records.
func openApp(ctx context.Context, opts *options, logOut io.Writer) (*app, error) {
	path := opts.configPath
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if !opts.verbose && parseLevel(logCfg.Level) < slog.LevelWarn {
		logCfg.Level = "warn"
	}
	logger := newLogger(logOut, logCfg)

	dsn := cfg.ResolveDSN(filepath.Dir(path))
	db, err := storage.Open(cfg.Storage.Driver, withDriverOptions(cfg.Storage.Driver, dsn))
	if err != nil {
		return nil, err
	}
	store, err := storage.NewGormStorageWithPool(db)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	store.SetLocation(loc)
	a := &app{
		opts:       opts,
		cfg:        cfg,
		configPath: path,
		dsn:        dsn,
		loc:        loc,
		logger:     logger,
		store:      store,
		reg:        registry.New(registry.WithSyncer(store), registry.WithLogger(logger)),
	}
	if err := store.Migrate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := a.reload(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// sqliteOptions lets the daemon and one-shot commands share a database file.
const sqliteOptions = "_busy_timeout=5000&_journal_mode=WAL"

func withDriverOptions(driver, dsn string) string {
	if driver != storage.DriverSQLite || dsn == ":memory:" || strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?" + sqliteOptions
}

// reload replaces the registry contents with the stored schedules.
func (a *app) reload(ctx context.Context) error {
	rows, err := a.store.LoadSchedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	a.reg.Load(rows)
	return nil
}

// Close releases the database.
func (a *app) Close() {
	closeDB(a.store.DB())
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// databaseFile returns the sqlite file to watch, or "" for other drivers.
func (a *app) databaseFile() string {
	if a.cfg.Storage.Driver != storage.DriverSQLite {
		return ""
	}
	if a.dsn == ":memory:" || strings.HasPrefix(a.dsn, "file:") {
		return ""
	}
	return a.dsn
}

// runner returns the sync runner: the git runner for the configured repo
// unless a test replaced it.
func (a *app) runner() (dispatcher.Runner, error) {
	if a.opts.runner != nil {
		return a.opts.runner, nil
	}
	dir, err := a.cfg.RepoDir()
	if err != nil {
		return nil, fmt.Errorf("%w (set it in %s)", err, a.configPath)
	}
	return gitsync.New(dir,
		gitsync.WithRemote(a.cfg.Repo.Remote),
		gitsync.WithCheckURL(a.cfg.Repo.CheckURL),
		gitsync.WithLogger(a.logger),
	), nil
}

// dispatcher builds a dispatcher over the registry that records runs and
// persists skip flags in the database. runner may be nil for commands that
// only inspect the schedule.
func (a *app) dispatcher(runner dispatcher.Runner) (*dispatcher.Dispatcher, error) {
	gap, err := a.cfg.MinGapDuration()
	if err != nil {
		return nil, err
	}
	timeout, err := a.cfg.RunTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return dispatcher.New(a.reg, runner,
		dispatcher.WithLogger(a.logger),
		dispatcher.WithRecorder(a.store),
		dispatcher.WithSkipStore(a.store),
		dispatcher.MinGap(gap),
		dispatcher.RunTimeout(timeout),
		dispatcher.WithLocation(a.loc),
	), nil
}

var errAmbiguousRef = errors.New("schedule reference matches more than one schedule")

// resolve finds a schedule by its 1-based list index, full ID or a unique ID
// prefix.
func (a *app) resolve(ref string) (core.Schedule, error) {
	schedules := a.reg.List()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(schedules) {
			return core.Schedule{}, fmt.Errorf("no schedule #%d: %w", n, core.ErrScheduleNotFound)
		}
		return schedules[n-1], nil
	}

	if s, ok := a.reg.Get(ref); ok {
		return s, nil
	}

	var (
		match core.Schedule
		found int
	)
	for _, s := range schedules {
		if strings.HasPrefix(s.ID, ref) {
			match = s
			found++
		}
	}
	switch found {
	case 0:
		return core.Schedule{}, fmt.Errorf("%q: %w", ref, core.ErrScheduleNotFound)
	case 1:
		return match, nil
	default:
		return core.Schedule{}, fmt.Errorf("%q: %w", ref, errAmbiguousRef)
	}
}
