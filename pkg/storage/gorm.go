package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/jdziat/sync-schedules/pkg/core"
	"github.com/jdziat/sync-schedules/pkg/security"
)

// Supported driver names for Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var _ core.Storage = (*GormStorage)(nil)

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db  *gorm.DB
	loc *time.Location
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// Open connects to the database named by driver and dsn with GORM's own
// logging silenced.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// SetLocation sets the zone LoadSchedules returns start times in. SQLite
// keeps only the UTC offset of a stored time, so without it a schedule
// reloaded across a DST change fires an hour off.
func (s *GormStorage) SetLocation(loc *time.Location) {
	s.loc = loc
}

// DB returns the underlying connection.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the storage runs on SQLite.
func (s *GormStorage) IsSQLite() bool {
	return s.db != nil && s.db.Dialector != nil && s.db.Dialector.Name() == "sqlite"
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Schedule{}, &core.SyncRun{})
}

// SaveSchedules replaces the stored collection with schedules in one
// transaction. Slice order is kept in the position column. Rows missing from
// schedules are deleted. An existing row keeps its skip flag, which is owned
// by SetSkipNext.
func (s *GormStorage) SaveSchedules(ctx context.Context, schedules []core.Schedule) error {
	rows := make([]core.Schedule, len(schedules))
	ids := make([]string, 0, len(schedules))
	for i, sc := range schedules {
		if sc.ID == "" {
			sc.ID = uuid.New().String()
		}
		sc.Position = i
		rows[i] = sc
		ids = append(ids, sc.ID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var del *gorm.DB
		if len(ids) > 0 {
			del = tx.Where("id NOT IN ?", ids)
		} else {
			del = tx.Where("1 = 1")
		}
		if err := del.Delete(&core.Schedule{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"start_at", "label", "interval_days", "position", "updated_at",
			}),
		}).Create(&rows).Error
	})
}

// LoadSchedules returns the stored collection in saved order.
func (s *GormStorage) LoadSchedules(ctx context.Context) ([]core.Schedule, error) {
	var schedules []core.Schedule
	err := s.db.WithContext(ctx).
		Order("position ASC, created_at ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	if s.loc != nil {
		for i := range schedules {
			schedules[i].StartAt = schedules[i].StartAt.In(s.loc)
		}
	}
	return schedules, nil
}

// SetSkipNext sets or clears the skip flag on one schedule.
func (s *GormStorage) SetSkipNext(ctx context.Context, scheduleID string, skip bool) error {
	result := s.db.WithContext(ctx).
		Model(&core.Schedule{}).
		Where("id = ?", scheduleID).
		Update("skip_next", skip)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrScheduleNotFound
	}
	return nil
}

// RecordRun stores one dispatched occurrence.
// Error messages are sanitized before storage.
func (s *GormStorage) RecordRun(ctx context.Context, run *core.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Error = security.SanitizeErrorMessage(run.Error)
	return s.db.WithContext(ctx).Create(run).Error
}

// ListRuns returns the most recent runs, newest first. An empty scheduleID
// lists runs of every schedule, manual syncs included.
func (s *GormStorage) ListRuns(ctx context.Context, scheduleID string, limit int) ([]*core.SyncRun, error) {
	q := s.db.WithContext(ctx).Model(&core.SyncRun{})
	if scheduleID != "" {
		q = q.Where("schedule_id = ?", scheduleID)
	}

	var runs []*core.SyncRun
	err := q.Order("started_at DESC, created_at DESC").
		Limit(security.ClampListLimit(limit)).
		Find(&runs).Error
	return runs, err
}

// LastRun returns the newest run of a schedule, or nil when it never ran.
func (s *GormStorage) LastRun(ctx context.Context, scheduleID string) (*core.SyncRun, error) {
	var run core.SyncRun
	err := s.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("started_at DESC, created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
