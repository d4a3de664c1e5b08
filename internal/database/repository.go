package database

import (
	"sort"
	"time"

	"github.com/thoth/thoth/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for launch history
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateLaunch inserts a new launch event into the database
func (r *Repository) CreateLaunch(event *models.LaunchEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert launch event")
	}
	return nil
}

// GetByRunID retrieves a launch event by the id returned from a run
func (r *Repository) GetByRunID(runID string) (*models.LaunchEvent, error) {
	var event models.LaunchEvent
	result := r.db.Where("run_id = ?", runID).First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get launch event")
	}
	return &event, nil
}

// GetLaunchesSince retrieves all launch events since a given time
// Simple query that returns raw events - runtime does the processing
func (r *Repository) GetLaunchesSince(since time.Time) ([]*models.LaunchEvent, error) {
	var events []*models.LaunchEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query launch events")
	}

	return events, nil
}

type pathCount struct {
	Path     string
	Launches int64
}

// LaunchCounts returns successful launches per path since a given time
// Uses SQL COUNT so search boosting stays cheap
func (r *Repository) LaunchCounts(since time.Time) (map[string]int64, error) {
	var rows []pathCount

	result := r.db.Model(&models.LaunchEvent{}).
		Select("path, COUNT(*) as launches").
		Where("timestamp >= ? AND success = ?", since, true).
		Group("path").
		Scan(&rows)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query launch counts")
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Path] = row.Launches
	}
	return counts, nil
}

// GetLaunchSummarySince returns successful launches per path since a given
// time, most launched first
func (r *Repository) GetLaunchSummarySince(since time.Time) ([]models.LaunchSummary, error) {
	events, err := r.GetLaunchesSince(since)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]*models.LaunchSummary)
	var order []string
	for _, e := range events {
		if !e.Success {
			continue
		}
		s, ok := byPath[e.Path]
		if !ok {
			s = &models.LaunchSummary{Path: e.Path}
			byPath[e.Path] = s
			order = append(order, e.Path)
		}
		s.Launches++
		// events are ascending so the last one wins
		s.Name = e.Name
		s.LastLaunch = e.Timestamp
	}

	summaries := make([]models.LaunchSummary, 0, len(order))
	for _, p := range order {
		summaries = append(summaries, *byPath[p])
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Launches != summaries[j].Launches {
			return summaries[i].Launches > summaries[j].Launches
		}
		return summaries[i].LastLaunch.After(summaries[j].LastLaunch)
	})
	return summaries, nil
}

// CountFailuresSince counts launches that did not start
func (r *Repository) CountFailuresSince(since time.Time) (int64, error) {
	var n int64
	result := r.db.Model(&models.LaunchEvent{}).
		Where("timestamp >= ? AND success = ?", since, false).
		Count(&n)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count failed launches")
	}
	return n, nil
}

// GetRecentLaunches returns the newest launches first
func (r *Repository) GetRecentLaunches(limit int) ([]*models.LaunchEvent, error) {
	var events []*models.LaunchEvent
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query recent launches")
	}
	return events, nil
}

// DeleteOldLaunches deletes launches older than a specified date (soft delete)
func (r *Repository) DeleteOldLaunches(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.LaunchEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old launches")
	}
	return result.RowsAffected, nil
}

// GetLatest retrieves the most recent launch event
func (r *Repository) GetLatest() (*models.LaunchEvent, error) {
	var event models.LaunchEvent
	result := r.db.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest launch")
	}
	return &event, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetRecentErrors returns the newest error logs first
func (r *Repository) GetRecentErrors(limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all launch events and error logs from the database
func (r *Repository) Clear() error {
	if result := r.db.Exec("DELETE FROM launch_events"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear launch events")
	}
	if result := r.db.Exec("DELETE FROM error_logs"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}
