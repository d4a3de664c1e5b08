package models

import (
	"time"

	"gorm.io/gorm"
)

// Launch methods recorded on a LaunchEvent
const (
	MethodSpawn = "spawn"
	MethodShell = "shell"
	MethodOpen  = "open"
	MethodFocus = "focus"
)

type LaunchEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	RunID     string         `gorm:"not null;uniqueIndex" json:"run_id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Name      string         `gorm:"not null;index" json:"name"`
	Path      string         `gorm:"not null;index" json:"path"`
	Method    string         `gorm:"not null" json:"method"`
	Success   bool           `gorm:"not null;default:true" json:"success"`
	ErrorMsg  string         `json:"error_msg,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type LaunchSummary struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Launches   int64     `json:"launches"`
	LastLaunch time.Time `json:"last_launch"`
	Percentage float64   `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period        ReportPeriod    `json:"period"`
	Apps          []LaunchSummary `json:"apps"`
	TotalLaunches int64           `json:"total_launches"`
	Failures      int64           `json:"failures"`
	GeneratedAt   time.Time       `json:"generated_at"`
}
