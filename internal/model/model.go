package model

import (
	"time"

	"jalaliflow/internal/schedule"
)

// RecurringEvent is a stored event that fires on Jalali dates.
//
// The engine only reads NextRun and Frequency; the Action is executed by the
// runner.
type RecurringEvent struct {
	ID        string             `yaml:"id" json:"id"`
	Name      string             `yaml:"name" json:"name" validate:"required,max=255"`
	Frequency schedule.Frequency `yaml:"frequency" json:"frequency" validate:"required,frequency"`
	// StartDate and NextRun are "YYYY/MM/DD" Jalali strings.
	StartDate string    `yaml:"start_date" json:"start_date" validate:"required,jalali_date"`
	NextRun   string    `yaml:"next_run" json:"next_run" validate:"required,jalali_date"`
	Action    Action    `yaml:"action" json:"action" validate:"-"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`
}

// Occurrence is a single dated entry from an external holiday feed after
// recurrence expansion.
type Occurrence struct {
	SourceID string // feed ID from the configuration
	UID      string // iCalendar UID

	// InstanceKey identifies one instance of a recurring feed entry.
	InstanceKey string

	Summary string

	// Start is midnight of the occurrence day in the display timezone.
	Start time.Time
}
