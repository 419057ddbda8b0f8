package models

import "time"

const (
	DefaultDailyCap              = 2.00
	DefaultNotificationThreshold = 1.50
)

// CostSettings is the singleton daily budget record.
type CostSettings struct {
	DailyCap              float64   `json:"daily_cap"`
	NotificationThreshold float64   `json:"notification_threshold"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func DefaultCostSettings() CostSettings {
	return CostSettings{
		DailyCap:              DefaultDailyCap,
		NotificationThreshold: DefaultNotificationThreshold,
	}
}

// DailySpend is the aggregate of analyzed-call cost for one calendar day,
// recomputed from activity rows rather than maintained incrementally.
type DailySpend struct {
	Date     time.Time `json:"date"`
	Cost     float64   `json:"cost"`
	Tokens   int       `json:"tokens"`
	Requests int       `json:"requests"`
}
