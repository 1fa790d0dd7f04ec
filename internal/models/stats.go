package models

import "time"

// StatsPeriod is the time window statistics are aggregated over.
type StatsPeriod string

const (
	PeriodDay   StatsPeriod = "day"
	PeriodWeek  StatsPeriod = "week"
	PeriodMonth StatsPeriod = "month"
	PeriodYear  StatsPeriod = "year"
	PeriodAll   StatsPeriod = "all"
)

func (p StatsPeriod) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return true
	}
	return false
}

// Start returns the beginning of the window ending at now. The day window is
// the current UTC calendar day; week/month/year are rolling. The zero time
// means no lower bound.
func (p StatsPeriod) Start(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case PeriodDay:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

// QueueStats is a point-in-time snapshot of the review queue, recomputed on
// demand rather than stored.
type QueueStats struct {
	PendingReview int64 `json:"pendingReview"`
	AICompleted   int64 `json:"aiCompleted"`
	InReview      int64 `json:"inReview"`
	Approved      int64 `json:"approved"`
	Rejected      int64 `json:"rejected"`
	ApprovedToday int64 `json:"approvedToday"`
}

type TranslatorStats struct {
	TranslatorID string      `json:"translatorId"`
	Period       StatsPeriod `json:"period"`

	// Windowed counts.
	Approved   int64 `json:"approved"`
	Rejected   int64 `json:"rejected"`
	InProgress int64 `json:"inProgress"`

	ApprovalRate         float64 `json:"approvalRate"`
	AvgReviewTimeMinutes float64 `json:"avgReviewTimeMinutes"`

	// All-time counters, independent of the requested window.
	TotalApproved int64 `json:"totalApproved"`
	TotalRejected int64 `json:"totalRejected"`
}

type LeaderboardEntry struct {
	TranslatorID      string `json:"translatorId"`
	TranslatorName    string `json:"translatorName"`
	DocumentsApproved int64  `json:"documentsApproved"`
}
