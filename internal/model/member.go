package model

import "time"

// Performance classification comparing the current week's net points against
// the previous week's.
const (
	PerformanceImproved = "improved"
	PerformanceStable   = "stable"
	PerformanceDeclined = "declined"
)

type Member struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberSummary is a member with point counts aggregated over a date window.
// TotalPoints can be negative.
type MemberSummary struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
	TotalPoints   int       `json:"total_points"`
	CreatedAt     time.Time `json:"created_at"`
}

// MemberStats holds the detail-view statistics for a single member.
type MemberStats struct {
	TotalPositive        int    `json:"total_positive"`
	TotalNegative        int    `json:"total_negative"`
	FilteredChatActivity int    `json:"filtered_chat_activity"`
	CurrentWeekPositive  int    `json:"current_week_positive"`
	CurrentWeekNegative  int    `json:"current_week_negative"`
	PreviousWeekPositive int    `json:"previous_week_positive"`
	PreviousWeekNegative int    `json:"previous_week_negative"`
	Performance          string `json:"performance"`
}

// ClassifyPerformance compares net weekly totals.
func ClassifyPerformance(currentNet, previousNet int) string {
	switch {
	case currentNet > previousNet:
		return PerformanceImproved
	case currentNet < previousNet:
		return PerformanceDeclined
	default:
		return PerformanceStable
	}
}
