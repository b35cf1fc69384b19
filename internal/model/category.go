package model

// Point categories are a fixed enumeration shared by all roles. The negative
// list order is a priority ranking and must be preserved when rendered.
var PositiveCategories = []string{
	"chat_activity",
	"event_attendance",
	"event_design",
	"event_idea",
	"daily_top",
	"other",
}

var NegativeCategories = []string{
	"weak_interaction",
	"missed_meeting",
	"design_shortcoming",
	"inappropriate_behavior",
	"unexcused_absence",
	"other",
}

// CategoryChatActivity feeds the member-detail chat activity counter.
const CategoryChatActivity = "chat_activity"

// ValidCategory reports whether category belongs to the list for pointType.
func ValidCategory(pointType, category string) bool {
	var list []string
	switch pointType {
	case PointPositive:
		list = PositiveCategories
	case PointNegative:
		list = NegativeCategories
	default:
		return false
	}
	for _, c := range list {
		if c == category {
			return true
		}
	}
	return false
}
