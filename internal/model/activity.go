package model

import "time"

const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionPasswordChange = "password_change"
	ActionReactivate     = "reactivate"
)

const (
	TargetUser   = "user"
	TargetMember = "member"
	TargetPoint  = "point"
)

var actionTypes = map[string]bool{
	ActionCreate:         true,
	ActionUpdate:         true,
	ActionDelete:         true,
	ActionLogin:          true,
	ActionLogout:         true,
	ActionPasswordChange: true,
	ActionReactivate:     true,
}

var targetTypes = map[string]bool{
	TargetUser:   true,
	TargetMember: true,
	TargetPoint:  true,
}

func ValidActionType(t string) bool { return actionTypes[t] }
func ValidTargetType(t string) bool { return targetTypes[t] }

// ActivityLog records a single audited action.
type ActivityLog struct {
	ID          int64     `json:"id"`
	ActionType  string    `json:"action_type"`
	TargetType  string    `json:"target_type"`
	TargetID    *int64    `json:"target_id,omitempty"`
	Details     string    `json:"details"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatorName string    `json:"creator_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
