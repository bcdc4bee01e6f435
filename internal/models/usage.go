package models

import "time"

const (
	UsageLevelOK      = "ok"
	UsageLevelWarning = "warning"
	UsageLevelLimit   = "limit"
)

type UsageCounter struct {
	Used    int     `json:"used"`
	Limit   int     `json:"limit"`
	Percent float64 `json:"percent"`
	Level   string  `json:"level"`
}

type UsageStats struct {
	PlanID             *uint        `json:"plan_id"`
	PlanName           string       `json:"plan_name,omitempty"`
	ProfileDiscoveries UsageCounter `json:"profile_discoveries"`
	TranscriptViews    UsageCounter `json:"transcript_views"`
	ResetDate          time.Time    `json:"reset_date"`
}

type AdminStats struct {
	TotalUsers         int64            `json:"total_users"`
	AdminUsers         int64            `json:"admin_users"`
	UsersByStatus      map[string]int64 `json:"users_by_status"`
	UsersByPlan        map[string]int64 `json:"users_by_plan"`
	NewUsersLast7Days  int64            `json:"new_users_last_7_days"`
	NewUsersLast30Days int64            `json:"new_users_last_30_days"`
	Folders            int64            `json:"folders"`
	Boards             int64            `json:"boards"`
	SharedBoards       int64            `json:"shared_boards"`
	Posts              int64            `json:"posts"`
	Profiles           int64            `json:"profiles"`
	Follows            int64            `json:"follows"`
}

type UserList struct {
	Users []User `json:"users"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type SetPlanRequest struct {
	PlanID *uint `json:"plan_id"`
}
