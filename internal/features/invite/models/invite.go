package models

import "time"

// Invite is one tracked guild invite, attributed to the staff member who
// created it. Uses mirrors Discord's use counter for the code.
type Invite struct {
	ID            string    `json:"id"`
	InviteCode    string    `json:"invite_code"`
	StaffUserID   string    `json:"staff_user_id"`
	StaffUsername string    `json:"staff_username"`
	Uses          int       `json:"uses"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdated   time.Time `json:"last_updated"`
}

// StaffInviteUsage is one staff member's invite total for a period.
type StaffInviteUsage struct {
	StaffUserID   string `json:"staff_user_id"`
	StaffUsername string `json:"staff_username"`
	Uses          int    `json:"uses"`
}

// UserInviteSummary is the per-user view served by /checkinvites.
type UserInviteSummary struct {
	StaffUserID   string    `json:"staff_user_id"`
	StaffUsername string    `json:"staff_username"`
	WeekStart     time.Time `json:"week_start"`
	InviteCodes   []string  `json:"invite_codes"`
	TotalUses     int       `json:"total_uses"`
}
