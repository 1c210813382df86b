package models

import (
	"errors"
	"time"
)

var (
	ErrNotPending     = errors.New("giveaway request is not pending")
	ErrTerminalStatus = errors.New("giveaway request is in a terminal status")
)

// GiveawayStatus represents the lifecycle status of a giveaway request.
type GiveawayStatus string

const (
	GiveawayStatusPending   GiveawayStatus = "pending"   // Awaiting management decision
	GiveawayStatusApproved  GiveawayStatus = "approved"  // Approved, scheduled for posting
	GiveawayStatusDenied    GiveawayStatus = "denied"    // Denied by management
	GiveawayStatusPosted    GiveawayStatus = "posted"    // Announcement sent to the giveaway channel
	GiveawayStatusCancelled GiveawayStatus = "cancelled" // Approved then cancelled before posting
)

// IsTerminal reports whether no further transition may leave this status.
func (s GiveawayStatus) IsTerminal() bool {
	switch s {
	case GiveawayStatusDenied, GiveawayStatusPosted, GiveawayStatusCancelled:
		return true
	}
	return false
}

// Ping values recognized by the scheduler. OurPing may also carry free-form
// text, which is sent verbatim without touching the ping ledger.
const (
	PingEveryone   = "@everyone"
	PingHere       = "@here"
	PingMutualRole = "@Mutual Giveaways"
	PingNone       = "No Ping"
)

// GiveawayRequest represents a mutual giveaway request made by a staff member.
type GiveawayRequest struct {
	ID                int64          `json:"id"`
	RequesterUserID   string         `json:"requester_user_id"`
	RequesterUsername string         `json:"requester_username"`
	ServerName        string         `json:"server_name"`
	ServerInvite      string         `json:"server_invite"`
	MemberCount       int            `json:"member_count"`
	OurPing           string         `json:"our_ping"`
	TheirPing         string         `json:"their_ping"`
	Prize             string         `json:"prize"`
	RequestedAt       time.Time      `json:"requested_at"`
	Status            GiveawayStatus `json:"status"`
	ApprovedAt        *time.Time     `json:"approved_at,omitempty"`
	DeniedAt          *time.Time     `json:"denied_at,omitempty"`
	PostedAt          *time.Time     `json:"posted_at,omitempty"`
	ScheduledFor      *time.Time     `json:"scheduled_for,omitempty"`
	ApprovalMessage   string         `json:"approval_message,omitempty"`
	DenialReason      string         `json:"denial_reason,omitempty"`
}

// UsesBroadcastPing reports whether this request consumes one of the two
// rate-limited mention slots.
func (g *GiveawayRequest) UsesBroadcastPing() bool {
	return g.OurPing == PingEveryone || g.OurPing == PingHere
}

// GiveawayCreate represents data for creating a new giveaway request.
type GiveawayCreate struct {
	RequesterUserID   string `json:"requester_user_id" binding:"required"`
	RequesterUsername string `json:"requester_username" binding:"required"`
	ServerName        string `json:"server_name" binding:"required,min=2,max=100"`
	ServerInvite      string `json:"server_invite" binding:"required"`
	MemberCount       int    `json:"member_count" binding:"required,min=1"`
	OurPing           string `json:"our_ping" binding:"required"`
	TheirPing         string `json:"their_ping" binding:"required"`
	Prize             string `json:"prize" binding:"required,min=2,max=500"`
}

// GiveawayUpdate is a partial update applied to a stored request. Nil fields
// are left untouched. The store applies it blindly; callers are responsible
// for writing semantically valid transitions.
type GiveawayUpdate struct {
	Status            *GiveawayStatus
	ApprovedAt        *time.Time
	DeniedAt          *time.Time
	PostedAt          *time.Time
	ScheduledFor      *time.Time
	ClearScheduledFor bool
	ApprovalMessage   *string
	DenialReason      *string
}

// Apply merges the partial update into the request.
func (g *GiveawayRequest) Apply(u GiveawayUpdate) {
	if u.Status != nil {
		g.Status = *u.Status
	}
	if u.ApprovedAt != nil {
		g.ApprovedAt = u.ApprovedAt
	}
	if u.DeniedAt != nil {
		g.DeniedAt = u.DeniedAt
	}
	if u.PostedAt != nil {
		g.PostedAt = u.PostedAt
	}
	if u.ScheduledFor != nil {
		g.ScheduledFor = u.ScheduledFor
	}
	if u.ClearScheduledFor {
		g.ScheduledFor = nil
	}
	if u.ApprovalMessage != nil {
		g.ApprovalMessage = *u.ApprovalMessage
	}
	if u.DenialReason != nil {
		g.DenialReason = *u.DenialReason
	}
}

// Announcement is the channel message payload built from an approved request.
type Announcement struct {
	ServerName   string
	ServerInvite string
	Prize        string
}
