package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mutual-giveaway-backend/internal/common/logger"
	"mutual-giveaway-backend/internal/features/invite/models"
	"mutual-giveaway-backend/internal/features/invite/repository"
)

// StartOfWeek returns the Sunday 00:00 UTC that begins the week containing t.
// Invite totals and the staff quota both count from this boundary.
func StartOfWeek(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(t.Weekday()))
}

// InviteService tracks guild invite usage attributed to staff members.
type InviteService interface {
	// RecordUse upserts the record for an invite code with the latest use
	// count and the inviter's identity.
	RecordUse(ctx context.Context, code, staffUserID, staffUsername string, uses int) (*models.Invite, error)
	// UserWeeklySummary aggregates one staff member's invites for the
	// current week.
	UserWeeklySummary(ctx context.Context, staffUserID string) (*models.UserInviteSummary, error)
	// WeeklyStats aggregates per-staff invite totals for the current week,
	// sorted by uses descending.
	WeeklyStats(ctx context.Context) ([]models.StaffInviteUsage, error)
	// StatsSince is WeeklyStats over an arbitrary window start. A zero time
	// covers everything currently tracked.
	StatsSince(ctx context.Context, since time.Time) ([]models.StaffInviteUsage, error)
	// ClearAll drops all tracked invites after the weekly report runs.
	ClearAll(ctx context.Context) error
}

type inviteService struct {
	repo repository.InviteRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewInviteService(repo repository.InviteRepository) InviteService {
	return &inviteService{
		repo: repo,
		log:  logger.With("invite_service"),
		now:  time.Now,
	}
}

func (s *inviteService) RecordUse(ctx context.Context, code, staffUserID, staffUsername string, uses int) (*models.Invite, error) {
	now := s.now()

	invite, err := s.repo.GetByCode(ctx, code)
	switch {
	case err == repository.ErrInviteNotFound:
		invite = &models.Invite{
			ID:            uuid.NewString(),
			InviteCode:    code,
			StaffUserID:   staffUserID,
			StaffUsername: staffUsername,
			Uses:          uses,
			CreatedAt:     now,
			LastUpdated:   now,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load invite %s: %w", code, err)
	default:
		invite.Uses = uses
		invite.StaffUsername = staffUsername
		invite.LastUpdated = now
	}

	if err := s.repo.Upsert(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to store invite %s: %w", code, err)
	}

	s.log.Debug().
		Str("invite_code", code).
		Str("staff", staffUsername).
		Int("uses", uses).
		Msg("Invite use recorded")
	return invite, nil
}

func (s *inviteService) UserWeeklySummary(ctx context.Context, staffUserID string) (*models.UserInviteSummary, error) {
	weekStart := StartOfWeek(s.now())
	invites, err := s.repo.ListUpdatedSince(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	summary := &models.UserInviteSummary{
		StaffUserID: staffUserID,
		WeekStart:   weekStart,
	}
	for _, invite := range invites {
		if invite.StaffUserID != staffUserID {
			continue
		}
		summary.StaffUsername = invite.StaffUsername
		summary.InviteCodes = append(summary.InviteCodes, invite.InviteCode)
		summary.TotalUses += invite.Uses
	}
	return summary, nil
}

func (s *inviteService) WeeklyStats(ctx context.Context) ([]models.StaffInviteUsage, error) {
	return s.StatsSince(ctx, StartOfWeek(s.now()))
}

func (s *inviteService) StatsSince(ctx context.Context, since time.Time) ([]models.StaffInviteUsage, error) {
	invites, err := s.repo.ListUpdatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	byUser := make(map[string]*models.StaffInviteUsage)
	for _, invite := range invites {
		usage, ok := byUser[invite.StaffUserID]
		if !ok {
			usage = &models.StaffInviteUsage{
				StaffUserID:   invite.StaffUserID,
				StaffUsername: invite.StaffUsername,
			}
			byUser[invite.StaffUserID] = usage
		}
		usage.Uses += invite.Uses
	}

	stats := make([]models.StaffInviteUsage, 0, len(byUser))
	for _, usage := range byUser {
		stats = append(stats, *usage)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Uses != stats[j].Uses {
			return stats[i].Uses > stats[j].Uses
		}
		return stats[i].StaffUsername < stats[j].StaffUsername
	})
	return stats, nil
}

func (s *inviteService) ClearAll(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear invites: %w", err)
	}
	s.log.Info().Msg("Invite tracking cleared")
	return nil
}
