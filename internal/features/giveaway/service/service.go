package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"mutual-giveaway-backend/internal/common/logger"
	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository"
)

type giveawayService struct {
	repo                repository.GiveawayRepository
	ledger              repository.PingLedgerRepository
	scheduler           *Scheduler
	notifier            Notifier
	announcer           RequestAnnouncer
	managementChannelID string
	log                 zerolog.Logger
	now                 func() time.Time
}

func NewGiveawayService(
	repo repository.GiveawayRepository,
	ledger repository.PingLedgerRepository,
	scheduler *Scheduler,
	notifier Notifier,
	announcer RequestAnnouncer,
	managementChannelID string,
) GiveawayService {
	return &giveawayService{
		repo:                repo,
		ledger:              ledger,
		scheduler:           scheduler,
		notifier:            notifier,
		announcer:           announcer,
		managementChannelID: managementChannelID,
		log:                 logger.With("giveaway_service"),
		now:                 time.Now,
	}
}

// CreateRequest stores a new pending request and notifies the management
// channel. The notice is best-effort; the request is stored either way.
func (s *giveawayService) CreateRequest(ctx context.Context, input models.GiveawayCreate) (*models.GiveawayRequest, error) {
	g := &models.GiveawayRequest{
		RequesterUserID:   input.RequesterUserID,
		RequesterUsername: input.RequesterUsername,
		ServerName:        input.ServerName,
		ServerInvite:      input.ServerInvite,
		MemberCount:       input.MemberCount,
		OurPing:           input.OurPing,
		TheirPing:         input.TheirPing,
		Prize:             input.Prize,
		RequestedAt:       s.now(),
		Status:            models.GiveawayStatusPending,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to store giveaway request: %w", err)
	}

	s.log.Info().
		Int64("giveaway_id", g.ID).
		Str("requester", g.RequesterUsername).
		Str("server_name", g.ServerName).
		Msg("Giveaway request created")

	if s.managementChannelID != "" {
		go s.announceRequest(g)
	}
	return g, nil
}

func (s *giveawayService) GetByID(ctx context.Context, id int64) (*models.GiveawayRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *giveawayService) ListByStatus(ctx context.Context, status models.GiveawayStatus) ([]*models.GiveawayRequest, error) {
	return s.repo.ListByStatus(ctx, status)
}

// Approve transitions a pending request to approved and schedules it. An
// already-approved request that never got a scheduled time (a crash between
// the two writes) is re-scheduled without touching the approval fields.
func (s *giveawayService) Approve(ctx context.Context, id int64, message string) (*models.GiveawayRequest, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch g.Status {
	case models.GiveawayStatusPending:
		status := models.GiveawayStatusApproved
		now := s.now()
		g, err = s.repo.Update(ctx, id, models.GiveawayUpdate{
			Status:          &status,
			ApprovedAt:      &now,
			ApprovalMessage: &message,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to approve giveaway %d: %w", id, err)
		}
	case models.GiveawayStatusApproved:
		if g.ScheduledFor != nil {
			return nil, models.ErrNotPending
		}
	default:
		return nil, models.ErrNotPending
	}

	when, err := s.scheduler.Schedule(ctx, g)
	if err != nil {
		return nil, err
	}
	g.ScheduledFor = &when

	s.log.Info().
		Int64("giveaway_id", id).
		Time("scheduled_for", when).
		Msg("Giveaway approved")
	return g, nil
}

// Deny transitions a pending request to denied and DMs the requester the
// reason.
func (s *giveawayService) Deny(ctx context.Context, id int64, reason string) (*models.GiveawayRequest, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status != models.GiveawayStatusPending {
		return nil, models.ErrNotPending
	}

	status := models.GiveawayStatusDenied
	now := s.now()
	g, err = s.repo.Update(ctx, id, models.GiveawayUpdate{
		Status:       &status,
		DeniedAt:     &now,
		DenialReason: &reason,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deny giveaway %d: %w", id, err)
	}

	s.log.Info().Int64("giveaway_id", id).Str("reason", reason).Msg("Giveaway denied")
	go s.notifyDenied(g)
	return g, nil
}

// Cancel disarms a scheduled giveaway. Returns false when nothing was
// scheduled for the id; the record is left untouched in that case.
func (s *giveawayService) Cancel(ctx context.Context, id int64) (bool, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return false, err
	}
	return s.scheduler.Cancel(ctx, id)
}

func (s *giveawayService) PingStatus(ctx context.Context) (*models.PingLedger, error) {
	return s.ledger.Get(ctx)
}

// PerformanceStats aggregates the full request history for the dashboard.
func (s *giveawayService) PerformanceStats(ctx context.Context) (*models.PerformanceStats, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}

	stats := &models.PerformanceStats{TotalGiveaways: len(all)}

	type monthBucket struct {
		start time.Time
		count int
	}
	months := make(map[string]*monthBucket)
	servers := make(map[string]int)

	var approvalHours float64
	var approvedCount int
	var memberTotal int

	for _, g := range all {
		switch g.Status {
		case models.GiveawayStatusPosted:
			stats.CompletedGiveaways++
		case models.GiveawayStatusPending:
			stats.PendingGiveaways++
		case models.GiveawayStatusDenied:
			stats.DeniedGiveaways++
		}

		switch g.OurPing {
		case models.PingEveryone:
			stats.PingUsageStats.Everyone++
		case models.PingHere:
			stats.PingUsageStats.Here++
		default:
			stats.PingUsageStats.Other++
		}

		if g.ApprovedAt != nil {
			approvalHours += g.ApprovedAt.Sub(g.RequestedAt).Hours()
			approvedCount++
		}
		memberTotal += g.MemberCount

		start := time.Date(g.RequestedAt.Year(), g.RequestedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		key := g.RequestedAt.Format("January 2006")
		if bucket, ok := months[key]; ok {
			bucket.count++
		} else {
			months[key] = &monthBucket{start: start, count: 1}
		}
		servers[g.ServerName]++
	}

	if approvedCount > 0 {
		stats.AverageTimeToApproval = approvalHours / float64(approvedCount)
	}
	if len(all) > 0 {
		stats.AverageServerSize = memberTotal / len(all)
	}

	for key, bucket := range months {
		stats.MonthlyGiveaways = append(stats.MonthlyGiveaways, models.MonthlyCount{
			Month: key,
			Count: bucket.count,
		})
	}
	sort.Slice(stats.MonthlyGiveaways, func(i, j int) bool {
		return months[stats.MonthlyGiveaways[i].Month].start.Before(months[stats.MonthlyGiveaways[j].Month].start)
	})

	for name, count := range servers {
		stats.PopularServers = append(stats.PopularServers, models.ServerCount{
			ServerName: name,
			Count:      count,
		})
	}
	sort.Slice(stats.PopularServers, func(i, j int) bool {
		if stats.PopularServers[i].Count != stats.PopularServers[j].Count {
			return stats.PopularServers[i].Count > stats.PopularServers[j].Count
		}
		return stats.PopularServers[i].ServerName < stats.PopularServers[j].ServerName
	})
	if len(stats.PopularServers) > 5 {
		stats.PopularServers = stats.PopularServers[:5]
	}

	return stats, nil
}

func (s *giveawayService) announceRequest(g *models.GiveawayRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.announcer.SendRequestNotice(ctx, s.managementChannelID, g); err != nil {
		s.log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to post request notice")
	}
}

func (s *giveawayService) notifyDenied(g *models.GiveawayRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	content := fmt.Sprintf("Your giveaway request for **%s** has been denied.", g.ServerName)
	if g.DenialReason != "" {
		content += fmt.Sprintf("\nReason: %s", g.DenialReason)
	}
	if err := s.notifier.DM(ctx, g.RequesterUserID, content); err != nil {
		s.log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to notify requester of denial")
	}
}
