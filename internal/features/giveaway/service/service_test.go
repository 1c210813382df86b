package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository"
	"mutual-giveaway-backend/internal/features/giveaway/repository/memory"
)

type serviceFixture struct {
	service   GiveawayService
	repo      *memory.GiveawayRepository
	ledger    *memory.PingLedgerRepository
	scheduler *Scheduler
	sender    *fakeSender
	notifier  *fakeNotifier
	announcer *fakeAnnouncer
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	repo := memory.NewGiveawayRepository()
	ledger := memory.NewPingLedgerRepository()
	sender := &fakeSender{}
	notifier := &fakeNotifier{}
	announcer := &fakeAnnouncer{}
	poster := NewPoster(repo, ledger, sender, notifier, "channel-1", "role-1")
	scheduler := NewScheduler(repo, ledger, poster, notifier, time.Hour, time.Hour)
	t.Cleanup(func() {
		scheduler.mu.Lock()
		for id, timer := range scheduler.tasks {
			timer.Stop()
			delete(scheduler.tasks, id)
		}
		scheduler.mu.Unlock()
	})

	return &serviceFixture{
		service:   NewGiveawayService(repo, ledger, scheduler, notifier, announcer, "mgmt-channel"),
		repo:      repo,
		ledger:    ledger,
		scheduler: scheduler,
		sender:    sender,
		notifier:  notifier,
		announcer: announcer,
	}
}

func testCreateInput() models.GiveawayCreate {
	return models.GiveawayCreate{
		RequesterUserID:   "user-1",
		RequesterUsername: "requester",
		ServerName:        "Partner Server",
		ServerInvite:      "https://discord.gg/partner",
		MemberCount:       5000,
		OurPing:           models.PingNone,
		TheirPing:         "@everyone",
		Prize:             "Nitro",
	}
}

func TestCreateRequestStartsPending(t *testing.T) {
	f := newServiceFixture(t)

	g, err := f.service.CreateRequest(context.Background(), testCreateInput())
	require.NoError(t, err)

	assert.Equal(t, int64(1), g.ID)
	assert.Equal(t, models.GiveawayStatusPending, g.Status)
	assert.WithinDuration(t, time.Now(), g.RequestedAt, 2*time.Second)
	assert.Nil(t, g.ScheduledFor)
}

func TestApproveSchedulesGiveaway(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	g, err := f.service.CreateRequest(ctx, testCreateInput())
	require.NoError(t, err)

	approved, err := f.service.Approve(ctx, g.ID, "Looks good")
	require.NoError(t, err)

	assert.Equal(t, models.GiveawayStatusApproved, approved.Status)
	assert.Equal(t, "Looks good", approved.ApprovalMessage)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.ScheduledFor)
	assert.Equal(t, 1, f.scheduler.TaskCount())
}

func TestApproveRejectsNonPending(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	g, err := f.service.CreateRequest(ctx, testCreateInput())
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, g.ID, "")
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, g.ID, "")
	assert.ErrorIs(t, err, models.ErrNotPending)

	_, err = f.service.Deny(ctx, g.ID, "changed my mind")
	assert.ErrorIs(t, err, models.ErrNotPending)
}

func TestApproveUnknownGiveaway(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Approve(context.Background(), 42, "")
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
}

func TestDenyRecordsReason(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	g, err := f.service.CreateRequest(ctx, testCreateInput())
	require.NoError(t, err)

	denied, err := f.service.Deny(ctx, g.ID, "Server too small")
	require.NoError(t, err)

	assert.Equal(t, models.GiveawayStatusDenied, denied.Status)
	assert.Equal(t, "Server too small", denied.DenialReason)
	require.NotNil(t, denied.DeniedAt)
	// Denial never reaches the scheduler.
	assert.Equal(t, 0, f.scheduler.TaskCount())
}

func TestCancelApprovedGiveaway(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	g, err := f.service.CreateRequest(ctx, testCreateInput())
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, g.ID, "")
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	cancelled, err = f.service.Cancel(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)
}

func TestCancelUnknownGiveaway(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Cancel(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrGiveawayNotFound)
}

func TestPerformanceStats(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		status      models.GiveawayStatus
		ourPing     string
		serverName  string
		memberCount int
		requestedAt time.Time
		approvedAt  *time.Time
	}{
		{models.GiveawayStatusPosted, models.PingEveryone, "Alpha", 1000, base, timePtr(base.Add(2 * time.Hour))},
		{models.GiveawayStatusPosted, models.PingHere, "Alpha", 2000, base.AddDate(0, 1, 0), timePtr(base.AddDate(0, 1, 0).Add(4 * time.Hour))},
		{models.GiveawayStatusPending, "No Ping", "Beta", 3000, base.AddDate(0, 1, 2), nil},
		{models.GiveawayStatusDenied, models.PingEveryone, "Gamma", 2000, base.AddDate(0, 1, 3), nil},
	}
	for _, s := range seed {
		g := &models.GiveawayRequest{
			RequesterUserID: "user-1",
			ServerName:      s.serverName,
			MemberCount:     s.memberCount,
			OurPing:         s.ourPing,
			TheirPing:       "@everyone",
			Prize:           "Nitro",
			RequestedAt:     s.requestedAt,
			Status:          s.status,
			ApprovedAt:      s.approvedAt,
		}
		require.NoError(t, f.repo.Create(ctx, g))
	}

	stats, err := f.service.PerformanceStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalGiveaways)
	assert.Equal(t, 2, stats.CompletedGiveaways)
	assert.Equal(t, 1, stats.PendingGiveaways)
	assert.Equal(t, 1, stats.DeniedGiveaways)
	assert.Equal(t, 2, stats.PingUsageStats.Everyone)
	assert.Equal(t, 1, stats.PingUsageStats.Here)
	assert.Equal(t, 1, stats.PingUsageStats.Other)
	assert.InDelta(t, 3.0, stats.AverageTimeToApproval, 0.001)
	assert.Equal(t, 2000, stats.AverageServerSize)

	require.Len(t, stats.MonthlyGiveaways, 2)
	assert.Equal(t, models.MonthlyCount{Month: "April 2025", Count: 1}, stats.MonthlyGiveaways[0])
	assert.Equal(t, models.MonthlyCount{Month: "May 2025", Count: 3}, stats.MonthlyGiveaways[1])

	require.NotEmpty(t, stats.PopularServers)
	assert.Equal(t, models.ServerCount{ServerName: "Alpha", Count: 2}, stats.PopularServers[0])
}

func TestPingStatusReflectsLedger(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	ledger, err := f.service.PingStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, ledger.Everyone)
	assert.Nil(t, ledger.Here)

	now := time.Now()
	_, err = f.ledger.Update(ctx, models.PingLedgerUpdate{Everyone: &now})
	require.NoError(t, err)

	ledger, err = f.service.PingStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, ledger.Everyone)
	assert.Nil(t, ledger.Here)
}
