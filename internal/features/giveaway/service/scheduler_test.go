package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository/memory"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestComputeScheduledTime(t *testing.T) {
	now := time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		ping   string
		ledger models.PingLedger
		want   time.Time
	}{
		{
			name: "no ping posts immediately",
			ping: models.PingNone,
			ledger: models.PingLedger{
				Everyone: timePtr(now.Add(-time.Hour)),
				Here:     timePtr(now.Add(-time.Hour)),
			},
			want: now,
		},
		{
			name:   "custom mention posts immediately",
			ping:   "@Partners",
			ledger: models.PingLedger{Everyone: timePtr(now.Add(-time.Hour))},
			want:   now,
		},
		{
			name:   "everyone with empty ledger posts immediately",
			ping:   models.PingEveryone,
			ledger: models.PingLedger{},
			want:   now,
		},
		{
			name:   "everyone waits a day after the last everyone",
			ping:   models.PingEveryone,
			ledger: models.PingLedger{Everyone: timePtr(now.Add(-2 * time.Hour))},
			want:   now.Add(22 * time.Hour),
		},
		{
			name:   "everyone ignores the here slot",
			ping:   models.PingEveryone,
			ledger: models.PingLedger{Here: timePtr(now.Add(-time.Hour))},
			want:   now,
		},
		{
			name:   "here waits a day after the last here",
			ping:   models.PingHere,
			ledger: models.PingLedger{Here: timePtr(now.Add(-3 * time.Hour))},
			want:   now.Add(21 * time.Hour),
		},
		{
			name:   "here with empty ledger posts immediately",
			ping:   models.PingHere,
			ledger: models.PingLedger{},
			want:   now,
		},
		{
			name:   "here allowed on the same day as an everyone",
			ping:   models.PingHere,
			ledger: models.PingLedger{Everyone: timePtr(now.Add(-6 * time.Hour))},
			want:   now,
		},
		{
			name:   "here after a lapsed everyone keys off the everyone slot",
			ping:   models.PingHere,
			ledger: models.PingLedger{Everyone: timePtr(now.Add(-30 * time.Hour))},
			want:   now.Add(-6 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &models.GiveawayRequest{OurPing: tt.ping}
			got := ComputeScheduledTime(g, &tt.ledger, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

type schedulerFixture struct {
	scheduler *Scheduler
	repo      *memory.GiveawayRepository
	ledger    *memory.PingLedgerRepository
	sender    *fakeSender
	notifier  *fakeNotifier
}

func newSchedulerFixture(t *testing.T, minLead time.Duration) *schedulerFixture {
	t.Helper()

	repo := memory.NewGiveawayRepository()
	ledger := memory.NewPingLedgerRepository()
	sender := &fakeSender{}
	notifier := &fakeNotifier{}
	poster := NewPoster(repo, ledger, sender, notifier, "channel-1", "role-1")
	scheduler := NewScheduler(repo, ledger, poster, notifier, minLead, time.Hour)
	t.Cleanup(func() {
		scheduler.mu.Lock()
		for id, timer := range scheduler.tasks {
			timer.Stop()
			delete(scheduler.tasks, id)
		}
		scheduler.mu.Unlock()
	})

	return &schedulerFixture{
		scheduler: scheduler,
		repo:      repo,
		ledger:    ledger,
		sender:    sender,
		notifier:  notifier,
	}
}

func (f *schedulerFixture) createApproved(t *testing.T, ourPing string) *models.GiveawayRequest {
	t.Helper()

	ctx := context.Background()
	g := &models.GiveawayRequest{
		RequesterUserID:   "user-1",
		RequesterUsername: "requester",
		ServerName:        "Partner Server",
		ServerInvite:      "https://discord.gg/partner",
		MemberCount:       5000,
		OurPing:           ourPing,
		TheirPing:         "@everyone",
		Prize:             "Nitro",
		RequestedAt:       time.Now(),
		Status:            models.GiveawayStatusPending,
	}
	require.NoError(t, f.repo.Create(ctx, g))

	status := models.GiveawayStatusApproved
	now := time.Now()
	updated, err := f.repo.Update(ctx, g.ID, models.GiveawayUpdate{Status: &status, ApprovedAt: &now})
	require.NoError(t, err)
	return updated
}

func TestSchedulePersistsBeforeArming(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	g := f.createApproved(t, models.PingNone)

	when, err := f.scheduler.Schedule(context.Background(), g)
	require.NoError(t, err)

	stored, err := f.repo.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ScheduledFor)
	assert.True(t, stored.ScheduledFor.Equal(when))
	assert.Equal(t, 1, f.scheduler.TaskCount())
}

func TestScheduleClampsToMinimumLead(t *testing.T) {
	f := newSchedulerFixture(t, time.Minute)
	g := f.createApproved(t, models.PingEveryone)

	before := time.Now()
	when, err := f.scheduler.Schedule(context.Background(), g)
	require.NoError(t, err)

	// Empty ledger means "now", which the lead clamp pushes out.
	assert.WithinDuration(t, before.Add(time.Minute), when, 2*time.Second)
}

func TestScheduleIsIdempotent(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	g := f.createApproved(t, models.PingNone)

	_, err := f.scheduler.Schedule(context.Background(), g)
	require.NoError(t, err)
	_, err = f.scheduler.Schedule(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, 1, f.scheduler.TaskCount())
}

func TestScheduledGiveawayIsPosted(t *testing.T) {
	f := newSchedulerFixture(t, 20*time.Millisecond)
	g := f.createApproved(t, models.PingNone)

	_, err := f.scheduler.Schedule(context.Background(), g)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := f.repo.GetByID(context.Background(), g.ID)
		return err == nil && stored.Status == models.GiveawayStatusPosted
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, f.sender.count())
	assert.Equal(t, 0, f.scheduler.TaskCount())
}

func TestEveryoneSequencingKeysOffSendTime(t *testing.T) {
	f := newSchedulerFixture(t, 20*time.Millisecond)
	ctx := context.Background()

	first := f.createApproved(t, models.PingEveryone)
	_, err := f.scheduler.Schedule(ctx, first)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := f.repo.GetByID(ctx, first.ID)
		return err == nil && stored.Status == models.GiveawayStatusPosted
	}, 2*time.Second, 10*time.Millisecond)

	ledger, err := f.ledger.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, ledger.Everyone)
	sentAt := *ledger.Everyone

	// The next @everyone is sequenced a day after the confirmed send, not
	// the approval.
	second := f.createApproved(t, models.PingEveryone)
	when, err := f.scheduler.Schedule(ctx, second)
	require.NoError(t, err)
	assert.True(t, when.Equal(sentAt.Add(24*time.Hour)))
}

func TestEveryoneScheduledBeforeFirstSendIsNotDeferred(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	ctx := context.Background()

	first := f.createApproved(t, models.PingEveryone)
	second := f.createApproved(t, models.PingEveryone)

	before := time.Now()
	_, err := f.scheduler.Schedule(ctx, first)
	require.NoError(t, err)

	// The first giveaway has not posted yet, so the ledger is still empty
	// and the second one also lands at now plus the lead clamp. Once the
	// first actually posts, re-running schedule yields the deferred slot.
	whenSecond, err := f.scheduler.Schedule(ctx, second)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(time.Hour), whenSecond, 2*time.Second)
}

func TestCancelDisarmsAndPersists(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	ctx := context.Background()
	g := f.createApproved(t, models.PingNone)

	_, err := f.scheduler.Schedule(ctx, g)
	require.NoError(t, err)

	cancelled, err := f.scheduler.Cancel(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, 0, f.scheduler.TaskCount())

	stored, err := f.repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusCancelled, stored.Status)
	assert.Nil(t, stored.ScheduledFor)
}

func TestCancelWithoutTaskIsNoOp(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	ctx := context.Background()
	g := f.createApproved(t, models.PingNone)

	cancelled, err := f.scheduler.Cancel(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	// Status is untouched; there was nothing to cancel.
	stored, err := f.repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusApproved, stored.Status)
}

func TestSweepPostsPastDueExactlyOnce(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	ctx := context.Background()
	g := f.createApproved(t, models.PingNone)

	// Simulate a restart: the deadline passed while the process was down.
	past := time.Now().Add(-time.Minute)
	_, err := f.repo.Update(ctx, g.ID, models.GiveawayUpdate{ScheduledFor: &past})
	require.NoError(t, err)

	f.scheduler.Sweep(ctx)
	f.scheduler.Sweep(ctx)

	stored, err := f.repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GiveawayStatusPosted, stored.Status)
	assert.Equal(t, 1, f.sender.count())
}

func TestSweepReArmsFutureSchedules(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	ctx := context.Background()
	g := f.createApproved(t, models.PingNone)

	future := time.Now().Add(2 * time.Hour)
	_, err := f.repo.Update(ctx, g.ID, models.GiveawayUpdate{ScheduledFor: &future})
	require.NoError(t, err)

	f.scheduler.Sweep(ctx)
	assert.Equal(t, 1, f.scheduler.TaskCount())
	assert.Equal(t, 0, f.sender.count())

	// A second sweep must not double-arm.
	f.scheduler.Sweep(ctx)
	assert.Equal(t, 1, f.scheduler.TaskCount())
}

func TestSweepSkipsUnscheduledApprovals(t *testing.T) {
	f := newSchedulerFixture(t, time.Hour)
	ctx := context.Background()
	f.createApproved(t, models.PingNone)

	f.scheduler.Sweep(ctx)
	assert.Equal(t, 0, f.scheduler.TaskCount())
	assert.Equal(t, 0, f.sender.count())
}
