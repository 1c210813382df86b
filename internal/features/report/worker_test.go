package report

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	giveawaymodels "mutual-giveaway-backend/internal/features/giveaway/models"
	giveawaymemory "mutual-giveaway-backend/internal/features/giveaway/repository/memory"
	invitememory "mutual-giveaway-backend/internal/features/invite/repository/memory"
	inviteservice "mutual-giveaway-backend/internal/features/invite/service"
	"mutual-giveaway-backend/internal/platform/discord"
)

type fakeMessenger struct {
	mu     sync.Mutex
	texts  []string
	embeds []*discordgo.MessageEmbed
}

func (f *fakeMessenger) SendText(_ context.Context, _ string, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, content)
	return nil
}

func (f *fakeMessenger) SendEmbed(_ context.Context, _ string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return nil
}

type fakeStaffDirectory struct {
	staff []discord.StaffMember
}

func (f *fakeStaffDirectory) ListStaff(_ context.Context) ([]discord.StaffMember, error) {
	return f.staff, nil
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "sunday before the boundary fires the same day",
			now:  time.Date(2025, 5, 18, 1, 0, 0, 0, time.UTC),
			want: time.Date(2025, 5, 18, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the boundary rolls a week",
			now:  time.Date(2025, 5, 18, 2, 0, 0, 0, time.UTC),
			want: time.Date(2025, 5, 25, 2, 0, 0, 0, time.UTC),
		},
		{
			name: "midweek waits for the coming sunday",
			now:  time.Date(2025, 5, 14, 18, 30, 0, 0, time.UTC),
			want: time.Date(2025, 5, 18, 2, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, nextRun(tt.now).Equal(tt.want))
		})
	}
}

func TestQuotaWindowIsLastCompletedWeek(t *testing.T) {
	now := time.Date(2025, 5, 18, 2, 0, 0, 0, time.UTC)
	start, end := quotaWindow(now)
	assert.True(t, start.Equal(time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC)))
	assert.True(t, end.Equal(time.Date(2025, 5, 18, 0, 0, 0, 0, time.UTC)))
}

type workerFixture struct {
	worker    *Worker
	giveaways *giveawaymemory.GiveawayRepository
	invites   inviteservice.InviteService
	messenger *fakeMessenger
}

func newWorkerFixture(t *testing.T, staff []discord.StaffMember) *workerFixture {
	t.Helper()

	giveaways := giveawaymemory.NewGiveawayRepository()
	invites := inviteservice.NewInviteService(invitememory.NewInviteRepository())
	messenger := &fakeMessenger{}
	worker := NewWorker(invites, giveaways, messenger, &fakeStaffDirectory{staff: staff}, "report-channel", 2, 10)
	worker.now = func() time.Time {
		return time.Date(2025, 5, 18, 2, 0, 0, 0, time.UTC)
	}
	return &workerFixture{
		worker:    worker,
		giveaways: giveaways,
		invites:   invites,
		messenger: messenger,
	}
}

func (f *workerFixture) seedRequest(t *testing.T, userID string, requestedAt time.Time, status giveawaymodels.GiveawayStatus) {
	t.Helper()

	g := &giveawaymodels.GiveawayRequest{
		RequesterUserID:   userID,
		RequesterUsername: userID,
		ServerName:        "Partner Server",
		ServerInvite:      "https://discord.gg/partner",
		MemberCount:       1000,
		OurPing:           giveawaymodels.PingNone,
		TheirPing:         "@everyone",
		Prize:             "Nitro",
		RequestedAt:       requestedAt,
		Status:            status,
	}
	require.NoError(t, f.giveaways.Create(context.Background(), g))
}

func TestRunReportsInvitesQuotaAndClears(t *testing.T) {
	staff := []discord.StaffMember{
		{UserID: "staff-1", Username: "alice"},
		{UserID: "staff-2", Username: "bob"},
		{UserID: "staff-3", Username: "carol"},
	}
	f := newWorkerFixture(t, staff)
	ctx := context.Background()

	inWindow := time.Date(2025, 5, 13, 12, 0, 0, 0, time.UTC)
	f.seedRequest(t, "staff-1", inWindow, giveawaymodels.GiveawayStatusPosted)
	f.seedRequest(t, "staff-1", inWindow.Add(24*time.Hour), giveawaymodels.GiveawayStatusApproved)
	f.seedRequest(t, "staff-2", inWindow, giveawaymodels.GiveawayStatusPending)
	// Denied requests do not count toward quota.
	f.seedRequest(t, "staff-2", inWindow, giveawaymodels.GiveawayStatusDenied)
	// Outside the reported week.
	f.seedRequest(t, "staff-3", inWindow.AddDate(0, 0, -10), giveawaymodels.GiveawayStatusPosted)

	_, err := f.invites.RecordUse(ctx, "abc123", "staff-1", "alice", 5)
	require.NoError(t, err)

	require.NoError(t, f.worker.Run(ctx))

	require.Len(t, f.messenger.embeds, 2)

	inviteReport := f.messenger.embeds[0]
	assert.Contains(t, inviteReport.Description, "<@staff-1> — 5 invites — 50 Robux")
	require.NotNil(t, inviteReport.Footer)
	assert.Contains(t, inviteReport.Footer.Text, "5 invites, 50 Robux")

	quotaReport := f.messenger.embeds[1]
	assert.Equal(t, discord.ColorRed, quotaReport.Color)
	assert.NotContains(t, quotaReport.Description, "<@staff-1>")
	assert.Contains(t, quotaReport.Description, "<@staff-2> — 1/2 giveaways requested")
	assert.Contains(t, quotaReport.Description, "<@staff-3> — 0/2 giveaways requested")

	// Tracking cleared and the reset notice sent.
	stats, err := f.invites.StatsSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, stats)
	require.Len(t, f.messenger.texts, 1)
	assert.True(t, strings.Contains(f.messenger.texts[0], "reset"))
}

func TestRunWithAllQuotasMet(t *testing.T) {
	staff := []discord.StaffMember{{UserID: "staff-1", Username: "alice"}}
	f := newWorkerFixture(t, staff)

	inWindow := time.Date(2025, 5, 13, 12, 0, 0, 0, time.UTC)
	f.seedRequest(t, "staff-1", inWindow, giveawaymodels.GiveawayStatusPosted)
	f.seedRequest(t, "staff-1", inWindow.Add(time.Hour), giveawaymodels.GiveawayStatusPosted)

	require.NoError(t, f.worker.Run(context.Background()))

	require.Len(t, f.messenger.embeds, 2)
	quotaReport := f.messenger.embeds[1]
	assert.Equal(t, discord.ColorGreen, quotaReport.Color)
	assert.Contains(t, quotaReport.Description, "met the weekly giveaway quota")
}

func TestRunWithNoInviteActivity(t *testing.T) {
	f := newWorkerFixture(t, []discord.StaffMember{{UserID: "staff-1", Username: "alice"}})

	require.NoError(t, f.worker.Run(context.Background()))

	require.NotEmpty(t, f.messenger.embeds)
	assert.Contains(t, f.messenger.embeds[0].Description, "No invite activity")
}
