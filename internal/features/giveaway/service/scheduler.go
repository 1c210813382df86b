package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mutual-giveaway-backend/internal/common/logger"
	"mutual-giveaway-backend/internal/features/giveaway/models"
	"mutual-giveaway-backend/internal/features/giveaway/repository"
	"mutual-giveaway-backend/internal/platform/discord"
)

const (
	// Each broadcast mention type may be used once per rolling day.
	pingCooldown = 24 * time.Hour

	DefaultMinLead       = time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// ComputeScheduledTime returns the earliest legal post time for a giveaway
// given the current ledger state. Non-broadcast pings are legal immediately.
//
// An @here approved while the day's @everyone slot is spent but less than
// 24h old is allowed through immediately (one @here per @everyone day).
// Once that window has lapsed the next @here slot still keys off the
// @everyone timestamp rather than opening immediately; kept as-is for
// compatibility with the established posting cadence.
func ComputeScheduledTime(g *models.GiveawayRequest, ledger *models.PingLedger, now time.Time) time.Time {
	switch g.OurPing {
	case models.PingEveryone:
		if ledger.Everyone == nil {
			return now
		}
		return ledger.Everyone.Add(pingCooldown)
	case models.PingHere:
		if ledger.Here != nil {
			return ledger.Here.Add(pingCooldown)
		}
		if ledger.Everyone == nil {
			return now
		}
		if now.Sub(*ledger.Everyone) < pingCooldown {
			return now
		}
		return ledger.Everyone.Add(pingCooldown)
	default:
		return now
	}
}

// Scheduler decides when an approved giveaway may be posted, arms a
// deferred task for it, and re-arms from persisted state after restarts.
// In-memory timers are an optimization; the periodic sweep over persisted
// approved records is the correctness backstop.
type Scheduler struct {
	repo     repository.GiveawayRepository
	ledger   repository.PingLedgerRepository
	poster   *Poster
	notifier Notifier
	log      zerolog.Logger

	minLead       time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	// mu serializes every touch of shared state: compute-and-persist,
	// cancel, and the poster's send-and-update-ledger. Volume is a
	// handful of giveaways per day; one lock is plenty.
	mu    sync.Mutex
	tasks map[int64]*time.Timer

	cancelSweep context.CancelFunc
	wg          sync.WaitGroup
}

func NewScheduler(
	repo repository.GiveawayRepository,
	ledger repository.PingLedgerRepository,
	poster *Poster,
	notifier Notifier,
	minLead, sweepInterval time.Duration,
) *Scheduler {
	if minLead <= 0 {
		minLead = DefaultMinLead
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &Scheduler{
		repo:          repo,
		ledger:        ledger,
		poster:        poster,
		notifier:      notifier,
		log:           logger.With("scheduler"),
		minLead:       minLead,
		sweepInterval: sweepInterval,
		now:           time.Now,
		tasks:         make(map[int64]*time.Timer),
	}
}

// Start recovers persisted approved giveaways and begins the periodic
// sweep.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelSweep = cancel

	s.log.Info().Msg("Starting scheduler")
	s.Sweep(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the sweep loop and disarms all in-memory timers. Persisted
// state is untouched; the next Start re-arms from it.
func (s *Scheduler) Stop() {
	if s.cancelSweep != nil {
		s.cancelSweep()
	}
	s.wg.Wait()

	s.mu.Lock()
	for id, timer := range s.tasks {
		timer.Stop()
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	s.log.Info().Msg("Scheduler stopped")
}

// Schedule computes the earliest legal post time for an approved giveaway,
// persists it, and arms a deferred task. Re-scheduling an already-armed
// giveaway replaces its task. Nothing is armed if persistence fails.
func (s *Scheduler) Schedule(ctx context.Context, g *models.GiveawayRequest) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.ledger.Get(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read ping ledger: %w", err)
	}

	now := s.now()
	when := ComputeScheduledTime(g, ledger, now)
	// Keep a minimum gap so the approval write settles before the task
	// fires.
	if when.Sub(now) < s.minLead {
		when = now.Add(s.minLead)
	}

	updated, err := s.repo.Update(ctx, g.ID, models.GiveawayUpdate{ScheduledFor: &when})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to persist scheduled time for giveaway %d: %w", g.ID, err)
	}

	s.armLocked(updated.ID, when)
	s.log.Info().
		Int64("giveaway_id", updated.ID).
		Str("our_ping", updated.OurPing).
		Time("scheduled_for", when).
		Msg("Giveaway scheduled")

	go s.notifyScheduled(updated, when)
	return when, nil
}

// Cancel disarms the deferred task for the giveaway and transitions it to
// cancelled. Returns false with no state change when no task is armed;
// callers treat that as "nothing to cancel", not an error.
func (s *Scheduler) Cancel(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.tasks[id]
	if !ok {
		return false, nil
	}

	status := models.GiveawayStatusCancelled
	if _, err := s.repo.Update(ctx, id, models.GiveawayUpdate{
		Status:            &status,
		ClearScheduledFor: true,
	}); err != nil {
		// The task stays armed; if it fires anyway the poster's status
		// re-check keeps storage authoritative.
		return false, fmt.Errorf("failed to persist cancellation of giveaway %d: %w", id, err)
	}

	timer.Stop()
	delete(s.tasks, id)
	s.log.Info().Int64("giveaway_id", id).Msg("Scheduled giveaway cancelled")
	return true, nil
}

// TaskCount reports the number of armed deferred tasks.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Sweep re-arms approved giveaways scheduled in the future and posts the
// past-due ones immediately. Safe to run repeatedly: armed ids are left
// alone and the poster skips anything no longer approved.
func (s *Scheduler) Sweep(ctx context.Context) {
	approved, err := s.repo.ListByStatus(ctx, models.GiveawayStatusApproved)
	if err != nil {
		s.log.Error().Err(err).Msg("Sweep failed to list approved giveaways")
		return
	}

	now := s.now()
	for _, g := range approved {
		if g.ScheduledFor == nil {
			// Approved but never scheduled; Schedule owns this path.
			continue
		}
		if g.ScheduledFor.After(now) {
			s.mu.Lock()
			if _, armed := s.tasks[g.ID]; !armed {
				s.armLocked(g.ID, *g.ScheduledFor)
				s.log.Info().
					Int64("giveaway_id", g.ID).
					Time("scheduled_for", *g.ScheduledFor).
					Msg("Re-armed scheduled giveaway")
			}
			s.mu.Unlock()
			continue
		}

		// Past due, still approved: the process was down past the
		// deadline or a send failed. Post now.
		s.log.Info().Int64("giveaway_id", g.ID).Msg("Posting past-due giveaway")
		s.runPost(ctx, g.ID)
	}
}

// armLocked arms (or replaces) the deferred task for a giveaway. Caller
// holds mu.
func (s *Scheduler) armLocked(id int64, when time.Time) {
	if existing, ok := s.tasks[id]; ok {
		existing.Stop()
	}
	delay := when.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.tasks[id] = time.AfterFunc(delay, func() {
		s.fire(id)
	})
}

// fire is the timer callback for an armed task.
func (s *Scheduler) fire(id int64) {
	s.runPost(context.Background(), id)
}

// runPost executes the poster inside the global critical section and drops
// the task handle regardless of outcome. A hard send failure leaves the
// giveaway approved with a past scheduledFor; the next sweep retries it.
func (s *Scheduler) runPost(ctx context.Context, id int64) {
	s.mu.Lock()
	if timer, ok := s.tasks[id]; ok {
		timer.Stop()
		delete(s.tasks, id)
	}
	err := s.poster.Post(ctx, id)
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Int64("giveaway_id", id).Msg("Failed to post giveaway")
	}
}

func (s *Scheduler) notifyScheduled(g *models.GiveawayRequest, when time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var content string
	if when.Sub(s.now()) <= s.minLead {
		content = fmt.Sprintf("Your giveaway request for **%s** has been approved and will be posted immediately!", g.ServerName)
	} else {
		content = fmt.Sprintf("Your giveaway request for **%s** has been approved and will be posted %s", g.ServerName, discord.DiscordTimestamp(when))
	}
	if err := s.notifier.DM(ctx, g.RequesterUserID, content); err != nil {
		s.log.Warn().Err(err).Int64("giveaway_id", g.ID).Msg("Failed to notify requester of schedule")
	}
}
