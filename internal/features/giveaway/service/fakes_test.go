package service

import (
	"context"
	"fmt"
	"sync"

	"mutual-giveaway-backend/internal/features/giveaway/models"
)

type sentMessage struct {
	channelID    string
	content      string
	announcement models.Announcement
}

// fakeSender records announcement sends and pops one error per call off the
// errs queue; a nil entry (or an empty queue) means success.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	errs []error
}

func (f *fakeSender) SendAnnouncement(_ context.Context, channelID, content string, a models.Announcement) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, content: content, announcement: a})
	return fmt.Sprintf("msg-%d", len(f.sent)), nil
}

func (f *fakeSender) failNextWith(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, errs...)
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSender) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeNotifier struct {
	mu  sync.Mutex
	dms []string
	err error
}

func (f *fakeNotifier) DM(_ context.Context, userID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.dms = append(f.dms, content)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dms)
}

type fakeAnnouncer struct {
	mu      sync.Mutex
	notices []int64
}

func (f *fakeAnnouncer) SendRequestNotice(_ context.Context, _ string, g *models.GiveawayRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, g.ID)
	return nil
}
