// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bvk/ladderbot/engine"
	"github.com/visvasity/topic"
)

type sendFunc func(ctx context.Context, at time.Time, pair, format string, args ...interface{})

// alerter counts the consecutive failed cycles of every pair and sends an
// alert when the count reaches a limit. Alerts for a pair are frozen for a
// while after one is sent.
type alerter struct {
	after  int
	freeze time.Duration
	send   sendFunc

	mu sync.Mutex

	failureCountMap        map[string]int
	alertFreezeDeadlineMap map[string]time.Time
}

func newAlerter(after int, freeze time.Duration, send sendFunc) *alerter {
	return &alerter{
		after:                  after,
		freeze:                 freeze,
		send:                   send,
		failureCountMap:        make(map[string]int),
		alertFreezeDeadlineMap: make(map[string]time.Time),
	}
}

func (a *alerter) watch(ctx context.Context, reports *topic.Topic[*engine.CycleReport]) error {
	receiver, err := topic.Subscribe(reports, 0, false)
	if err != nil {
		return err
	}
	defer receiver.Close()

	reportCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case report, ok := <-reportCh:
			if !ok {
				return nil
			}
			a.observe(ctx, time.Now(), report)
		}
	}
}

// observe returns true if an alert was sent for the report.
func (a *alerter) observe(ctx context.Context, now time.Time, r *engine.CycleReport) bool {
	count, ok := a.check(now, r)
	if !ok {
		return false
	}
	reason := r.Skipped
	if len(r.Failures) != 0 {
		reason = strings.Join(r.Failures, "; ")
	}
	a.send(ctx, now, r.Pair, "%d consecutive failed cycles. Last failure: %s", count, reason)
	return true
}

func (a *alerter) check(now time.Time, r *engine.CycleReport) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !r.Failed() {
		delete(a.failureCountMap, r.Pair)
		return 0, false
	}

	a.failureCountMap[r.Pair]++
	count := a.failureCountMap[r.Pair]
	if a.after == 0 || count < a.after {
		return count, false
	}

	if deadline, ok := a.alertFreezeDeadlineMap[r.Pair]; ok && now.Before(deadline) {
		return count, false
	}
	a.alertFreezeDeadlineMap[r.Pair] = now.Add(a.freeze)
	return count, true
}
