// Package notify sends a desktop notification when a daily goal is reached.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

// Alerter delivers one notification.
type Alerter interface {
	Alert(title, message string) error
}

// DesktopAlerter notifies through the OS notification center.
type DesktopAlerter struct{}

func NewDesktopAlerter(appName string) *DesktopAlerter {
	if appName != "" {
		beeep.AppName = appName
	}
	return &DesktopAlerter{}
}

func (DesktopAlerter) Alert(title, message string) error {
	return beeep.Alert(title, message, "")
}

// GoalNotifier alerts once per day when the day's total first reaches the
// goal. OnUpdate matches the aggregator's listener signature and never waits
// for the alert itself.
type GoalNotifier struct {
	alerter Alerter
	goal    time.Duration

	mu       sync.Mutex
	notified map[string]bool
	pending  sync.WaitGroup
}

// NewGoalNotifier returns nil when goal is not positive, and a nil notifier
// ignores updates.
func NewGoalNotifier(alerter Alerter, goal time.Duration) *GoalNotifier {
	if alerter == nil || goal <= 0 {
		return nil
	}
	return &GoalNotifier{
		alerter:  alerter,
		goal:     goal,
		notified: make(map[string]bool),
	}
}

func (n *GoalNotifier) OnUpdate(agg *model.DailyAggregate) {
	if n == nil || agg == nil {
		return
	}
	if time.Duration(agg.TotalSeconds)*time.Second < n.goal {
		return
	}

	n.mu.Lock()
	if n.notified[agg.DayKey] {
		n.mu.Unlock()
		return
	}
	n.notified[agg.DayKey] = true
	n.mu.Unlock()

	day := agg.DayKey
	message := fmt.Sprintf("%s tracked on %s (goal %s)",
		util.FormatDuration(agg.TotalSeconds), day, util.FormatDuration(int64(n.goal/time.Second)))

	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		if err := n.alerter.Alert("Daily goal reached", message); err != nil {
			util.LogWarn("Failed to send goal notification", util.F("error", err.Error()))
			return
		}
		util.LogInfo("Goal notification sent", util.F("day", day))
	}()
}

// Wait blocks until every alert started by OnUpdate has returned.
func (n *GoalNotifier) Wait() {
	if n == nil {
		return
	}
	n.pending.Wait()
}
