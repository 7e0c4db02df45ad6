package eventstream_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coregx/eventstream"
	"github.com/coregx/eventstream/model"
	"github.com/coregx/eventstream/retry"
)

// recordingLogger captures log entries per level for assertions.
// Safe for concurrent use.
type recordingLogger struct {
	mu      sync.Mutex
	entries map[string][]string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{entries: make(map[string][]string)}
}

func (l *recordingLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[level] = append(l.entries[level], fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...interface{}) {
	l.record("debug", format, args...)
}

func (l *recordingLogger) Infof(format string, args ...interface{}) {
	l.record("info", format, args...)
}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.record("warn", format, args...)
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.record("error", format, args...)
}

// contains reports whether any entry at the level contains all substrings.
func (l *recordingLogger) contains(level string, substrings ...string) bool {
	return l.count(level, substrings...) > 0
}

// count returns how many entries at the level contain all substrings.
func (l *recordingLogger) count(level string, substrings ...string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, entry := range l.entries[level] {
		match := true
		for _, s := range substrings {
			if !strings.Contains(entry, s) {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

// recordingNotifications captures notification calls for assertions.
type recordingNotifications struct {
	mu                sync.Mutex
	deadLetters       []model.DeadLetter
	handlerFailures   []int
	exhaustedChannels [][]string
}

func (n *recordingNotifications) NotifyDeadLetter(_ context.Context, dl model.DeadLetter) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deadLetters = append(n.deadLetters, dl)
	return nil
}

func (n *recordingNotifications) NotifyHandlerFailure(_ context.Context, _ model.Event, attempt int, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlerFailures = append(n.handlerFailures, attempt)
	return nil
}

func (n *recordingNotifications) NotifyReconnectExhausted(_ context.Context, channels []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.exhaustedChannels = append(n.exhaustedChannels, channels)
	return nil
}

func (n *recordingNotifications) exhaustedCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.exhaustedChannels)
}

func (n *recordingNotifications) handlerFailureCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.handlerFailures)
}

func (n *recordingNotifications) deadLetterCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.deadLetters)
}

// captureHandler is a scriptable EventHandler that counts invocations and
// optionally fails every attempt.
type captureHandler struct {
	channel   string
	eventType model.EventType
	fail      bool

	mu     sync.Mutex
	events []model.Event
}

func (h *captureHandler) Channel() string            { return h.channel }
func (h *captureHandler) EventType() model.EventType { return h.eventType }

func (h *captureHandler) Handle(_ context.Context, evt model.Event) error {
	h.mu.Lock()
	h.events = append(h.events, evt)
	h.mu.Unlock()
	if h.fail {
		return fmt.Errorf("handler rejected event %s", evt.EventID)
	}
	return nil
}

func (h *captureHandler) invocations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func (h *captureHandler) lastEvent() model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return model.Event{}
	}
	return h.events[len(h.events)-1]
}

// fastReconnectPolicy keeps reconnection tests in the millisecond range.
func fastReconnectPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// fastHandlerPolicy keeps handler retry tests in the millisecond range.
func fastHandlerPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

var _ eventstream.NotificationService = (*recordingNotifications)(nil)
var _ eventstream.EventHandler = (*captureHandler)(nil)
var _ eventstream.Logger = (*recordingLogger)(nil)
