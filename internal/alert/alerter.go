package alert

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/uniform-control/internal/classifier"
)

// DefaultWindow is how long a raised alert stays active before it clears
// itself.
const DefaultWindow = 3 * time.Second

// Broadcaster delivers alert events to connected clients.
type Broadcaster interface {
	Broadcast(message []byte)
}

// SoundPlayer attempts the audio cue. Implementations may fail freely; a
// blocked or missing audio device must never fail the alert.
type SoundPlayer interface {
	Play() error
}

// State is a snapshot of the alerter for the status endpoint.
type State struct {
	Active   bool                `json:"active"`
	RaisedAt string              `json:"raisedAt,omitempty"`
	Verdict  *classifier.Verdict `json:"verdict,omitempty"`
}

type event struct {
	Event   string              `json:"event"`
	Verdict *classifier.Verdict `json:"verdict,omitempty"`
}

// Alerter keeps the single active non-compliance alert. A new trigger while
// an alert is active restarts the auto-clear window instead of stacking a
// second alert.
type Alerter struct {
	mu       sync.Mutex
	window   time.Duration
	active   bool
	gen      uint64
	raisedAt time.Time
	verdict  classifier.Verdict
	timer    *time.Timer
	hub      Broadcaster
	sound    SoundPlayer
	logger   *zap.Logger
}

// New constructs an alerter. hub and sound may be nil.
func New(window time.Duration, hub Broadcaster, sound SoundPlayer, logger *zap.Logger) *Alerter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Alerter{
		window: window,
		hub:    hub,
		sound:  sound,
		logger: logger.Named("alert"),
	}
}

// Notify raises the alert for a non-compliant verdict: broadcasts the visual
// signal, attempts the audio cue, and (re)arms the auto-clear timer.
func (a *Alerter) Notify(verdict classifier.Verdict) {
	a.mu.Lock()
	a.active = true
	a.raisedAt = time.Now()
	a.verdict = verdict
	if a.timer != nil {
		a.timer.Stop()
	}
	// The generation guards against a previous timer that already fired
	// and is waiting on the mutex: its stale callback must not clear the
	// restarted window.
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.window, func() { a.autoClear(gen) })
	a.mu.Unlock()

	a.broadcast(event{Event: "alert", Verdict: &verdict})

	if a.sound != nil {
		if err := a.sound.Play(); err != nil {
			a.logger.Info("audio cue unavailable", zap.Error(err))
		}
	}
}

// Dismiss clears the active alert immediately, as a pointer interaction on
// the alert does in the UI.
func (a *Alerter) Dismiss() {
	a.clear()
}

// Snapshot reports the current alert state.
func (a *Alerter) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return State{}
	}
	verdict := a.verdict
	return State{
		Active:   true,
		RaisedAt: a.raisedAt.Format(classifier.TimestampLayout),
		Verdict:  &verdict,
	}
}

func (a *Alerter) autoClear(gen uint64) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	wasActive := a.deactivateLocked()
	a.mu.Unlock()

	if wasActive {
		a.broadcast(event{Event: "clear"})
	}
}

func (a *Alerter) clear() {
	a.mu.Lock()
	wasActive := a.deactivateLocked()
	a.mu.Unlock()

	if wasActive {
		a.broadcast(event{Event: "clear"})
	}
}

func (a *Alerter) deactivateLocked() bool {
	wasActive := a.active
	a.active = false
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	return wasActive
}

func (a *Alerter) broadcast(ev event) {
	if a.hub == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		a.logger.Warn("failed to encode alert event", zap.Error(err))
		return
	}
	a.hub.Broadcast(payload)
}
