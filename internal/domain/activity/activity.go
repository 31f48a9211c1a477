// Package activity decides whether a ranked player counts as active.
package activity

import (
	"time"

	"github.com/okian/ladder/internal/domain/model"
)

// DefaultWindow is how far back a rated match keeps a player active.
const DefaultWindow = 30 * 24 * time.Hour

// Status is the activity class of a player.
type Status string

// Activity classes.
const (
	Active   Status = "active"
	Inactive Status = "inactive"
)

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// Classifier classifies players against a sliding window ending today.
type Classifier struct {
	window time.Duration
	now    Clock
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithWindow sets the activity window. Only whole days are meaningful.
func WithWindow(window time.Duration) Option {
	return func(c *Classifier) {
		if window > 0 {
			c.window = window
		}
	}
}

// WithClock sets the time source.
func WithClock(now Clock) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClassifier creates a classifier with a 30 day window and the wall clock.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{window: DefaultWindow, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the classifier's current time.
func (c *Classifier) Now() time.Time { return c.now() }

// Window returns the configured activity window.
func (c *Classifier) Window() time.Duration { return c.window }

// ClassifyAt evaluates a player against a fixed day.
func (c *Classifier) ClassifyAt(lastDate string, played bool, today time.Time) Status {
	return Classify(lastDate, played, today, c.window)
}

// Classify evaluates a player using the current clock. It must be called per
// query; the result changes as days pass.
func (c *Classifier) Classify(lastDate string, played bool) Status {
	return Classify(lastDate, played, c.now(), c.window)
}

// Classify returns Active iff lastDate parses, falls on or after the day that
// is window before today, and the player has played a rated match.
func Classify(lastDate string, played bool, today time.Time, window time.Duration) Status {
	if !played {
		return Inactive
	}
	d, ok := model.ParseDate(lastDate)
	if !ok {
		return Inactive
	}
	if d.Before(Cutoff(today, window)) {
		return Inactive
	}
	return Active
}

// Cutoff is the earliest calendar date still inside the window.
func Cutoff(today time.Time, window time.Duration) time.Time {
	y, m, d := today.Date()
	days := int(window / (24 * time.Hour))
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days)
}
