// Package businessdate implements date offsets that honour working days, a
// configurable holiday calendar and the sandbox accelerated timeline.
package businessdate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidInput reports a programming error such as a zero timestamp.
var ErrInvalidInput = errors.New("businessdate: invalid input")

const day = 24 * time.Hour

var acceleratorRE = regexp.MustCompile(`accelerator=(\d+)`)

// Config is the process-wide calendar configuration. It is built once at
// start-up and never mutated afterwards.
type Config struct {
	Location           *time.Location
	Sandbox            bool
	SandboxAccelerator int
	Calendar           *Calendar
}

// Context carries per-auction hints for the calculator.
type Context interface {
	AcceleratorDetails() string
}

// Calculator computes business dates for a fixed Config.
type Calculator struct {
	cfg Config
}

// NewCalculator constructs a Calculator. A nil location defaults to UTC.
func NewCalculator(cfg Config) *Calculator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Calculator{cfg: cfg}
}

// Config returns the calculator configuration.
func (c *Calculator) Config() Config {
	return c.cfg
}

// Location returns the configured time zone.
func (c *Calculator) Location() *time.Location {
	return c.cfg.Location
}

// IsWorkingDay reports whether t is a working day in the configured zone.
func (c *Calculator) IsWorkingDay(t time.Time) bool {
	return c.cfg.Calendar.IsWorkingDay(t.In(c.cfg.Location))
}

type options struct {
	workingDays bool
	hour        *int
	ctx         Context
}

// Option tunes a single Calculate call.
type Option func(*options)

// WorkingDays counts whole days of the delta as working days.
func WorkingDays() Option {
	return func(o *options) { o.workingDays = true }
}

// SpecificHour snaps the result to the given hour of its local date.
func SpecificHour(hour int) Option {
	return func(o *options) { o.hour = &hour }
}

// For attaches the auction context used to resolve the sandbox accelerator.
func For(ctx Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Calculate offsets start by delta.
func (c *Calculator) Calculate(start time.Time, delta time.Duration, opts ...Option) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero start timestamp", ErrInvalidInput)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if accelerator := c.accelerator(o.ctx); accelerator > 1 {
		return start.Add(delta / time.Duration(accelerator)), nil
	}
	var result time.Time
	if o.workingDays {
		result = c.addWorkingDays(start.In(c.cfg.Location), delta)
	} else {
		result = start.Add(delta)
	}
	if o.hour != nil {
		result = SetSpecificHour(result.In(c.cfg.Location), *o.hour)
	}
	return result, nil
}

func (c *Calculator) accelerator(ctx Context) int {
	if !c.cfg.Sandbox {
		return 0
	}
	if ctx != nil {
		if m := acceleratorRE.FindStringSubmatch(ctx.AcceleratorDetails()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				return n
			}
		}
	}
	return c.cfg.SandboxAccelerator
}

func (c *Calculator) addWorkingDays(t time.Time, delta time.Duration) time.Time {
	cal := c.cfg.Calendar
	step := 1
	if delta < 0 {
		step = -1
	}
	if !cal.IsWorkingDay(t) {
		if step > 0 {
			t = Midnight(t).AddDate(0, 0, 1)
			for !cal.IsWorkingDay(t) {
				t = t.AddDate(0, 0, 1)
			}
		} else {
			t = Midnight(t)
			for !cal.IsWorkingDay(t) {
				t = t.AddDate(0, 0, -1)
			}
			t = t.AddDate(0, 0, 1)
		}
	}
	// Whole days are floored, so -36h spans two days back.
	days := int(delta / day)
	if delta < 0 && delta%day != 0 {
		days--
	}
	if days < 0 {
		days = -days
	}
	for i := 0; i < days; i++ {
		t = t.AddDate(0, 0, step)
		for !cal.IsWorkingDay(t) {
			t = t.AddDate(0, 0, step)
		}
	}
	return t
}

// SetSpecificHour returns hour:00:00 on the date of t in t's location.
func SetSpecificHour(t time.Time, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour%24, 0, 0, 0, t.Location())
}

// Midnight returns the start of the date of t in t's location.
func Midnight(t time.Time) time.Time {
	return SetSpecificHour(t, 0)
}

// Localize keeps the wall clock of t and reinterprets it in loc.
func Localize(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// SameDate reports whether a and b fall on the same calendar date in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
