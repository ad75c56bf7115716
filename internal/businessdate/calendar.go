package businessdate

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Calendar holds the configured non-working days. Weekends are always
// non-working and need not be listed.
type Calendar struct {
	days map[string]struct{}
}

// calendarFile is the YAML layout accepted by LoadCalendar.
type calendarFile struct {
	NonWorkingDays []string `yaml:"non_working_days"`
}

// NewCalendar builds a calendar from YYYY-MM-DD strings.
func NewCalendar(days ...string) (*Calendar, error) {
	cal := &Calendar{days: make(map[string]struct{}, len(days))}
	for _, day := range days {
		day = strings.TrimSpace(day)
		if day == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("businessdate: invalid non-working day %q: %w", day, err)
		}
		cal.days[day] = struct{}{}
	}
	return cal, nil
}

// LoadCalendar reads a YAML file with a non_working_days list.
func LoadCalendar(path string) (*Calendar, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("businessdate: read calendar: %w", err)
	}
	return ParseCalendar(raw)
}

// ParseCalendar decodes YAML calendar content.
func ParseCalendar(raw []byte) (*Calendar, error) {
	var file calendarFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("businessdate: decode calendar: %w", err)
	}
	return NewCalendar(file.NonWorkingDays...)
}

// IsHoliday reports whether the date of t is listed in the calendar.
func (c *Calendar) IsHoliday(t time.Time) bool {
	if c == nil || len(c.days) == 0 {
		return false
	}
	_, ok := c.days[t.Format(dateLayout)]
	return ok
}

// IsWorkingDay reports whether t falls on a weekday that is not a holiday.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(t)
}

// Days returns the configured non-working days in ascending order.
func (c *Calendar) Days() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.days))
	for day := range c.days {
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}
