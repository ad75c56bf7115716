package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
)

type businessDateResult struct {
	Start      string `json:"start"`
	Result     string `json:"result"`
	WorkingDay bool   `json:"workingDay"`
}

func runBusinessDate(_ context.Context, args []string, env Env) int {
	const name = "business-date"
	fs := newFlagSet(name, env.Stderr)
	var cal calendarFlags
	cal.register(fs)
	var (
		start       string
		delta       time.Duration
		days        int
		workingDays bool
		hour        int
		details     string
	)
	fs.StringVar(&start, "start", "", "start instant, RFC 3339 (required)")
	fs.DurationVar(&delta, "delta", 0, "offset as a Go duration, e.g. 72h or -96h")
	fs.IntVar(&days, "days", 0, "offset in whole days; added to --delta")
	fs.BoolVar(&workingDays, "working-days", false, "count only working days")
	fs.IntVar(&hour, "hour", -1, "set the hour of the result (0-23)")
	fs.StringVar(&details, "details", "", "procurementMethodDetails, e.g. quick, accelerator=1440")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if start == "" {
		return fail(env.Stderr, name, errors.New("--start is required"))
	}
	if hour > 23 {
		return fail(env.Stderr, name, fmt.Errorf("--hour %d out of range", hour))
	}
	from, err := time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return fail(env.Stderr, name, fmt.Errorf("invalid --start %q: %w", start, err))
	}

	_, calc, err := cal.setup(fs)
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	opts := []businessdate.Option{businessdate.For(detailsContext(details))}
	if workingDays {
		opts = append(opts, businessdate.WorkingDays())
	}
	if hour >= 0 {
		opts = append(opts, businessdate.SpecificHour(hour))
	}
	result, err := calc.Calculate(from, delta+time.Duration(days)*24*time.Hour, opts...)
	if err != nil {
		return fail(env.Stderr, name, err)
	}

	loc := calc.Location()
	out := businessDateResult{
		Start:      from.In(loc).Format(time.RFC3339Nano),
		Result:     result.In(loc).Format(time.RFC3339Nano),
		WorkingDay: calc.IsWorkingDay(result),
	}
	if err := writeJSON(env.Stdout, out); err != nil {
		return fail(env.Stderr, name, err)
	}
	return ExitOK
}
