package cli

import (
	"context"
	"errors"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/lifecycle"
)

type createResult struct {
	Data *auction.Auction `json:"data"`
}

type rejection struct {
	Status string                   `json:"status"`
	Code   int                      `json:"code"`
	Errors auction.ValidationErrors `json:"errors"`
}

func runCreate(_ context.Context, args []string, env Env) int {
	const name = "create"
	fs := newFlagSet(name, env.Stderr)
	var cal calendarFlags
	cal.register(fs)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	_, calc, err := cal.setup(fs)
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	now, err := cal.evaluationTime()
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	a, err := readAuction(fs.Args(), env.Stdin)
	if err != nil {
		return fail(env.Stderr, name, err)
	}

	initializer := lifecycle.NewInitializer(calc, lifecycle.DefaultRules(calc.Location()))
	err = initializer.Create(a, now)
	var rejected auction.ValidationErrors
	switch {
	case errors.As(err, &rejected):
		if werr := writeJSON(env.Stdout, rejection{Status: "error", Code: rejected.Status(), Errors: rejected}); werr != nil {
			return fail(env.Stderr, name, werr)
		}
		return ExitRejected
	case err != nil:
		return fail(env.Stderr, name, err)
	}

	if err := writeJSON(env.Stdout, createResult{Data: a}); err != nil {
		return fail(env.Stderr, name, err)
	}
	return ExitOK
}
