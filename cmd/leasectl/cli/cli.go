package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/app"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
	"github.com/openprocurement/openprocurement.auctions.lease/jobs"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitRejected = 2
)

// Env carries the process streams and optional dependency overrides.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Enqueuer replaces the Redis-backed queue used by "schedule".
	Enqueuer jobs.Enqueuer
	// Redis replaces the client dialled by "awarding-hint".
	Redis redis.UniversalClient
}

func (e *Env) defaults() {
	if e.Stdin == nil {
		e.Stdin = os.Stdin
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, env Env) int
}

var commands = []command{
	{name: "create", summary: "initialise the periods of a new auction", run: runCreate},
	{name: "next-check", summary: "compute next check and shouldStartAfter", run: runNextCheck},
	{name: "business-date", summary: "offset a timestamp by calendar or working days", run: runBusinessDate},
	{name: "schedule", summary: "submit a snapshot to the next-check worker", run: runSchedule},
	{name: "awarding-hint", summary: "publish or clear the awarding next check", run: runAwardingHint},
}

// Run dispatches args to a subcommand and returns the process exit code.
func Run(ctx context.Context, args []string, env Env) int {
	env.defaults()
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(env.Stdout)
		return ExitOK
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(ctx, args[1:], env)
		}
	}
	_, _ = fmt.Fprintf(env.Stderr, "leasectl: unknown command %q\n", args[0])
	printUsage(env.Stderr)
	return ExitFailure
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: leasectl <command> [flags] [auction.json]")
	_, _ = fmt.Fprintln(w)
	for _, cmd := range commands {
		_, _ = fmt.Fprintf(w, "  %-14s %s\n", cmd.name, cmd.summary)
	}
}

// calendarFlags override the environment configuration for one invocation.
type calendarFlags struct {
	tz       string
	holidays string
	sandbox  bool
	now      string
}

func (f *calendarFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.tz, "tz", "", "time zone (default: TZ_NAME)")
	fs.StringVar(&f.holidays, "holidays", "", "YAML file with non_working_days (default: HOLIDAYS_FILE)")
	fs.BoolVar(&f.sandbox, "sandbox", false, "enable the sandbox accelerated timeline")
	fs.StringVar(&f.now, "now", "", "evaluation instant, RFC 3339 (default: current time)")
}

// setup loads the environment configuration and applies flag overrides.
func (f *calendarFlags) setup(fs *pflag.FlagSet) (*app.Config, *businessdate.Calculator, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if fs.Changed("tz") {
		cfg.TZName = f.tz
	}
	if fs.Changed("holidays") {
		cfg.HolidaysFile = f.holidays
	}
	if fs.Changed("sandbox") {
		cfg.SandboxMode = f.sandbox
	}
	bd, err := cfg.BusinessDate()
	if err != nil {
		return nil, nil, err
	}
	return cfg, businessdate.NewCalculator(bd), nil
}

func (f *calendarFlags) evaluationTime() (time.Time, error) {
	if f.now == "" {
		return time.Now(), nil
	}
	now, err := time.Parse(time.RFC3339Nano, f.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", f.now, err)
	}
	return now, nil
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("leasectl "+name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseFlags returns ok=false with the exit code when parsing ends the command.
func parseFlags(fs *pflag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK, false
		}
		return ExitFailure, false
	}
	return ExitOK, true
}

// readAuction decodes the snapshot from the single positional argument, or
// from stdin when it is absent or "-".
func readAuction(args []string, stdin io.Reader) (*auction.Auction, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one input file, got %d", len(args))
	}
	var r io.Reader = stdin
	if len(args) == 1 && args[0] != "-" {
		file, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer file.Close()
		r = file
	}
	var a auction.Auction
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode auction: %w", err)
	}
	return &a, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fail(stderr io.Writer, name string, err error) int {
	_, _ = fmt.Fprintf(stderr, "leasectl %s: %v\n", name, err)
	return ExitFailure
}

// detailsContext feeds raw procurementMethodDetails to the calculator.
type detailsContext string

func (d detailsContext) AcceleratorDetails() string { return strings.TrimSpace(string(d)) }
