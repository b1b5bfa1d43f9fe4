package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/mahimrahman/monheure/internal/punch"
	"github.com/mahimrahman/monheure/internal/store"
)

var CLI struct {
	DB      string `help:"Database file path." env:"MONHEURE_DB"`
	Verbose bool   `short:"v" help:"Enable verbose logging."`

	In struct {
		Notes string `short:"n" help:"Notes to attach to the session."`
	} `cmd:"" help:"Punch in: open a work session."`

	Out struct {
		Notes string `short:"n" help:"Notes to attach to the session."`
	} `cmd:"" help:"Punch out: close the open session."`

	Status struct{} `cmd:"" help:"Show the current session and today's total."`

	Watch struct{} `cmd:"" help:"Live status view with a ticking session timer."`

	Today struct{} `cmd:"" help:"List today's records."`

	Log struct {
		Day  string `help:"One day (YYYY-MM-DD)."`
		From string `help:"Range start (YYYY-MM-DD)."`
		To   string `help:"Range end (YYYY-MM-DD), default today."`
	} `cmd:"" help:"List punch records (all of them by default)."`

	Add struct {
		Date  string `help:"Day the entry is grouped under (default today)."`
		In    string `required:"" help:"Punch-in time (15:04 or RFC3339)."`
		Out   string `required:"" help:"Punch-out time (15:04 or RFC3339)."`
		Notes string `short:"n" help:"Notes for the entry."`
	} `cmd:"" help:"Add a completed entry manually."`

	Edit struct {
		ID    string  `arg:"" help:"Record id."`
		Date  *string `help:"New grouping day (YYYY-MM-DD)."`
		In    *string `help:"New punch-in time."`
		Out   *string `help:"New punch-out time; empty string reopens the record."`
		Notes *string `help:"New notes."`
	} `cmd:"" help:"Edit fields of a record; unnamed fields are untouched."`

	Rm struct {
		ID string `arg:"" help:"Record id."`
	} `cmd:"" help:"Delete a record."`

	Clear struct {
		Force bool `help:"Skip confirmation."`
	} `cmd:"" help:"Delete every record."`

	Stats struct {
		Range string `default:"week" enum:"day,week,2weeks,month,year" help:"Predefined range: day, week, 2weeks, month or year."`
		Chart bool   `help:"Also print the per-day series."`
	} `cmd:"" help:"Show totals for a range."`

	Export struct {
		Output string `short:"o" help:"File to write (default stdout)."`
	} `cmd:"" help:"Export all records as JSON."`

	Import struct {
		Input string `arg:"" help:"JSON file to import."`
	} `cmd:"" help:"Replace all records from a JSON export."`

	Reset struct{} `cmd:"" help:"Reset session state; records are untouched."`
}

func main() {
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name("monheure"),
		kong.Description("Single-user punch clock: log work sessions, answer how long."),
	)

	logLevel := slog.LevelWarn
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	dbPath := CLI.DB
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			slog.Error("resolve database path", "error", err)
			os.Exit(1)
		}
	}

	st, err := store.New(dbPath)
	if err != nil {
		slog.Error("open database", "error", err, "path", dbPath)
		os.Exit(1)
	}
	defer st.Close()

	co := punch.New(st)
	if _, err := co.Initialize(); err != nil {
		slog.Error("initialize session", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, co); err != nil {
		slog.Error("command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
