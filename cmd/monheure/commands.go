package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mahimrahman/monheure/internal/punch"
	"github.com/mahimrahman/monheure/internal/store"
	"github.com/mahimrahman/monheure/internal/tui"
)

func run(ctx *kong.Context, co *punch.Coordinator) error {
	switch ctx.Command() {
	case "in":
		return runIn(co)
	case "out":
		return runOut(co)
	case "status":
		return runStatus(co)
	case "watch":
		return runWatch(co)
	case "today":
		return runToday(co)
	case "log":
		return runLog(co)
	case "add":
		return runAdd(co)
	case "edit <id>":
		return runEdit(co)
	case "rm <id>":
		return runRm(co)
	case "clear":
		return runClear(co)
	case "stats":
		return runStats(co)
	case "export":
		return runExport(co)
	case "import <input>":
		return runImport(co)
	case "reset":
		return runReset(co)
	default:
		return fmt.Errorf("unknown command %q", ctx.Command())
	}
}

func runIn(co *punch.Coordinator) error {
	rec, err := co.PunchIn(CLI.In.Notes)
	if err != nil {
		return err
	}
	fmt.Printf("punched in at %s\n", rec.PunchIn.Local().Format("15:04"))
	return nil
}

func runOut(co *punch.Coordinator) error {
	rec, err := co.PunchOut(CLI.Out.Notes)
	if err != nil {
		return err
	}
	fmt.Printf("punched out at %s (%.2fh)\n",
		rec.PunchOut.Local().Format("15:04"), *rec.TotalHours)
	return nil
}

func runStatus(co *punch.Coordinator) error {
	st, err := co.Status()
	if err != nil {
		return err
	}
	if st.Working {
		fmt.Printf("working since %s (%s elapsed)\n",
			st.PunchInAt.Local().Format("15:04"), co.Elapsed().Round(time.Second))
	} else {
		fmt.Println("idle")
	}
	if st.GoalHours > 0 {
		fmt.Printf("today (%s): %.2fh of %.0fh goal\n", st.TodayDate, st.TodayHours, st.GoalHours)
	} else {
		fmt.Printf("today (%s): %.2fh\n", st.TodayDate, st.TodayHours)
	}
	return nil
}

func runWatch(co *punch.Coordinator) error {
	p := tea.NewProgram(tui.NewWatch(co), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func runToday(co *punch.Coordinator) error {
	sum, err := co.RefreshToday()
	if err != nil {
		return err
	}
	printRecords(sum.Records)
	fmt.Printf("total: %.2fh\n", sum.TotalHours)
	return nil
}

func runLog(co *punch.Coordinator) error {
	var records []store.PunchRecord
	var err error
	switch {
	case CLI.Log.Day != "":
		var sum punch.DaySummary
		sum, err = co.QueryDay(CLI.Log.Day)
		records = sum.Records
	case CLI.Log.From != "":
		to := CLI.Log.To
		if to == "" {
			to = time.Now().Format(store.DateFormat)
		}
		records, err = co.QueryRange(CLI.Log.From, to)
	default:
		records, err = co.QueryAll()
	}
	if err != nil {
		return err
	}
	printRecords(records)
	return nil
}

func runAdd(co *punch.Coordinator) error {
	date := CLI.Add.Date
	if date == "" {
		date = time.Now().Format(store.DateFormat)
	}
	in, err := parseWhen(date, CLI.Add.In)
	if err != nil {
		return fmt.Errorf("--in: %w", err)
	}
	out, err := parseWhen(date, CLI.Add.Out)
	if err != nil {
		return fmt.Errorf("--out: %w", err)
	}

	id, err := co.AddRecord(store.NewRecord{
		Date:     date,
		PunchIn:  &in,
		PunchOut: &out,
		Notes:    CLI.Add.Notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("added %s\n", id)
	return nil
}

func runEdit(co *punch.Coordinator) error {
	cur, err := co.GetRecord(CLI.Edit.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return store.ErrNotFound
	}

	var upd store.RecordUpdate
	date := cur.Date
	if CLI.Edit.Date != nil {
		upd.SetDate = true
		upd.Date = *CLI.Edit.Date
		date = *CLI.Edit.Date
	}
	if CLI.Edit.In != nil {
		t, err := parseWhen(date, *CLI.Edit.In)
		if err != nil {
			return fmt.Errorf("--in: %w", err)
		}
		upd.SetPunchIn = true
		upd.PunchIn = &t
	}
	if CLI.Edit.Out != nil {
		upd.SetPunchOut = true
		if *CLI.Edit.Out != "" {
			t, err := parseWhen(date, *CLI.Edit.Out)
			if err != nil {
				return fmt.Errorf("--out: %w", err)
			}
			upd.PunchOut = &t
		}
	}
	if CLI.Edit.Notes != nil {
		upd.SetNotes = true
		upd.Notes = *CLI.Edit.Notes
	}

	if err := co.UpdateRecord(CLI.Edit.ID, upd); err != nil {
		return err
	}
	fmt.Printf("updated %s\n", CLI.Edit.ID)
	return nil
}

func runRm(co *punch.Coordinator) error {
	if err := co.DeleteRecord(CLI.Rm.ID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", CLI.Rm.ID)
	return nil
}

func runClear(co *punch.Coordinator) error {
	if !CLI.Clear.Force {
		fmt.Print("delete every record? type 'yes' to confirm: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.TrimSpace(line) != "yes" {
			fmt.Println("aborted")
			return nil
		}
	}
	if err := co.ClearAll(); err != nil {
		return err
	}
	fmt.Println("cleared")
	return nil
}

func runStats(co *punch.Coordinator) error {
	r, err := co.RangeByName(CLI.Stats.Range)
	if err != nil {
		return err
	}
	st, err := co.Stats(r)
	if err != nil {
		return err
	}
	fmt.Printf("%s .. %s\n", r.StartDate(), r.EndDate())
	fmt.Printf("total:   %.2fh\n", st.TotalHours)
	fmt.Printf("days:    %d\n", st.DaysWorked)
	fmt.Printf("avg/day: %.2fh\n", st.AverageHoursPerDay)

	if CLI.Stats.Chart {
		series, err := co.Series(r)
		if err != nil {
			return err
		}
		fmt.Println()
		for _, p := range series {
			fmt.Printf("%4s  %6.2fh\n", p.Label, p.Hours)
		}
	}
	return nil
}

func runExport(co *punch.Coordinator) error {
	w := os.Stdout
	if CLI.Export.Output != "" {
		f, err := os.Create(CLI.Export.Output)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return co.Export(w)
}

func runImport(co *punch.Coordinator) error {
	f, err := os.Open(CLI.Import.Input)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	n, err := co.Import(f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d records\n", n)
	return nil
}

func runReset(co *punch.Coordinator) error {
	if err := co.ResetState(); err != nil {
		return err
	}
	fmt.Println("session state reset")
	return nil
}

func printRecords(records []store.PunchRecord) {
	if len(records) == 0 {
		fmt.Println("no records")
		return
	}
	for _, r := range records {
		in, out := "--:--", "--:--"
		if r.PunchIn != nil {
			in = r.PunchIn.Local().Format("15:04")
		}
		if r.PunchOut != nil {
			out = r.PunchOut.Local().Format("15:04")
		}
		hours := "  open"
		if r.TotalHours != nil {
			hours = fmt.Sprintf("%5.2fh", *r.TotalHours)
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		line := fmt.Sprintf("%s  %s  %s-%s  %s", id, r.Date, in, out, hours)
		if r.Notes != "" {
			line += "  " + r.Notes
		}
		fmt.Println(line)
	}
}

// parseWhen accepts a bare clock time (interpreted on the given day, local
// zone), a date-time, or full RFC3339.
func parseWhen(date, s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			day, err := time.ParseInLocation(store.DateFormat, date, time.Local)
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid date %q", date)
			}
			return time.Date(day.Year(), day.Month(), day.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
