package dates

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hupe1980/planmesh/internal/util"
	"github.com/hupe1980/planmesh/tool"
)

const dateLayout = "2006-01-02"

// Toolkit bundles the date and time tools. The clock is injectable for
// tests; the zero value of Options uses time.Now.
type Toolkit struct {
	now func() time.Time
}

// Options configure a Toolkit.
type Options struct {
	Now func() time.Time
}

// NewToolkit creates a Toolkit.
func NewToolkit(optFns ...func(o *Options)) *Toolkit {
	opts := Options{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Toolkit{now: opts.Now}
}

// Tools returns the toolkit's tools for registry registration.
func (tk *Toolkit) Tools() []tool.Tool {
	return []tool.Tool{
		tk.todaysDateTool(),
		tk.todaysDatetimeTool(),
		tk.currentTimeTool(),
		tk.isLeapYearTool(),
		tk.dateDeltaTool(),
		tk.addDateDeltaTool(),
	}
}

func emptyParams() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (tk *Toolkit) todaysDateTool() tool.Tool {
	return tool.NewFunctionTool(
		"todays_date",
		"Returns today's date in YYYY-MM-DD format.",
		emptyParams(),
		func(_ context.Context, _ map[string]any) (*tool.Result, error) {
			return &tool.Result{Content: tk.now().Format(dateLayout)}, nil
		},
	)
}

func (tk *Toolkit) todaysDatetimeTool() tool.Tool {
	return tool.NewFunctionTool(
		"todays_datetime",
		"Returns today's date and time in YYYY-MM-DD HH:MM:SS format.",
		emptyParams(),
		func(_ context.Context, _ map[string]any) (*tool.Result, error) {
			return &tool.Result{Content: tk.now().Format("2006-01-02 15:04:05")}, nil
		},
	)
}

func (tk *Toolkit) currentTimeTool() tool.Tool {
	return tool.NewFunctionTool(
		"current_time",
		"Returns the current time in HH:MM:SS format.",
		emptyParams(),
		func(_ context.Context, _ map[string]any) (*tool.Result, error) {
			return &tool.Result{Content: tk.now().Format("15:04:05")}, nil
		},
	)
}

func (tk *Toolkit) isLeapYearTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"year": map[string]any{"type": "integer", "description": "The year to check"},
		},
		"required": []string{"year"},
	}
	return tool.NewFunctionTool(
		"is_leap_year",
		"Checks if the given year is a leap year.",
		params,
		func(_ context.Context, args map[string]any) (*tool.Result, error) {
			year := util.IntArg(args, "year", 0)
			return &tool.Result{Content: strconv.FormatBool(isLeap(year))}, nil
		},
	)
}

func (tk *Toolkit) dateDeltaTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_date": map[string]any{"type": "string", "description": "Start date in YYYY-MM-DD format"},
			"end_date":   map[string]any{"type": "string", "description": "End date in YYYY-MM-DD format"},
			"unit":       map[string]any{"type": "string", "description": "One of days, weeks, months, years"},
		},
		"required": []string{"start_date", "end_date", "unit"},
	}
	return tool.NewFunctionTool(
		"date_delta",
		"Calculates the difference between two dates in the specified unit (days, weeks, months, years).",
		params,
		func(_ context.Context, args map[string]any) (*tool.Result, error) {
			start, err := parseDate("date_delta", util.StringArg(args, "start_date", ""))
			if err != nil {
				return nil, err
			}
			end, err := parseDate("date_delta", util.StringArg(args, "end_date", ""))
			if err != nil {
				return nil, err
			}

			unit := util.StringArg(args, "unit", "")
			days := int(end.Sub(start).Hours() / 24)
			switch unit {
			case "days":
				return &tool.Result{Content: fmt.Sprintf("%d days", days)}, nil
			case "weeks":
				return &tool.Result{Content: fmt.Sprintf("%d weeks", days/7)}, nil
			case "months":
				return &tool.Result{Content: fmt.Sprintf("%d months", monthsBetween(start, end))}, nil
			case "years":
				return &tool.Result{Content: fmt.Sprintf("%d years", monthsBetween(start, end)/12)}, nil
			default:
				return nil, invalidUnit("date_delta", unit)
			}
		},
	)
}

func (tk *Toolkit) addDateDeltaTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_date": map[string]any{"type": "string", "description": "Start date in YYYY-MM-DD format"},
			"delta":      map[string]any{"type": "integer", "description": "Amount to add; may be negative"},
			"unit":       map[string]any{"type": "string", "description": "One of days, weeks, months, years"},
		},
		"required": []string{"start_date", "delta", "unit"},
	}
	return tool.NewFunctionTool(
		"add_date_delta",
		"Adds a delta to a date in the specified unit (days, weeks, months, years) and returns the new date.",
		params,
		func(_ context.Context, args map[string]any) (*tool.Result, error) {
			start, err := parseDate("add_date_delta", util.StringArg(args, "start_date", ""))
			if err != nil {
				return nil, err
			}
			delta := util.IntArg(args, "delta", 0)

			var result time.Time
			switch unit := util.StringArg(args, "unit", ""); unit {
			case "days":
				result = start.AddDate(0, 0, delta)
			case "weeks":
				result = start.AddDate(0, 0, delta*7)
			case "months":
				result = addMonths(start, delta)
			case "years":
				result = addMonths(start, delta*12)
			default:
				return nil, invalidUnit("add_date_delta", unit)
			}
			return &tool.Result{Content: result.Format(dateLayout)}, nil
		},
	)
}

func parseDate(toolName, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, tool.NewToolError(toolName,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value), tool.CodeValidation)
	}
	return t, nil
}

func invalidUnit(toolName, unit string) error {
	return tool.NewToolError(toolName,
		fmt.Sprintf("invalid unit %q, use days, weeks, months or years", unit), tool.CodeValidation)
}

func isLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// monthsBetween counts whole calendar months from start to end, borrowing a
// month when the end day has not yet reached the start day.
func monthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return -monthsBetween(end, start)
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return months
}

// addMonths shifts by calendar months, clamping to the last day of the target
// month instead of letting the date normalize into the next one.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := year*12 + int(month) - 1 + months
	newYear, newMonth := total/12, time.Month(total%12+1)
	if total < 0 && total%12 != 0 {
		newYear--
		newMonth = time.Month(total%12 + 13)
	}
	if last := daysInMonth(newYear, newMonth); day > last {
		day = last
	}
	return time.Date(newYear, newMonth, day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
