package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/lifevault/internal/timex"
)

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

func parseID(args []string, usage string) (int64, error) {
	if len(args) == 0 {
		return 0, usageError(usage)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

// parseDate reads YYYY-MM-DD in loc. Empty input means today.
func parseDate(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "today":
		return timex.StartOfDay(now, loc), nil
	case "tomorrow":
		return timex.StartOfDay(now, loc).AddDate(0, 0, 1), nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return d, nil
}

// parseClock returns day at the HH:MM given in s.
func parseClock(s string, day time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func formatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
