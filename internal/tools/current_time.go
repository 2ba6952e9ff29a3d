package tools

import (
	"context"
	"time"
)

// CurrentTimeTool reports the current date and time for an IANA timezone.
type CurrentTimeTool struct{}

func (t *CurrentTimeTool) Name() string { return "current_time" }

func (t *CurrentTimeTool) Description() string {
	return "Returns the current date and time for a given IANA timezone (e.g. UTC, America/New_York). Defaults to UTC."
}

func (t *CurrentTimeTool) Execute(_ context.Context, args map[string]any) Result {
	tz := stringArg(args, "timezone", "UTC")

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Fail("unknown timezone %q", tz)
	}

	now := time.Now().In(loc)
	return OK(map[string]any{
		"timezone": tz,
		"iso":      now.Format(time.RFC3339),
		"human":    now.Format(time.RFC1123),
		"unix":     now.Unix(),
	})
}
