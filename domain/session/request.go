package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InputError reports user input rejected before a session starts. Field
// names the offending form field.
type InputError struct {
	Field string
	Msg   string
}

func (e *InputError) Error() string { return e.Field + ": " + e.Msg }

// Request holds the validated parameters of a new session.
type Request struct {
	Task         string
	AllowedStart time.Time
	AllowedEnd   time.Time
	// Duration stops the session automatically when positive.
	Duration time.Duration
}

// ParseRequest validates raw form input. start and end use TimeLayout in
// local time and may both be empty. minutes may be empty for an open-ended
// session; otherwise it must be a positive integer.
func ParseRequest(task, start, end, minutes string) (Request, error) {
	req := Request{Task: strings.TrimSpace(task)}
	var err error
	if req.AllowedStart, err = parseStamp("start", start); err != nil {
		return Request{}, err
	}
	if req.AllowedEnd, err = parseStamp("end", end); err != nil {
		return Request{}, err
	}
	if !req.AllowedStart.IsZero() && !req.AllowedEnd.IsZero() && req.AllowedEnd.Before(req.AllowedStart) {
		return Request{}, &InputError{Field: "end", Msg: "must not be before start"}
	}
	if m := strings.TrimSpace(minutes); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n <= 0 {
			return Request{}, &InputError{Field: "minutes", Msg: "please enter a valid number of minutes"}
		}
		req.Duration = time.Duration(n) * time.Minute
	}
	return req, nil
}

func parseStamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(TimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, &InputError{Field: field, Msg: fmt.Sprintf("expected %s", TimeLayout)}
	}
	return t, nil
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}
