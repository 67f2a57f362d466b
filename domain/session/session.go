// Package session coordinates one screen and one webcam capture loop per
// user-initiated recording, along with its metadata and elapsed time.
package session

import (
	"errors"
	"time"

	"github.com/soocke/productivity-recorder/domain/recording"
)

// Stream names.
const (
	StreamScreen = "screen"
	StreamWebcam = "webcam"
)

// Session is one recording. It does not change after Start returns.
type Session struct {
	ID              string
	TaskDescription string
	AllowedStart    time.Time
	AllowedEnd      time.Time
	ActualStart     time.Time
	Duration        time.Duration
	Paths
}

// Metadata returns the sidecar contents for s.
func (s *Session) Metadata() Metadata {
	return Metadata{
		TaskDescription: s.TaskDescription,
		DatetimeStart:   formatStamp(s.AllowedStart),
		DatetimeEnd:     formatStamp(s.AllowedEnd),
		ActualStartTime: formatStamp(s.ActualStart),
		SessionID:       s.ID,
	}
}

// Outcome is the joined completion of a session.
type Outcome struct {
	Session *Session
	Results []recording.Result
	Elapsed time.Duration
	// TimedOut is set when the session ended because its Duration elapsed.
	TimedOut bool
}

// Err joins the errors of every failed loop.
func (o Outcome) Err() error {
	var errs []error
	for _, r := range o.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Result returns the result of the named stream.
func (o Outcome) Result(stream string) (recording.Result, bool) {
	for _, r := range o.Results {
		if r.Stream == stream {
			return r, true
		}
	}
	return recording.Result{}, false
}

// Files lists the output files that exist on disk, metadata included.
func (o Outcome) Files() []string {
	var files []string
	for _, r := range o.Results {
		if r.Path != "" && exists(r.Path) {
			files = append(files, r.Path)
		}
	}
	if o.Session != nil && o.Session.MetadataPath != "" && exists(o.Session.MetadataPath) {
		files = append(files, o.Session.MetadataPath)
	}
	return files
}
