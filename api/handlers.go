package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/soocke/productivity-recorder/domain/session"
	"github.com/soocke/productivity-recorder/ui/images"
)

// StartRequest is the body of POST /v1/session.
type StartRequest struct {
	TaskDescription string `json:"task_description"`
	DatetimeStart   string `json:"datetime_start"`
	DatetimeEnd     string `json:"datetime_end"`
	Minutes         int    `json:"minutes,omitempty"`
}

// StreamStatus is the result of one finished capture loop.
type StreamStatus struct {
	Stream string `json:"stream"`
	Path   string `json:"path"`
	Frames int    `json:"frames"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// OutcomeStatus summarizes the most recently finished session.
type OutcomeStatus struct {
	SessionID      string         `json:"session_id"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	TimedOut       bool           `json:"timed_out"`
	Streams        []StreamStatus `json:"streams"`
	Files          []string       `json:"files"`
}

// Status is the body of GET /v1/session and each WebSocket message.
type Status struct {
	State           string         `json:"state"`
	SessionID       string         `json:"session_id,omitempty"`
	TaskDescription string         `json:"task_description,omitempty"`
	Dir             string         `json:"dir,omitempty"`
	ElapsedSeconds  int            `json:"elapsed_seconds"`
	LastOutcome     *OutcomeStatus `json:"last_outcome,omitempty"`
}

// SessionRecord is one entry of GET /v1/sessions.
type SessionRecord struct {
	Dir      string            `json:"dir"`
	Started  time.Time         `json:"started"`
	Metadata *session.Metadata `json:"metadata,omitempty"`
	Files    []string          `json:"files"`
}

// StartSession handles POST /v1/session.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	minutes := ""
	if body.Minutes != 0 {
		minutes = strconv.Itoa(body.Minutes)
	}
	req, err := session.ParseRequest(body.TaskDescription, body.DatetimeStart, body.DatetimeEnd, minutes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.rec.Start(req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.status())
}

// control adapts a pause/resume/stop intent to a handler.
func (s *Server) control(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.status())
	}
}

// GetSession handles GET /v1/session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

// GetPreview handles GET /v1/session/preview, returning the last screen
// frame as PNG.
func (s *Server) GetPreview(w http.ResponseWriter, r *http.Request) {
	stream := r.URL.Query().Get("stream")
	if stream == "" {
		stream = session.StreamScreen
	}
	f := s.rec.Preview(stream)
	if f == nil {
		writeError(w, http.StatusNotFound, "no frame recorded")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(images.EncodePNG(f.RGBA()))
}

// ListSessions handles GET /v1/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]SessionRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, SessionRecord{Dir: rec.Dir, Started: rec.Started, Metadata: rec.Metadata, Files: rec.Files})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) status() Status {
	st := Status{
		State:          s.rec.State().String(),
		ElapsedSeconds: int(s.rec.Elapsed() / time.Second),
	}
	if sess := s.rec.Session(); sess != nil {
		st.SessionID = sess.ID
		st.TaskDescription = sess.TaskDescription
		st.Dir = sess.Dir
	}
	if o, ok := s.rec.Outcome(); ok {
		st.LastOutcome = outcomeStatus(o)
	}
	return st
}

func outcomeStatus(o session.Outcome) *OutcomeStatus {
	out := &OutcomeStatus{
		ElapsedSeconds: int(o.Elapsed / time.Second),
		TimedOut:       o.TimedOut,
		Files:          o.Files(),
	}
	if o.Session != nil {
		out.SessionID = o.Session.ID
	}
	for _, r := range o.Results {
		ss := StreamStatus{Stream: r.Stream, Path: r.Path, Frames: r.Frames, Reason: string(r.Reason)}
		if r.Err != nil {
			ss.Error = r.Err.Error()
		}
		out.Streams = append(out.Streams, ss)
	}
	return out
}

func statusFor(err error) int {
	var ie *session.InputError
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionActive), errors.Is(err, session.ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
