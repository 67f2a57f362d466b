package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimeLayout formats every timestamp in the metadata file.
const TimeLayout = "2006-01-02 15:04:05"

// MetadataFile is the sidecar name inside a session directory.
const MetadataFile = "metadata.json"

// ErrNoMetadata is returned by LoadMetadata when the file does not exist.
var ErrNoMetadata = errors.New("session: no metadata")

// Metadata is the JSON sidecar describing a recorded task. All timestamps are
// stored as text.
type Metadata struct {
	TaskDescription string `json:"task_description"`
	DatetimeStart   string `json:"datetime_start"`
	DatetimeEnd     string `json:"datetime_end"`
	ActualStartTime string `json:"actual_start_time"`
	SessionID       string `json:"session_id,omitempty"`
}

// AllowedWindow parses the allowed start and end. Empty fields yield zero
// times.
func (m Metadata) AllowedWindow() (start, end time.Time, err error) {
	if m.DatetimeStart != "" {
		if start, err = time.ParseInLocation(TimeLayout, m.DatetimeStart, time.Local); err != nil {
			return
		}
	}
	if m.DatetimeEnd != "" {
		end, err = time.ParseInLocation(TimeLayout, m.DatetimeEnd, time.Local)
	}
	return
}

// WriteMetadata writes m to path as indented JSON via a temp file and rename,
// so readers never observe a partial file.
func WriteMetadata(path string, m Metadata) (err error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "metadata-*.json.tmp")
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	// CreateTemp makes the file owner-only; match the videos beside it.
	if err = tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write metadata: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads a metadata file written by WriteMetadata.
func LoadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, ErrNoMetadata
		}
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return m, nil
}
