package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Record is one recorded session found on disk.
type Record struct {
	Dir      string
	Started  time.Time
	Metadata *Metadata // nil for the flat layout or a missing sidecar
	Files    []string
}

// Store lists recordings below an output root.
type Store struct {
	Root string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store { return &Store{Root: dir} }

// List returns the recordings under the root, newest first. Session folders
// are read with their metadata; flat screen_/webcam_ files sharing a stamp
// are grouped into one record. A missing root yields no records.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var records []Record
	flat := map[string]*Record{}
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(s.Root, name)
		if e.IsDir() {
			if !strings.HasPrefix(name, dirPrefix) {
				continue
			}
			records = append(records, s.readDir(full, strings.TrimPrefix(name, dirPrefix)))
			continue
		}
		stamp, ok := flatStamp(name)
		if !ok {
			continue
		}
		rec := flat[stamp]
		if rec == nil {
			rec = &Record{Dir: s.Root, Started: parseDirStamp(stamp)}
			flat[stamp] = rec
		}
		rec.Files = append(rec.Files, full)
	}
	for _, rec := range flat {
		sort.Strings(rec.Files)
		records = append(records, *rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Started.Equal(records[j].Started) {
			return records[i].Started.After(records[j].Started)
		}
		return records[i].Dir > records[j].Dir
	})
	return records, nil
}

func (s *Store) readDir(dir, stamp string) Record {
	rec := Record{Dir: dir, Started: parseDirStamp(stamp)}
	if m, err := LoadMetadata(filepath.Join(dir, MetadataFile)); err == nil {
		rec.Metadata = &m
		if t, err := time.ParseInLocation(TimeLayout, m.ActualStartTime, time.Local); err == nil {
			rec.Started = t
		}
	}
	for _, f := range []string{screenFile, webcamFile, MetadataFile} {
		if p := filepath.Join(dir, f); exists(p) {
			rec.Files = append(rec.Files, p)
		}
	}
	return rec
}

// flatStamp extracts the timestamp (with any -N suffix) of a flat layout file.
func flatStamp(name string) (string, bool) {
	if !strings.HasSuffix(name, ".mp4") {
		return "", false
	}
	base := strings.TrimSuffix(name, ".mp4")
	for _, p := range []string{"screen_", "webcam_"} {
		if strings.HasPrefix(base, p) {
			return strings.TrimPrefix(base, p), true
		}
	}
	return "", false
}

// parseDirStamp parses a folder or file stamp, ignoring a -N suffix.
func parseDirStamp(stamp string) time.Time {
	if len(stamp) > len(DirStampLayout) {
		stamp = stamp[:len(DirStampLayout)]
	}
	t, _ := time.ParseInLocation(DirStampLayout, stamp, time.Local)
	return t
}
