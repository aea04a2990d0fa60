package booking

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	xerrors "CarrierDesk/internal/errors"
)

// journalKeep caps the in-memory tail served to the ops dashboard. The file
// itself keeps the full history.
const journalKeep = 512

// Journal appends confirmed bookings to a JSON-lines file and keeps the most
// recent entries in memory for fast listing.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	recent []Event
}

// OpenJournal creates or reopens the journal file, loading the tail of any
// existing history.
func OpenJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, xerrors.New(CodeBookingJournal, "journal path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, xerrors.Wrap(CodeBookingJournal, err, "create journal directory")
	}
	recent, err := loadRecent(path)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, xerrors.Wrap(CodeBookingJournal, err, "open journal file")
	}
	return &Journal{path: path, file: file, recent: recent}, nil
}

func loadRecent(path string) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, xerrors.Wrap(CodeBookingJournal, err, "read journal file")
	}
	defer file.Close()

	var recent []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		recent = append(recent, event)
		if len(recent) > journalKeep {
			recent = recent[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Wrap(CodeBookingJournal, err, "scan journal file")
	}
	return recent, nil
}

// Append writes the event to disk and remembers it in the recent tail.
func (j *Journal) Append(event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return xerrors.Wrap(CodeBookingJournal, err, "encode journal entry")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return xerrors.New(CodeBookingJournal, "journal is closed")
	}
	if _, err := fmt.Fprintf(j.file, "%s\n", body); err != nil {
		return xerrors.Wrap(CodeBookingJournal, err, "append journal entry")
	}
	j.recent = append(j.recent, event)
	if len(j.recent) > journalKeep {
		j.recent = j.recent[1:]
	}
	return nil
}

// ListLatest returns up to limit events, most recent first.
func (j *Journal) ListLatest(limit int) []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	if limit <= 0 || limit > len(j.recent) {
		limit = len(j.recent)
	}
	out := make([]Event, 0, limit)
	for i := len(j.recent) - 1; i >= len(j.recent)-limit; i-- {
		out = append(out, j.recent[i])
	}
	return out
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
