package campaign

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// RunLog is the append-only history of completed runs, one JSON summary per
// line. It is the only completion channel for background runs.
type RunLog struct {
	mu   sync.Mutex
	path string
}

func NewRunLog(path string) *RunLog {
	return &RunLog{path: path}
}

func (l *RunLog) Append(sum Summary) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	_, err = f.Write(append(b, '\n'))
	return err
}

// List returns past runs in append order. A missing file is an empty history.
func (l *RunLog) List() ([]Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []Summary
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var sum Summary
		if err := json.Unmarshal(line, &sum); err != nil {
			// a torn write at the tail should not hide the rest of the history
			continue
		}
		out = append(out, sum)
	}
	return out, sc.Err()
}
