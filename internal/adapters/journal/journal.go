// Package journal persists append-only JSONL logs under the data directory:
// edge cases, labeled training samples, and training-run events. One JSON
// object per line, synchronous appends under a mutex, corrupt lines skipped
// on load so a torn write never blocks startup.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// maxLineBytes bounds a single journal record.
	maxLineBytes = 4 * 1024 * 1024
)

// file is the shared append-only JSONL primitive behind the typed logs.
type file struct {
	mu    sync.Mutex
	path  string
	f     *os.File
	lines int
}

func openFile(path string) (*file, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &file{path: path, f: f, lines: countLines(path)}, nil
}

func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if len(sc.Bytes()) > 0 {
			n++
		}
	}
	return n
}

func (j *file) append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.f.Write(data); err != nil {
		return fmt.Errorf("append journal %s: %w", j.path, err)
	}
	j.lines++
	return nil
}

func (j *file) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lines
}

func (j *file) close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

// scan feeds every non-empty line to decode. decode returns false for lines
// it could not parse; those are counted but otherwise ignored.
func (j *file) scan(decode func([]byte) bool) (skipped int, err error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read journal %s: %w", j.path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if !decode(line) {
			skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return skipped, fmt.Errorf("scan journal %s: %w", j.path, err)
	}
	return skipped, nil
}
