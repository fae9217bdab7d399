package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quoteScope/internal/model"
)

// JsonlStorage appends scenario results to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutResults appends results as JSON lines. Safe for concurrent use.
func (s *JsonlStorage) PutResults(results []model.ScenarioResult) error {
	if len(results) == 0 {
		return nil
	}
	return s.appendLines(len(results), func(i int) (any, string) { return results[i], "result" })
}

// PutSummary appends the run summary as a single line.
func (s *JsonlStorage) PutSummary(summary model.RunSummary) error {
	return s.appendLines(1, func(int) (any, string) {
		return struct {
			Summary model.RunSummary `json:"summary"`
		}{summary}, "summary"
	})
}

func (s *JsonlStorage) appendLines(n int, item func(int) (any, string)) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for i := 0; i < n; i++ {
		v, what := item(i)
		line, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", what, err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write %s: %w", what, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
