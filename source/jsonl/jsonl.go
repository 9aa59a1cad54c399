package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shruggr/fpgrowth/itemset"
)

const maxLine = 16 * 1024 * 1024

// Source reads one JSON array of item strings per line
// Blank lines are skipped
type Source struct {
	open func() (io.ReadCloser, error)
	name string
}

// NewFile creates a source reading path each time Each is called
func NewFile(path string) *Source {
	return &Source{
		open: func() (io.ReadCloser, error) { return os.Open(path) },
		name: "jsonl:" + path,
	}
}

// NewReader creates a single-use source over r
func NewReader(r io.Reader) *Source {
	return &Source{
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		name: "jsonl",
	}
}

// Each decodes every line and yields it as a basket
func (s *Source) Each(ctx context.Context, fn func(items []itemset.Item) error) error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var items []itemset.Item
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("line %d: failed to decode basket: %w", line, err)
		}

		if err := fn(items); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}
