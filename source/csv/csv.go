package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shruggr/fpgrowth/itemset"
)

// Config controls how baskets are parsed
type Config struct {
	Comma  rune // Field delimiter, defaults to ','
	Dedupe bool // Drop repeated items inside a basket instead of failing
}

// Source reads one basket per line
// Blank fields are skipped so trailing delimiters are harmless
type Source struct {
	open   func() (io.ReadCloser, error)
	name   string
	config Config
}

// NewFile creates a source reading path each time Each is called
func NewFile(path string, config Config) *Source {
	return &Source{
		open:   func() (io.ReadCloser, error) { return os.Open(path) },
		name:   "csv:" + path,
		config: config,
	}
}

// NewReader creates a single-use source over r
func NewReader(r io.Reader, config Config) *Source {
	return &Source{
		open:   func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		name:   "csv",
		config: config,
	}
}

// Each parses the input and yields every basket
func (s *Source) Each(ctx context.Context, fn func(items []itemset.Item) error) error {
	rc, err := s.open()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.ReuseRecord = true
	if s.config.Comma != 0 {
		r.Comma = s.config.Comma
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse line: %w", err)
		}

		items := make([]itemset.Item, 0, len(record))
		seen := make(map[string]struct{}, len(record))
		for _, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			if s.config.Dedupe {
				if _, ok := seen[field]; ok {
					continue
				}
				seen[field] = struct{}{}
			}
			items = append(items, itemset.Item(field))
		}

		if err := fn(items); err != nil {
			return err
		}
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}
