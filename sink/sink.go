// Package sink publishes polled records.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/icodeforyou/entsoe-go/types"
)

type Sink interface {
	Publish(ctx context.Context, kind types.Kind, area string, records []types.FlatRecord) error
	Close() error
}

// Topic is where records of kind and area are published.
func Topic(prefix string, kind types.Kind, area string) string {
	clean := strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(area)
	return fmt.Sprintf("%s/%s/%s", prefix, kind, clean)
}

type line struct {
	Kind   types.Kind       `json:"kind"`
	Area   string           `json:"area"`
	Record types.FlatRecord `json:"record"`
}

// Writer writes one JSON object per record and line.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, enc: json.NewEncoder(w)}
}

func (s *Writer) Publish(ctx context.Context, kind types.Kind, area string, records []types.FlatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.enc.Encode(line{Kind: kind, Area: area, Record: r}); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
	return nil
}

func (s *Writer) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Multi publishes to every sink in order and stops at the first error.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, kind types.Kind, area string, records []types.FlatRecord) error {
	for _, s := range m {
		if err := s.Publish(ctx, kind, area, records); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
