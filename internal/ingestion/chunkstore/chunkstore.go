// Package chunkstore persists a raw tabular payload under its fingerprint,
// splitting it into bounded chunks when it is too large for a single record.
package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
)

const DefaultChunkSize = 1000

var ErrNotFound = errors.New("chunkstore: payload not found")

// IntegrityError reports a chunked payload whose stored chunks do not add up
// to its header. It is never a parse error.
type IntegrityError struct {
	Fingerprint string
	Expected    int
	Missing     []int
	RowCount    int
	WantRows    int
	// HeaderLost is set when the upload is registered but its header is gone.
	HeaderLost bool
}

func (e *IntegrityError) Error() string {
	if e.HeaderLost {
		return fmt.Sprintf("chunkstore: payload %s header missing for a registered upload", e.Fingerprint)
	}
	if len(e.Missing) > 0 {
		return fmt.Sprintf("chunkstore: payload %s missing chunks %v of %d", e.Fingerprint, e.Missing, e.Expected)
	}
	return fmt.Sprintf("chunkstore: payload %s has %d rows, header says %d", e.Fingerprint, e.RowCount, e.WantRows)
}

type Header struct {
	Fingerprint string
	Chunked     bool
	RowCount    int
	ChunkCount  int
	// Rows is only set for single-unit payloads.
	Rows []sheet.Row
}

type Chunk struct {
	Index int
	Rows  []sheet.Row
}

// Backend is the key/value document store underneath the Store.
type Backend interface {
	// Purge removes any header and chunks stored for fingerprint.
	Purge(ctx context.Context, fingerprint string) error
	PutChunk(ctx context.Context, fingerprint string, c Chunk) error
	PutHeader(ctx context.Context, h Header) error
	// GetHeader returns ErrNotFound when nothing is stored.
	GetHeader(ctx context.Context, fingerprint string) (*Header, error)
	// Chunks returns stored chunks in any order.
	Chunks(ctx context.Context, fingerprint string) ([]Chunk, error)
}

type Store struct {
	backend   Backend
	chunkSize int
}

// New returns a Store that splits payloads above chunkSize rows.
// A non-positive chunkSize selects DefaultChunkSize.
func New(backend Backend, chunkSize int) *Store {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Store{backend: backend, chunkSize: chunkSize}
}

func (s *Store) ChunkSize() int { return s.chunkSize }

// Chunked reports whether a payload of n rows is split across chunks.
func (s *Store) Chunked(n int) bool { return n > s.chunkSize }

// Write replaces whatever is stored under fingerprint. Chunks are written
// before the header, so a crash mid-write leaves either the previous state or
// a header-less set of chunks that Read treats as absent.
func (s *Store) Write(ctx context.Context, fingerprint string, rows []sheet.Row) error {
	if err := s.backend.Purge(ctx, fingerprint); err != nil {
		return fmt.Errorf("purge %s: %w", fingerprint, err)
	}
	if !s.Chunked(len(rows)) {
		return s.backend.PutHeader(ctx, Header{
			Fingerprint: fingerprint,
			RowCount:    len(rows),
			Rows:        rows,
		})
	}

	chunks := 0
	for start := 0; start < len(rows); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.backend.PutChunk(ctx, fingerprint, Chunk{Index: chunks, Rows: rows[start:end]}); err != nil {
			return fmt.Errorf("write chunk %d of %s: %w", chunks, fingerprint, err)
		}
		chunks++
	}
	return s.backend.PutHeader(ctx, Header{
		Fingerprint: fingerprint,
		Chunked:     true,
		RowCount:    len(rows),
		ChunkCount:  chunks,
	})
}

// Read reassembles the payload in its original order.
func (s *Store) Read(ctx context.Context, fingerprint string) ([]sheet.Row, error) {
	h, err := s.backend.GetHeader(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if !h.Chunked {
		return h.Rows, nil
	}

	chunks, err := s.backend.Chunks(ctx, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("read chunks of %s: %w", fingerprint, err)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })

	present := make(map[int]bool, len(chunks))
	for _, c := range chunks {
		present[c.Index] = true
	}
	var missing []int
	for i := 0; i < h.ChunkCount; i++ {
		if !present[i] {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return nil, &IntegrityError{Fingerprint: fingerprint, Expected: h.ChunkCount, Missing: missing}
	}

	out := make([]sheet.Row, 0, h.RowCount)
	for _, c := range chunks {
		if c.Index >= h.ChunkCount {
			continue
		}
		out = append(out, c.Rows...)
	}
	if len(out) != h.RowCount {
		return nil, &IntegrityError{Fingerprint: fingerprint, Expected: h.ChunkCount, RowCount: len(out), WantRows: h.RowCount}
	}
	return out, nil
}
