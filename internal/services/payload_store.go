package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/chunkstore"
	"github.com/yungbote/scorebridge-backend/internal/ingestion/sheet"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
)

// payloadBackend keeps chunkstore headers in raw_payload and chunks in
// raw_payload_chunk.
type payloadBackend struct {
	payloads repos.RawPayloadRepo
	chunks   repos.RawPayloadChunkRepo
}

func NewPayloadStore(payloads repos.RawPayloadRepo, chunks repos.RawPayloadChunkRepo, chunkSize int) *chunkstore.Store {
	return chunkstore.New(&payloadBackend{payloads: payloads, chunks: chunks}, chunkSize)
}

func (b *payloadBackend) Purge(ctx context.Context, fingerprint string) error {
	dbc := dbctx.Background(ctx)
	// header first: a half-purged payload must read as absent
	if err := b.payloads.DeleteByFingerprint(dbc, fingerprint); err != nil {
		return err
	}
	return b.chunks.DeleteByFingerprint(dbc, fingerprint)
}

func (b *payloadBackend) PutChunk(ctx context.Context, fingerprint string, c chunkstore.Chunk) error {
	raw, err := encodeRows(c.Rows)
	if err != nil {
		return err
	}
	return b.chunks.Upsert(dbctx.Background(ctx), &types.RawPayloadChunk{
		Fingerprint: fingerprint,
		ChunkIndex:  c.Index,
		RowCount:    len(c.Rows),
		Rows:        raw,
	})
}

func (b *payloadBackend) PutHeader(ctx context.Context, h chunkstore.Header) error {
	row := &types.RawPayload{
		Fingerprint: h.Fingerprint,
		Mode:        types.PayloadModeSingle,
		RowCount:    h.RowCount,
		ChunkCount:  h.ChunkCount,
	}
	if h.Chunked {
		row.Mode = types.PayloadModeChunked
	} else {
		raw, err := encodeRows(h.Rows)
		if err != nil {
			return err
		}
		row.Rows = raw
	}
	return b.payloads.Upsert(dbctx.Background(ctx), row)
}

func (b *payloadBackend) GetHeader(ctx context.Context, fingerprint string) (*chunkstore.Header, error) {
	row, err := b.payloads.GetByFingerprint(dbctx.Background(ctx), fingerprint)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, chunkstore.ErrNotFound
	}
	h := &chunkstore.Header{
		Fingerprint: row.Fingerprint,
		Chunked:     row.Mode == types.PayloadModeChunked,
		RowCount:    row.RowCount,
		ChunkCount:  row.ChunkCount,
	}
	if !h.Chunked {
		if h.Rows, err = decodeRows(row.Rows); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", fingerprint, err)
		}
	}
	return h, nil
}

func (b *payloadBackend) Chunks(ctx context.Context, fingerprint string) ([]chunkstore.Chunk, error) {
	rows, err := b.chunks.ListByFingerprint(dbctx.Background(ctx), fingerprint)
	if err != nil {
		return nil, err
	}
	out := make([]chunkstore.Chunk, 0, len(rows))
	for _, r := range rows {
		decoded, err := decodeRows(r.Rows)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d of %s: %w", r.ChunkIndex, fingerprint, err)
		}
		out = append(out, chunkstore.Chunk{Index: r.ChunkIndex, Rows: decoded})
	}
	return out, nil
}

func encodeRows(rows []sheet.Row) (datatypes.JSON, error) {
	if rows == nil {
		rows = []sheet.Row{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

func decodeRows(raw datatypes.JSON) ([]sheet.Row, error) {
	if len(raw) == 0 {
		return []sheet.Row{}, nil
	}
	var rows []sheet.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
