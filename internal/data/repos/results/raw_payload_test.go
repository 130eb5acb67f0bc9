package results

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
)

func TestRawPayloadRepoUpsertReplacesHeader(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewRawPayloadRepo(db, testutil.Logger(t))

	if err := repo.Upsert(dbc, &types.RawPayload{
		Fingerprint: "fp",
		Mode:        types.PayloadModeSingle,
		RowCount:    1,
		Rows:        datatypes.JSON([]byte(`[{"id":"1"}]`)),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, &types.RawPayload{
		Fingerprint: "fp",
		Mode:        types.PayloadModeChunked,
		RowCount:    2500,
		ChunkCount:  3,
	}); err != nil {
		t.Fatalf("Upsert (replace): %v", err)
	}

	got, err := repo.GetByFingerprint(dbc, "fp")
	if err != nil {
		t.Fatalf("GetByFingerprint: %v", err)
	}
	if got == nil || got.Mode != types.PayloadModeChunked || got.ChunkCount != 3 || got.RowCount != 2500 {
		t.Fatalf("GetByFingerprint: got=%+v", got)
	}

	if err := repo.DeleteByFingerprint(dbc, "fp"); err != nil {
		t.Fatalf("DeleteByFingerprint: %v", err)
	}
	got, err = repo.GetByFingerprint(dbc, "fp")
	if err != nil || got != nil {
		t.Fatalf("GetByFingerprint(after delete): want=nil,nil got=%v,%v", got, err)
	}
}

func TestRawPayloadChunkRepoOrdersByIndex(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewRawPayloadChunkRepo(db, testutil.Logger(t))

	for _, idx := range []int{2, 0, 1} {
		if err := repo.Upsert(dbc, &types.RawPayloadChunk{
			Fingerprint: "fp",
			ChunkIndex:  idx,
			RowCount:    1,
			Rows:        datatypes.JSON([]byte(`[]`)),
		}); err != nil {
			t.Fatalf("Upsert(%d): %v", idx, err)
		}
	}
	if err := repo.Upsert(dbc, &types.RawPayloadChunk{Fingerprint: "other", ChunkIndex: 0, Rows: datatypes.JSON([]byte(`[]`))}); err != nil {
		t.Fatalf("Upsert(other): %v", err)
	}

	chunks, err := repo.ListByFingerprint(dbc, "fp")
	if err != nil {
		t.Fatalf("ListByFingerprint: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("ListByFingerprint: want=3 got=%d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Fatalf("chunk[%d]: want index=%d got=%d", i, i, c.ChunkIndex)
		}
	}

	if err := repo.DeleteOne(dbc, "fp", 1); err != nil {
		t.Fatalf("DeleteOne: %v", err)
	}
	chunks, _ = repo.ListByFingerprint(dbc, "fp")
	if len(chunks) != 2 {
		t.Fatalf("after DeleteOne: want=2 got=%d", len(chunks))
	}

	if err := repo.DeleteByFingerprint(dbc, "fp"); err != nil {
		t.Fatalf("DeleteByFingerprint: %v", err)
	}
	chunks, _ = repo.ListByFingerprint(dbc, "fp")
	if len(chunks) != 0 {
		t.Fatalf("after DeleteByFingerprint: want=0 got=%d", len(chunks))
	}
	other, _ := repo.ListByFingerprint(dbc, "other")
	if len(other) != 1 {
		t.Fatalf("other fingerprint: want=1 got=%d", len(other))
	}
}
