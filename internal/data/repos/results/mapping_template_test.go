package results

import (
	"context"
	"testing"
	"time"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
)

func TestMappingTemplateRepoListVisibleOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewMappingTemplateRepo(db, testutil.Logger(t))

	low := testutil.SeedMappingTemplate(t, ctx, tx, "mine-low", "alice", false, 1)
	high := testutil.SeedMappingTemplate(t, ctx, tx, "public-high", "bob", true, 7)
	testutil.SeedMappingTemplate(t, ctx, tx, "bob-private", "bob", false, 99)

	got, err := repo.ListVisible(dbc, "alice", "")
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListVisible: want=2 got=%d", len(got))
	}
	if got[0].ID != high.ID || got[1].ID != low.ID {
		t.Fatalf("ListVisible order: got=%s,%s", got[0].Name, got[1].Name)
	}
	if got[0].Mapping.StudentIDColumn != "id" {
		t.Fatalf("Mapping: got=%+v", got[0].Mapping)
	}
}

func TestMappingTemplateRepoUsageAndDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewMappingTemplateRepo(db, testutil.Logger(t))

	row := &types.MappingTemplate{
		Name:      "grade 9",
		StageID:   "preparatory",
		CreatedBy: "alice",
		Mapping:   types.ColumnMapping{StudentIDColumn: "id", NameColumn: "name", SubjectColumns: []string{"math"}},
	}
	if err := repo.Create(dbc, row); err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Now().UTC()
	for i := 0; i < 2; i++ {
		if err := repo.IncrementUsage(dbc, row.ID, at); err != nil {
			t.Fatalf("IncrementUsage: %v", err)
		}
	}
	got, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UsageCount != 2 || got.LastUsed == nil {
		t.Fatalf("usage: want=2,last_used set got=%d,%v", got.UsageCount, got.LastUsed)
	}

	ok, err := repo.SoftDeleteOwned(dbc, row.ID, "mallory")
	if err != nil || ok {
		t.Fatalf("SoftDeleteOwned(other user): want=false,nil got=%v,%v", ok, err)
	}
	ok, err = repo.SoftDeleteOwned(dbc, row.ID, "alice")
	if err != nil || !ok {
		t.Fatalf("SoftDeleteOwned: want=true,nil got=%v,%v", ok, err)
	}
	got, err = repo.GetByID(dbc, row.ID)
	if err != nil || got != nil {
		t.Fatalf("GetByID(deleted): want=nil,nil got=%v,%v", got, err)
	}
}
