package results

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
)

func TestGradingTemplateRepoCreateListCount(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewGradingTemplateRepo(db, testutil.Logger(t))

	mk := func(name, stage string, def bool) *types.GradingTemplate {
		return &types.GradingTemplate{
			Name:       name,
			StageID:    stage,
			IsDefault:  def,
			Subjects:   datatypes.NewJSONType([]types.SubjectRule{{Name: "الرياضيات", MaxScore: 60}}),
			Boundaries: datatypes.NewJSONType([]types.GradeBoundary{{Label: "ممتاز", MinPercentage: 90}}),
		}
	}
	if err := repo.CreateIgnoreExisting(dbc, []*types.GradingTemplate{
		mk("prep-1", "preparatory", false),
		mk("prep-2", "preparatory", true),
		mk("sec-1", "secondary", false),
	}); err != nil {
		t.Fatalf("CreateIgnoreExisting: %v", err)
	}
	// second seed is a no-op for existing names
	if err := repo.CreateIgnoreExisting(dbc, []*types.GradingTemplate{mk("prep-1", "preparatory", false)}); err != nil {
		t.Fatalf("CreateIgnoreExisting (again): %v", err)
	}

	n, err := repo.Count(dbc)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("Count: want=3 got=%d", n)
	}

	prep, err := repo.List(dbc, "preparatory")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(prep) != 2 || prep[0].Name != "prep-2" {
		t.Fatalf("List: want default first got=%v", prep)
	}

	got, err := repo.GetByID(dbc, prep[1].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if subs := got.Subjects.Data(); len(subs) != 1 || subs[0].MaxScore != 60 {
		t.Fatalf("Subjects: got=%+v", subs)
	}
}
