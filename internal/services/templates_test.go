package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	"github.com/yungbote/scorebridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/platform/ctxutil"
)

func userCtx(user string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{AdminUser: user})
}

func TestGradingTemplateSeedDefaultsOnce(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	r := repos.New(db, log)
	svc := NewGradingTemplateService(log, r.GradingTemplate)
	ctx := context.Background()

	n, err := svc.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	if n != 4 {
		t.Fatalf("SeedDefaults: want=4 got=%d", n)
	}
	again, err := svc.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("SeedDefaults (again): %v", err)
	}
	if again != 0 {
		t.Fatalf("SeedDefaults (again): want=0 got=%d", again)
	}

	prep, err := svc.List(ctx, "preparatory")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(prep) != 2 {
		t.Fatalf("List(preparatory): want=2 got=%d", len(prep))
	}
	tmpl, err := svc.Resolve(ctx, &prep[0].ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tmpl == nil || len(tmpl.Subjects) == 0 || len(tmpl.Boundaries) == 0 {
		t.Fatalf("Resolve: got=%+v", tmpl)
	}
	none, err := svc.Resolve(ctx, nil)
	if err != nil || none != nil {
		t.Fatalf("Resolve(nil): want=nil,nil got=%v,%v", none, err)
	}
}

func TestMappingTemplateLifecycle(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	r := repos.New(db, log)
	svc := NewMappingTemplateService(log, r.MappingTemplate)

	alice := userCtx("alice")
	bob := userCtx("bob")

	if _, err := svc.Create(alice, MappingTemplateInput{Name: "  ", Mapping: defaultMapping()}); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("Create(no name): want=%v got=%v", ErrInvalidTemplate, err)
	}
	if _, err := svc.Create(alice, MappingTemplateInput{Name: "x", Mapping: types.ColumnMapping{NameColumn: "n"}}); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("Create(bad mapping): want=%v got=%v", ErrInvalidTemplate, err)
	}

	private, err := svc.Create(alice, MappingTemplateInput{Name: "<b>grade 9</b>", Mapping: defaultMapping()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if private.Name != "bgrade 9/b" || private.CreatedBy != "alice" {
		t.Fatalf("Create: got name=%q created_by=%q", private.Name, private.CreatedBy)
	}
	public, err := svc.Create(bob, MappingTemplateInput{Name: "shared", Mapping: defaultMapping(), IsPublic: true})
	if err != nil {
		t.Fatalf("Create(public): %v", err)
	}

	if _, err := svc.Use(bob, private.ID); !errors.Is(err, ErrMappingTemplateNotFound) {
		t.Fatalf("Use(private of other): want=%v got=%v", ErrMappingTemplateNotFound, err)
	}
	used, err := svc.Use(alice, public.ID)
	if err != nil {
		t.Fatalf("Use: %v", err)
	}
	if used.UsageCount != 1 {
		t.Fatalf("UsageCount: want=1 got=%d", used.UsageCount)
	}

	list, err := svc.List(alice, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != public.ID {
		t.Fatalf("List: want public (most used) first, got=%d items", len(list))
	}

	if err := svc.Delete(alice, public.ID); !errors.Is(err, ErrMappingTemplateNotFound) {
		t.Fatalf("Delete(not owner): want=%v got=%v", ErrMappingTemplateNotFound, err)
	}
	if err := svc.Delete(alice, private.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = svc.List(alice, "")
	if len(list) != 1 {
		t.Fatalf("List after delete: want=1 got=%d", len(list))
	}
}

func TestStudentServiceGet(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	r := repos.New(db, log)
	svc := NewStudentService(log, r.Student)
	ctx := context.Background()

	testutil.SeedStudent(t, ctx, db, "42", "طالب")
	st, err := svc.Get(ctx, " 42 ")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.Name != "طالب" {
		t.Fatalf("Name: want=%q got=%q", "طالب", st.Name)
	}
	if _, err := svc.Get(ctx, "404"); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("Get(missing): want=%v got=%v", ErrStudentNotFound, err)
	}
}
