package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/scorebridge-backend/internal/data/repos"
	types "github.com/yungbote/scorebridge-backend/internal/domain"
	"github.com/yungbote/scorebridge-backend/internal/platform/dbctx"
	"github.com/yungbote/scorebridge-backend/internal/platform/logger"
)

type StudentService interface {
	Get(ctx context.Context, studentID string) (*types.Student, error)
}

type studentService struct {
	log      *logger.Logger
	students repos.StudentRepo
}

func NewStudentService(baseLog *logger.Logger, students repos.StudentRepo) StudentService {
	return &studentService{
		log:      baseLog.With("service", "StudentService"),
		students: students,
	}
}

func (s *studentService) Get(ctx context.Context, studentID string) (*types.Student, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, ErrStudentNotFound
	}
	row, err := s.students.GetByStudentID(dbctx.Background(ctx), studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if row == nil {
		return nil, ErrStudentNotFound
	}
	return row, nil
}
