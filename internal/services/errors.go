package services

import "errors"

var (
	ErrFileNotFound            = errors.New("uploaded file not found")
	ErrFileTooLarge            = errors.New("uploaded file exceeds the size limit")
	ErrGradingTemplateNotFound = errors.New("grading template not found")
	ErrMappingTemplateNotFound = errors.New("mapping template not found")
	ErrStudentNotFound         = errors.New("student not found")
	ErrInvalidTemplate         = errors.New("invalid mapping template")
)
