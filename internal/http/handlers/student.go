package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/scorebridge-backend/internal/http/response"
	"github.com/yungbote/scorebridge-backend/internal/services"
)

type StudentHandler struct {
	students services.StudentService
}

func NewStudentHandler(students services.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// GET /api/students/:student_id
func (h *StudentHandler) Get(c *gin.Context) {
	st, err := h.students.Get(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"student": st})
}
