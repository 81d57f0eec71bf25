package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"teacherdesk/internal/student"
)

func (h *handler) listStudents(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Students.Students())
}

func (h *handler) refreshStudents(c *gin.Context) {
	if _, err := h.app.Students.FetchAll(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.app.Students.Students())
}

func (h *handler) createStudent(c *gin.Context) {
	var st student.Student
	if err := c.ShouldBindJSON(&st); err != nil {
		badRequest(c, err)
		return
	}
	if st.Name == "" {
		badRequest(c, errors.New("name is required"))
		return
	}
	created, err := h.app.Students.Create(c.Request.Context(), st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handler) createStudents(c *gin.Context) {
	var records []student.Student
	if err := c.ShouldBindJSON(&records); err != nil {
		badRequest(c, err)
		return
	}
	if len(records) == 0 {
		badRequest(c, student.ErrEmptyImport)
		return
	}
	created, err := h.app.Students.CreateMany(c.Request.Context(), records)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handler) lookupStudent(c *gin.Context) {
	st, ok := h.app.Students.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handler) updateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var st student.Student
	if err := c.ShouldBindJSON(&st); err != nil {
		badRequest(c, err)
		return
	}
	st.ID = id
	updated, err := h.app.Students.Update(c.Request.Context(), st)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handler) deleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.app.Students.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) deleteAllStudents(c *gin.Context) {
	if err := h.app.Students.DeleteAll(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) addConsultation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body student.Consultation
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if body.Content == "" {
		badRequest(c, errors.New("content is required"))
		return
	}
	updated, err := h.app.Students.AddConsultation(c.Request.Context(), id, body)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handler) summarizeConsultations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	summary, err := h.app.Students.SummarizeConsultations(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
