package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createToDoRequest struct {
	Content string `json:"content" binding:"required"`
}

type completeToDoRequest struct {
	IsCompleted *bool `json:"is_completed" binding:"required"`
}

type extractRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *handler) listToDos(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.ToDos.ToDos())
}

func (h *handler) refreshToDos(c *gin.Context) {
	if _, err := h.app.ToDos.FetchAll(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.app.ToDos.ToDos())
}

func (h *handler) createToDo(c *gin.Context) {
	var req createToDoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	created, err := h.app.ToDos.Create(c.Request.Context(), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handler) setToDoCompleted(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req completeToDoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.app.ToDos.SetCompleted(c.Request.Context(), id, *req.IsCompleted)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handler) deleteToDo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.app.ToDos.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) extractToDos(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	extracted, err := h.app.ToDos.ExtractFromLog(c.Request.Context(), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, extracted)
}
