package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teacherdesk/internal/worklog"
)

type currentResponse struct {
	State   string           `json:"state"`
	WorkLog *worklog.WorkLog `json:"work_log"`
}

func current(wl worklog.WorkLog, st worklog.State) currentResponse {
	resp := currentResponse{State: st.String()}
	if st == worklog.Present {
		resp.WorkLog = &wl
	}
	return resp
}

func (h *handler) listWorkLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.WorkLogs.WorkLogs())
}

func (h *handler) refreshWorkLogs(c *gin.Context) {
	if _, err := h.app.WorkLogs.FetchAll(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.app.WorkLogs.WorkLogs())
}

func (h *handler) currentWorkLog(c *gin.Context) {
	c.JSON(http.StatusOK, current(h.app.WorkLogs.Current()))
}

func (h *handler) loadWorkLog(c *gin.Context) {
	wl, st, err := h.app.WorkLogs.FetchByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, current(wl, st))
}

func (h *handler) saveWorkLog(c *gin.Context) {
	var wl worklog.WorkLog
	if err := c.ShouldBindJSON(&wl); err != nil {
		badRequest(c, err)
		return
	}
	saved, err := h.app.WorkLogs.Save(c.Request.Context(), wl)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handler) deleteWorkLog(c *gin.Context) {
	if err := h.app.WorkLogs.Delete(c.Request.Context(), c.Param("date")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
