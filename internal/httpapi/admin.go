package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobboard/internal/admin"
	"github.com/amishk599/jobboard/internal/export"
	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "email and password are required", nil)
		return
	}
	s, err := h.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":       s.ID,
		"admin_email": s.AdminEmail,
		"expires_at":  s.ExpiresAt,
	})
}

func (h *handler) logout(c *gin.Context) {
	if err := h.Sessions.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) stats(c *gin.Context) {
	st, err := admin.ComputeStats(c.Request.Context(), h.Store)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handler) adminListJobs(c *gin.Context) {
	jobs, err := h.Jobs.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *handler) createJob(c *gin.Context) {
	var fields model.JobFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid JSON body: "+err.Error(), nil)
		return
	}
	job, err := h.Jobs.Create(c.Request.Context(), fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *handler) updateJob(c *gin.Context) {
	var fields model.JobFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid JSON body: "+err.Error(), nil)
		return
	}
	job, err := h.Jobs.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handler) toggleJob(c *gin.Context) {
	job, err := h.Jobs.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handler) applicationFilter(c *gin.Context) (filter.ApplicationFilter, bool) {
	f, err := filter.NewApplicationFilter(c.Query("status"), c.Query("job_id"))
	if err != nil {
		h.fail(c, err)
		return filter.ApplicationFilter{}, false
	}
	return f, true
}

func (h *handler) listApplications(c *gin.Context) {
	f, ok := h.applicationFilter(c)
	if !ok {
		return
	}
	views, err := h.Triage.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	if views == nil {
		views = []model.ApplicationView{}
	}
	c.JSON(http.StatusOK, gin.H{"applications": views})
}

func (h *handler) setApplicationStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "status is required", nil)
		return
	}
	app, err := h.Triage.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *handler) exportApplications(c *gin.Context) {
	f, ok := h.applicationFilter(c)
	if !ok {
		return
	}
	views, err := h.Triage.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, views); err != nil {
		h.fail(c, err)
		return
	}
	name := fmt.Sprintf("applications-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
