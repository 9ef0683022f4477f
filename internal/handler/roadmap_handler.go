package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"minutri/internal/adherence"
	"minutri/internal/model"
	"minutri/internal/progression"
	"minutri/internal/service"
	"minutri/pkg/logger"
)

type RoadmapHandler struct {
	svc    *service.RoadmapService
	logger *zap.Logger
}

func NewRoadmapHandler(svc *service.RoadmapService, logger *zap.Logger) *RoadmapHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoadmapHandler{svc: svc, logger: logger}
}

// CreateRoadmap POST /roadmap
func (h *RoadmapHandler) CreateRoadmap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	res, err := h.svc.Onboard(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetRoadmap GET /roadmap
func (h *RoadmapHandler) GetRoadmap(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetModules GET /modules
func (h *RoadmapHandler) GetModules(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	modules, err := h.svc.Modules(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

// GetTracking GET /modules/:id/tracking
func (h *RoadmapHandler) GetTracking(c *gin.Context) {
	userID, moduleID, ok := userAndModule(c)
	if !ok {
		return
	}
	days, err := h.svc.Tracking(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"module_id": moduleID,
		"adherence": adherence.CalculateAdherence(days),
		"days":      days,
	})
}

type checkInRequest struct {
	Field string `json:"field" binding:"required"`
	Value *bool  `json:"value" binding:"required"`
}

// CheckIn PUT /modules/:id/tracking/:day
func (h *RoadmapHandler) CheckIn(c *gin.Context) {
	userID, moduleID, ok := userAndModule(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day"})
		return
	}

	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	out, err := h.svc.CheckIn(c.Request.Context(), userID, moduleID, day, model.TrackingField(req.Field), *req.Value)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetContent GET /modules/:id/content
func (h *RoadmapHandler) GetContent(c *gin.Context) {
	userID, moduleID, ok := userAndModule(c)
	if !ok {
		return
	}
	days, err := h.svc.Content(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"module_id": moduleID, "days": days})
}

// GetContentDay GET /modules/:id/content/:day
func (h *RoadmapHandler) GetContentDay(c *gin.Context) {
	userID, moduleID, ok := userAndModule(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day"})
		return
	}
	d, err := h.svc.ContentDay(c.Request.Context(), userID, moduleID, day)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// RegenerateContent POST /modules/:id/content/regenerate
func (h *RoadmapHandler) RegenerateContent(c *gin.Context) {
	userID, moduleID, ok := userAndModule(c)
	if !ok {
		return
	}
	days, err := h.svc.RegenerateContent(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"module_id": moduleID, "days": days})
}

// Override POST /modules/:id/override
func (h *RoadmapHandler) Override(c *gin.Context) {
	userID, moduleID, ok := userAndModule(c)
	if !ok {
		return
	}
	out, err := h.svc.Override(c.Request.Context(), userID, moduleID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func currentUser(c *gin.Context) (int, bool) {
	v, exists := c.Get("user_id")
	uid, ok := v.(int)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return 0, false
	}
	return uid, true
}

func userAndModule(c *gin.Context) (int, int, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return 0, 0, false
	}
	moduleID, err := strconv.Atoi(c.Param("id"))
	if err != nil || moduleID < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid module id"})
		return 0, 0, false
	}
	return userID, moduleID, true
}

func (h *RoadmapHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidGoal),
		errors.Is(err, adherence.ErrDayOutOfRange),
		errors.Is(err, adherence.ErrUnknownField):
		status = http.StatusBadRequest
	case errors.Is(err, progression.ErrNoRoadmap),
		errors.Is(err, progression.ErrModuleNotFound),
		errors.Is(err, service.ErrContentDayNotFound):
		status = http.StatusNotFound
	case errors.Is(err, progression.ErrNotActive),
		errors.Is(err, progression.ErrNotStalled),
		errors.Is(err, service.ErrPlanReplaced):
		status = http.StatusConflict
	case errors.Is(err, service.ErrContentPending):
		c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
		return
	}

	if status == http.StatusInternalServerError {
		logger.WithTrace(c.Request.Context(), h.logger).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
