// Package http provides the HTTP adapter for the workflow engine.
// This is a thin layer translating requests to engine calls; actor identity
// arrives as an explicit field on every mutating call, never from ambient
// session state.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/httplouis/TraveLink-sub009/internal/application/port"
	appwf "github.com/httplouis/TraveLink-sub009/internal/application/workflow"
	"github.com/httplouis/TraveLink-sub009/internal/domain/entity"
	domainwf "github.com/httplouis/TraveLink-sub009/internal/domain/workflow"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine   appwf.WorkflowEngine
	roleRepo port.RoleRepository
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(engine appwf.WorkflowEngine, roleRepo port.RoleRepository, logger Logger) *Handlers {
	return &Handlers{
		engine:   engine,
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SubmitRequestBody is the payload for creating a travel request
type SubmitRequestBody struct {
	RequesterID          string  `json:"requester_id" binding:"required"`
	FiledBy              string  `json:"filed_by"`
	DepartmentID         string  `json:"department_id" binding:"required"`
	Destination          string  `json:"destination"`
	Purpose              string  `json:"purpose"`
	IsInternational      bool    `json:"is_international"`
	TotalBudget          float64 `json:"total_budget"`
	RequiresBudgetReview bool    `json:"requires_budget_review"`
	TravelStart          string  `json:"travel_start"`
	TravelEnd            string  `json:"travel_end"`
}

// ActionBody is the payload for acting on a request
type ActionBody struct {
	ActorID        string `json:"actor_id" binding:"required"`
	Action         string `json:"action" binding:"required"`
	Comment        string `json:"comment"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CompleteBody is the payload for the scheduled-completion transition
type CompleteBody struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// GrantRoleBody is the payload for granting a role assignment
type GrantRoleBody struct {
	UserID       string `json:"user_id" binding:"required"`
	Role         string `json:"role" binding:"required"`
	DepartmentID string `json:"department_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":  "healthy",
			"service": "travelink",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// SubmitRequest handles POST /api/v1/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req := &entity.TravelRequest{
		RequesterID:          body.RequesterID,
		FiledBy:              body.FiledBy,
		DepartmentID:         body.DepartmentID,
		Destination:          body.Destination,
		Purpose:              body.Purpose,
		IsInternational:      body.IsInternational,
		TotalBudget:          body.TotalBudget,
		RequiresBudgetReview: body.RequiresBudgetReview,
	}

	if t, err := time.Parse(time.RFC3339, body.TravelStart); err == nil {
		req.TravelStart = t
	}
	if t, err := time.Parse(time.RFC3339, body.TravelEnd); err == nil {
		req.TravelEnd = t
	}

	result, err := h.engine.Submit(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: result})
}

// GetRequest handles GET /api/v1/requests/:code
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.engine.GetRequest(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ActOnRequest handles POST /api/v1/requests/:code/actions
func (h *Handlers) ActOnRequest(c *gin.Context) {
	var body ActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, err := h.engine.GetRequest(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.engine.Act(c.Request.Context(), appwf.ActionRequest{
		RequestID:      req.ID,
		ActorID:        body.ActorID,
		Action:         domainwf.Action(body.Action),
		Comment:        body.Comment,
		IdempotencyKey: body.IdempotencyKey,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// CompleteRequest handles POST /api/v1/requests/:code/complete
func (h *Handlers) CompleteRequest(c *gin.Context) {
	var body CompleteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, err := h.engine.GetRequest(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.engine.Complete(c.Request.Context(), req.ID, body.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// GetHistory handles GET /api/v1/requests/:code/history
func (h *Handlers) GetHistory(c *gin.Context) {
	req, err := h.engine.GetRequest(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	history, err := h.engine.GetHistory(c.Request.Context(), req.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// GetInbox handles GET /api/v1/inbox/:actorId
func (h *Handlers) GetInbox(c *gin.Context) {
	pending, err := h.engine.GetPendingFor(c.Request.Context(), c.Param("actorId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: pending})
}

// GrantRole handles POST /api/v1/roles
func (h *Handlers) GrantRole(c *gin.Context) {
	var body GrantRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	assignment := &entity.RoleAssignment{
		UserID:       body.UserID,
		Role:         entity.Role(body.Role),
		DepartmentID: body.DepartmentID,
	}

	if err := h.roleRepo.Grant(c.Request.Context(), assignment); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: assignment})
}

// RevokeRole handles DELETE /api/v1/roles/:id
func (h *Handlers) RevokeRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid assignment ID"})
		return
	}

	if err := h.roleRepo.Revoke(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// respondError maps engine errors to HTTP status codes. StaleState is a
// retryable conflict; NotAuthorized and InvalidState are permanent
// rejections of the attempted action.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domainwf.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, domainwf.ErrInvalidState), errors.Is(err, domainwf.ErrGuardFailed):
		status = http.StatusConflict
	case errors.Is(err, domainwf.ErrMissingComment):
		status = http.StatusBadRequest
	case errors.Is(err, domainwf.ErrStaleState):
		status = http.StatusConflict
	case errors.Is(err, domainwf.ErrUnknownRequest):
		status = http.StatusNotFound
	case errors.Is(err, domainwf.ErrUnknownActor):
		status = http.StatusBadRequest
	default:
		h.logger.Error("Unhandled engine error", "error", err)
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
