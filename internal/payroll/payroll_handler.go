package payroll

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jdeveloperweb/axonrh-sub004/internal/bootstrap"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/apperror"
	"github.com/jdeveloperweb/axonrh-sub004/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	service Service
	runs    RunService
	rdb     *redis.Client
	audit   bootstrap.AuditLogger
}

func NewHandler(service Service, runs RunService) *Handler {
	return &Handler{service: service, runs: runs}
}

func NewHandlerWithAudit(service Service, runs RunService, rdb *redis.Client, audit bootstrap.AuditLogger) *Handler {
	return &Handler{service: service, runs: runs, rdb: rdb, audit: audit}
}

func getActorID(c *gin.Context) string {
	return c.GetString("user_id")
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// Process calculates (or recalculates) one employee's payroll for a
// competency.
func (h *Handler) Process(c *gin.Context) {
	lockKey, _ := c.Get("idempotency_lock_key")
	cacheKey, _ := c.Get("idempotency_cache_key")

	if h.rdb != nil {
		if lk, ok := lockKey.(string); ok && lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	tenantID := c.GetString("tenant_id")
	actorID := getActorID(c)

	var req ProcessPayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.service.Process(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil {
		if ck, ok := cacheKey.(string); ok && ck != "" {
			if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, 24*time.Hour).Err()
			}
		}
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	ctx := c.Request.Context()
	targetID := c.Param("id")
	tenantID := c.GetString("tenant_id")

	resp, err := h.service.GetByID(ctx, tenantID, targetID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetPayslip(c *gin.Context) {
	ctx := c.Request.Context()
	targetID := c.Param("id")
	tenantID := c.GetString("tenant_id")

	resp, err := h.service.GetPayslip(ctx, tenantID, targetID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListByCompetency(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.GetString("tenant_id")

	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))
	status := c.Query("status")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if pageSize < 1 {
		pageSize = 50
	}

	resp, total, err := h.service.ListByCompetency(ctx, tenantID, month, year, status, pageSize, (page-1)*pageSize)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp, &meta)
}

func (h *Handler) ListByEmployee(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.GetString("tenant_id")
	employeeID := c.Param("employeeId")

	resp, err := h.service.ListByEmployee(ctx, tenantID, employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// ProcessBatch starts a payroll run over the requested employees (or every
// active employee when none are named) and blocks until the run finishes.
func (h *Handler) ProcessBatch(c *gin.Context) {
	lockKey, _ := c.Get("idempotency_lock_key")
	cacheKey, _ := c.Get("idempotency_cache_key")

	if h.rdb != nil {
		if lk, ok := lockKey.(string); ok && lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	tenantID := c.GetString("tenant_id")
	actorID := getActorID(c)

	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.runs.ProcessBatch(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil {
		if ck, ok := cacheKey.(string); ok && ck != "" {
			if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, 24*time.Hour).Err()
			}
		}
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetRun(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.GetString("tenant_id")
	runID := c.Param("id")

	resp, err := h.runs.GetRun(ctx, tenantID, runID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListRuns(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.GetString("tenant_id")

	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 {
		pageSize = 20
	}

	resp, total, err := h.runs.ListRuns(ctx, tenantID, month, year, pageSize, (page-1)*pageSize)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp, &meta)
}

func (h *Handler) CancelRun(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.GetString("tenant_id")
	actorID := getActorID(c)
	runID := c.Param("id")

	resp, err := h.runs.CancelRun(ctx, tenantID, actorID, runID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.audit != nil {
		h.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "payroll_run.cancel",
			ActorID: actorID,
			Message: "payroll run cancelled",
			Meta:    map[string]any{"tenant_id": tenantID, "run_id": runID},
		})
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) CloseCompetency(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := c.GetString("tenant_id")
	actorID := getActorID(c)

	var req CloseCompetencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid input", err.Error())
		return
	}

	resp, err := h.runs.CloseCompetency(ctx, tenantID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.audit != nil {
		h.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "payroll_competency.close",
			ActorID: actorID,
			Message: "competency closed",
			Meta: map[string]any{
				"tenant_id": tenantID,
				"month":     req.ReferenceMonth,
				"year":      req.ReferenceYear,
				"run_id":    resp.ID,
			},
		})
	}

	response.Success(c, http.StatusOK, resp, nil)
}
