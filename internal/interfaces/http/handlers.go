package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agencyops/worker-lifecycle/internal/application/port"
	"github.com/agencyops/worker-lifecycle/internal/application/service"
	"github.com/agencyops/worker-lifecycle/internal/domain/entity"
	"github.com/agencyops/worker-lifecycle/internal/domain/lifecycle"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workerService service.WorkerService
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(workerService service.WorkerService, logger Logger) *Handlers {
	return &Handlers{
		workerService: workerService,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateWorkerRequest represents the worker registration payload
type CreateWorkerRequest struct {
	PassportNumber string `json:"passport_number" binding:"required"`
	FullName       string `json:"full_name" binding:"required"`
	Nationality    string `json:"nationality" binding:"required"`
	CreatedBy      string `json:"created_by" binding:"required"`
}

// ChangeStateRequest represents a transition attempt payload
type ChangeStateRequest struct {
	TargetState     string  `json:"target_state" binding:"required"`
	Reason          string  `json:"reason"`
	RelatedEntityID *string `json:"related_entity_id"`
	ChangedBy       string  `json:"changed_by" binding:"required"`
}

// HireRequest represents the Booked -> Hired deployment payload
type HireRequest struct {
	ContractID *string `json:"contract_id"`
	ChangedBy  string  `json:"changed_by" binding:"required"`
}

// ListWorkersRequest represents query parameters for listing workers
type ListWorkersRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// WorkerResponse represents a worker in API responses
type WorkerResponse struct {
	ID             string `json:"id"`
	PassportNumber string `json:"passport_number"`
	FullName       string `json:"full_name"`
	Nationality    string `json:"nationality"`
	CurrentState   string `json:"current_state"`
	CreatedBy      string `json:"created_by"`
	CreatedAt      string `json:"created_at"`
	UpdatedBy      string `json:"updated_by,omitempty"`
	UpdatedAt      string `json:"updated_at"`
}

// HistoryEntryResponse represents a single audit trail entry
type HistoryEntryResponse struct {
	ID              int64   `json:"id"`
	FromState       string  `json:"from_state,omitempty"`
	ToState         string  `json:"to_state"`
	Reason          string  `json:"reason"`
	RelatedEntityID *string `json:"related_entity_id,omitempty"`
	ChangedBy       string  `json:"changed_by"`
	OccurredAt      string  `json:"occurred_at"`
}

// HistoryResponse wraps the audit trail with the total count
type HistoryResponse struct {
	WorkerID string                 `json:"worker_id"`
	Total    int64                  `json:"total"`
	Entries  []HistoryEntryResponse `json:"entries"`
}

// TargetStatesResponse lists reachable states for a worker
type TargetStatesResponse struct {
	WorkerID     string   `json:"worker_id"`
	CurrentState string   `json:"current_state"`
	TargetStates []string `json:"target_states"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateWorker handles POST /api/workers
func (h *Handlers) CreateWorker(c *gin.Context) {
	var req CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	worker, err := h.workerService.Create(c.Request.Context(), service.CreateWorkerRequest{
		PassportNumber: req.PassportNumber,
		FullName:       req.FullName,
		Nationality:    req.Nationality,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicatePassport) {
			c.JSON(http.StatusConflict, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		h.logger.Error("Failed to create worker", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to create worker",
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    toWorkerResponse(worker),
	})
}

// ListWorkers handles GET /api/workers
func (h *Handlers) ListWorkers(c *gin.Context) {
	var req ListWorkersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	workers, err := h.workerService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list workers", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve workers",
		})
		return
	}

	responses := make([]WorkerResponse, 0, len(workers))
	for _, worker := range workers {
		responses = append(responses, toWorkerResponse(worker))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    responses,
	})
}

// GetWorker handles GET /api/workers/:id
func (h *Handlers) GetWorker(c *gin.Context) {
	id, ok := h.workerID(c)
	if !ok {
		return
	}

	worker, err := h.workerService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toWorkerResponse(worker),
	})
}

// ChangeState handles POST /api/workers/:id/transitions
func (h *Handlers) ChangeState(c *gin.Context) {
	id, ok := h.workerID(c)
	if !ok {
		return
	}

	var req ChangeStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	target, err := lifecycle.ParseState(req.TargetState)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	relatedID, err := parseOptionalUUID(req.RelatedEntityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid related_entity_id",
		})
		return
	}

	worker, err := h.workerService.ChangeState(c.Request.Context(), id, service.ChangeStateRequest{
		TargetState:     target,
		Reason:          req.Reason,
		RelatedEntityID: relatedID,
		ChangedBy:       req.ChangedBy,
	})
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toWorkerResponse(worker),
	})
}

// HireWorker handles POST /api/workers/:id/hire
func (h *Handlers) HireWorker(c *gin.Context) {
	id, ok := h.workerID(c)
	if !ok {
		return
	}

	var req HireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}

	contractID, err := parseOptionalUUID(req.ContractID)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid contract_id",
		})
		return
	}

	worker, err := h.workerService.Hire(c.Request.Context(), id, service.HireRequest{
		ContractID: contractID,
		ChangedBy:  req.ChangedBy,
	})
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toWorkerResponse(worker),
	})
}

// ValidTargetStates handles GET /api/workers/:id/transitions/targets
func (h *Handlers) ValidTargetStates(c *gin.Context) {
	id, ok := h.workerID(c)
	if !ok {
		return
	}

	worker, err := h.workerService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	targets, err := h.workerService.ValidTargetStates(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	states := make([]string, 0, len(targets))
	for _, target := range targets {
		states = append(states, target.String())
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: TargetStatesResponse{
			WorkerID:     id.String(),
			CurrentState: worker.CurrentState.String(),
			TargetStates: states,
		},
	})
}

// StateHistory handles GET /api/workers/:id/history
func (h *Handlers) StateHistory(c *gin.Context) {
	id, ok := h.workerID(c)
	if !ok {
		return
	}

	var req ListWorkersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	records, total, err := h.workerService.StateHistory(c.Request.Context(), id, req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, id, err)
		return
	}

	entries := make([]HistoryEntryResponse, 0, len(records))
	for _, record := range records {
		entries = append(entries, toHistoryEntryResponse(record))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HistoryResponse{
			WorkerID: id.String(),
			Total:    total,
			Entries:  entries,
		},
	})
}

// workerID parses the :id path parameter, writing a 400 on failure
func (h *Handlers) workerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid worker ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service and domain errors to HTTP statuses. Transition
// rejections keep their failure code in the response body so clients can
// branch without parsing messages.
func (h *Handlers) respondError(c *gin.Context, workerID uuid.UUID, err error) {
	var terr *lifecycle.TransitionError
	if errors.As(err, &terr) {
		status := http.StatusConflict
		if terr.Code == lifecycle.CodePreconditionFailed || terr.Code == lifecycle.CodePreconditionsNotMet {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, Response{
			Success: false,
			Error:   terr.Message,
			Code:    terr.Code,
		})
		return
	}

	switch {
	case errors.Is(err, port.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "worker not found",
		})
	case errors.Is(err, port.ErrStaleState):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Error:   "worker state changed concurrently, retry the request",
		})
	default:
		h.logger.Error("Request failed", "worker_id", workerID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal server error",
		})
	}
}

func toWorkerResponse(worker *entity.Worker) WorkerResponse {
	return WorkerResponse{
		ID:             worker.ID.String(),
		PassportNumber: worker.PassportNumber,
		FullName:       worker.FullName,
		Nationality:    worker.Nationality,
		CurrentState:   worker.CurrentState.String(),
		CreatedBy:      worker.CreatedBy,
		CreatedAt:      worker.CreatedAt.Format(time.RFC3339),
		UpdatedBy:      worker.UpdatedBy,
		UpdatedAt:      worker.UpdatedAt.Format(time.RFC3339),
	}
}

func toHistoryEntryResponse(record *entity.WorkerStateHistory) HistoryEntryResponse {
	entry := HistoryEntryResponse{
		ID:         record.ID,
		FromState:  record.FromState.String(),
		ToState:    record.ToState.String(),
		Reason:     record.Reason,
		ChangedBy:  record.ChangedBy,
		OccurredAt: record.OccurredAt.Format(time.RFC3339),
	}
	if record.RelatedEntityID != nil {
		id := record.RelatedEntityID.String()
		entry.RelatedEntityID = &id
	}
	return entry
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
