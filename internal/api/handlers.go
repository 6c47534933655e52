package api

import (
	"errors"
	"net/http"
	"strings"

	"txn-store/internal/domain"
	"txn-store/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// IdempotencyKeyHeader may carry the key instead of the request body.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader is "true" when create returned an existing record.
	IdempotentReplayHeader = "Idempotent-Replayed"
)

type handler struct {
	svc service.TransactionService
}

type createTransactionRequest struct {
	IdempotencyKey string   `json:"idempotency_key"`
	Amount         *float64 `json:"amount"`
	Currency       string   `json:"currency"`
	Description    string   `json:"description"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func (h *handler) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}
	if req.Amount == nil {
		writeError(c, http.StatusBadRequest, "amount is required")
		return
	}

	txn, created, err := h.svc.Create(c.Request.Context(), domain.CreateParams{
		IdempotencyKey: req.IdempotencyKey,
		Amount:         *req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	if created {
		c.Header(IdempotentReplayHeader, "false")
		c.JSON(http.StatusCreated, dataResponse{Data: txn})
		return
	}
	c.Header(IdempotentReplayHeader, "true")
	c.JSON(http.StatusOK, dataResponse{Data: txn})
}

func (h *handler) getTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	txn, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: txn})
}

func (h *handler) listTransactions(c *gin.Context) {
	var filter domain.ListFilter
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		filter.Status = &status
	}
	filter.Currency = c.Query("currency")

	txns, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: txns})
}

func (h *handler) updateTransactionStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	txn, err := h.svc.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dataResponse{Data: txn})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid transaction id")
		return uuid.Nil, false
	}
	return id, true
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    status,
			"message": message,
		},
	})
}
