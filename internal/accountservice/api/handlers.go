// Package api exposes the Account service's HTTP surface: accounts,
// movements, and reports (§6), grounded on
// internal/api/handlers closure-over-dependencies idiom.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fandangolas/core-banking-platform/internal/accountservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/accountservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
	"github.com/fandangolas/core-banking-platform/internal/platform/tracing"
)

type Handlers struct {
	lifecycle *service.Lifecycle
	posting   *service.PostingEngine
	reports   *service.StatementEngine
	log       *logging.Logger
}

func NewHandlers(lifecycle *service.Lifecycle, posting *service.PostingEngine, reports *service.StatementEngine, log *logging.Logger) *Handlers {
	return &Handlers{lifecycle: lifecycle, posting: posting, reports: reports, log: log}
}

// --- Accounts ---

type createAccountRequest struct {
	CustomerID     string `json:"customerId"`
	AccountType    string `json:"accountType"`
	InitialBalance int64  `json:"initialBalance"`
}

func (h *Handlers) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	account, err := h.lifecycle.Create(c.Request.Context(), domain.CreateCommand{
		CustomerID:     req.CustomerID,
		AccountType:    domain.AccountType(req.AccountType),
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.Header("Location", "/api/v1/accounts/"+strconv.FormatInt(account.AccountNumber, 10))
	c.JSON(http.StatusCreated, toAccountResponse(account))
}

func (h *Handlers) GetAccount(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	account, err := h.lifecycle.Get(c.Request.Context(), accountNumber)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(account))
}

func (h *Handlers) ListAccounts(c *gin.Context) {
	filter := service.AccountListFilter{
		CustomerID:  c.Query("customerId"),
		AccountType: domain.AccountType(c.Query("accountType")),
		Page:        atoiOr(c.Query("page"), 0),
		Size:        atoiOr(c.Query("size"), 20),
	}
	if raw := c.Query("state"); raw != "" {
		active := raw == "ACTIVE"
		filter.Active = &active
	}

	accounts, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResponse(&accounts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "page": filter.Page, "size": filter.Size})
}

type patchAccountStateRequest struct {
	AccountType     string `json:"accountType"`
	Active          bool   `json:"active"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

func (h *Handlers) PatchAccountState(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	var req patchAccountStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	account, err := h.lifecycle.Update(c.Request.Context(), domain.UpdateCommand{
		AccountNumber:   accountNumber,
		ExpectedVersion: req.ExpectedVersion,
		AccountType:     domain.AccountType(req.AccountType),
		Active:          req.Active,
	})
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(account))
}

func (h *Handlers) DeleteAccount(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	version := int64(atoiOr(c.Query("expectedVersion"), -1))
	if err := h.lifecycle.Delete(c.Request.Context(), accountNumber, version); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) GetBalance(c *gin.Context) {
	accountNumber, ok := parseAccountNumber(c)
	if !ok {
		return
	}
	account, err := h.lifecycle.Balance(c.Request.Context(), accountNumber)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accountNumber":  account.AccountNumber,
		"currentBalance": account.CurrentBalance,
		"version":        account.Version,
	})
}

// --- Movements ---

type postMovementRequest struct {
	AccountNumber      int64   `json:"accountNumber"`
	MovementType       string  `json:"movementType"`
	Amount             int64   `json:"amount"`
	TransactionID      string  `json:"transactionId"`
	IdempotencyKey     *string `json:"idempotencyKey"`
	ReversedMovementID *string `json:"reversedMovementId"`
}

func (h *Handlers) PostMovement(c *gin.Context) {
	var req postMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	movement, err := h.posting.Post(c.Request.Context(), domain.PostCommand{
		AccountNumber:      req.AccountNumber,
		MovementType:       domain.MovementType(req.MovementType),
		Amount:             req.Amount,
		TransactionID:      req.TransactionID,
		IdempotencyKey:     req.IdempotencyKey,
		ReversedMovementID: req.ReversedMovementID,
		RequestID:          tracing.RequestID(c),
		CorrelationID:      tracing.CorrelationID(c),
	})
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.Header("Location", "/api/v1/movements/"+movement.MovementID)
	c.JSON(http.StatusCreated, toMovementResponse(movement))
}

type reverseMovementRequest struct {
	TransactionID  string  `json:"transactionId"`
	IdempotencyKey *string `json:"idempotencyKey"`
}

// ReverseMovement backs POST /movements/{id}/reverse: it looks up the
// original movement to learn its account number, then posts a REVERSAL
// through the same posting engine pipeline.
func (h *Handlers) ReverseMovement(c *gin.Context) {
	movementID := c.Param("id")
	original, err := h.posting.Get(c.Request.Context(), movementID)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	var req reverseMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	reversal, err := h.posting.Post(c.Request.Context(), domain.PostCommand{
		AccountNumber:      original.AccountNumber,
		MovementType:       domain.MovementReversal,
		Amount:             original.Amount,
		TransactionID:      req.TransactionID,
		IdempotencyKey:     req.IdempotencyKey,
		ReversedMovementID: &movementID,
		RequestID:          tracing.RequestID(c),
		CorrelationID:      tracing.CorrelationID(c),
	})
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.Header("Location", "/api/v1/movements/"+reversal.MovementID)
	c.JSON(http.StatusCreated, toMovementResponse(reversal))
}

func (h *Handlers) GetMovement(c *gin.Context) {
	movement, err := h.posting.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toMovementResponse(movement))
}

func (h *Handlers) ListMovements(c *gin.Context) {
	accountNumber, err := strconv.ParseInt(c.Query("accountNumber"), 10, 64)
	if err != nil {
		apierror.Respond(c, h.log, apierror.ValidationFields([]apierror.FieldViolation{
			{Field: "accountNumber", Message: "is required and must be a valid account number"},
		}))
		return
	}

	filter := domain.ListFilter{
		AccountNumber: accountNumber,
		MovementType:  domain.MovementType(c.Query("movementType")),
		Page:          atoiOr(c.Query("page"), 0),
		Size:          atoiOr(c.Query("size"), 20),
	}
	if start, ok := parseDate(c.Query("startDate")); ok {
		filter.StartDate = &start
	}
	if end, ok := parseDate(c.Query("endDate")); ok {
		filter.EndDate = &end
	}

	movements, err := h.posting.List(c.Request.Context(), filter)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	out := make([]movementResponse, 0, len(movements))
	for i := range movements {
		out = append(out, toMovementResponse(&movements[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "page": filter.Page, "size": filter.Size})
}

// --- Reports ---

func (h *Handlers) AccountStatement(c *gin.Context) {
	customerID := c.Param("customerId")
	start, ok1 := parseDate(c.Query("startDate"))
	end, ok2 := parseDate(c.Query("endDate"))
	if !ok1 || !ok2 {
		apierror.Respond(c, h.log, apierror.Validation("startDate and endDate are required (YYYY-MM-DD)"))
		return
	}

	statement, err := h.reports.AccountStatement(c.Request.Context(), customerID, start, end)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

func (h *Handlers) MovementsSummary(c *gin.Context) {
	filter := service.SummaryFilter{}
	if raw := c.Query("accountNumber"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.AccountNumber = &n
		}
	}
	if raw := c.Query("customerId"); raw != "" {
		filter.CustomerID = &raw
	}
	if start, ok := parseDate(c.Query("startDate")); ok {
		filter.StartDate = &start
	}
	if end, ok := parseDate(c.Query("endDate")); ok {
		filter.EndDate = &end
	}

	summary, err := h.reports.MovementsSummary(c.Request.Context(), filter)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// --- shared helpers/DTOs ---

type accountResponse struct {
	AccountNumber       int64  `json:"accountNumber"`
	CustomerID          string `json:"customerId"`
	CustomerDisplayName string `json:"customerDisplayName"`
	AccountType         string `json:"accountType"`
	InitialBalance      int64  `json:"initialBalance"`
	CurrentBalance      int64  `json:"currentBalance"`
	Active              bool   `json:"active"`
	Version             int64  `json:"version"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		AccountNumber:       a.AccountNumber,
		CustomerID:          a.CustomerID,
		CustomerDisplayName: a.CustomerDisplayName,
		AccountType:         string(a.AccountType),
		InitialBalance:      a.InitialBalance,
		CurrentBalance:      a.CurrentBalance,
		Active:              a.Active,
		Version:             a.Version,
	}
}

type movementResponse struct {
	MovementID         string  `json:"movementId"`
	AccountNumber      int64   `json:"accountNumber"`
	MovementType       string  `json:"movementType"`
	Amount             int64   `json:"amount"`
	BalanceBefore      int64   `json:"balanceBefore"`
	BalanceAfter       int64   `json:"balanceAfter"`
	TransactionID      string  `json:"transactionId"`
	IdempotencyKey     *string `json:"idempotencyKey,omitempty"`
	ReversedMovementID *string `json:"reversedMovementId,omitempty"`
	Reversed           bool    `json:"reversed"`
}

func toMovementResponse(m *domain.Movement) movementResponse {
	return movementResponse{
		MovementID:         m.MovementID,
		AccountNumber:      m.AccountNumber,
		MovementType:       string(m.MovementType),
		Amount:             m.Amount,
		BalanceBefore:      m.BalanceBefore,
		BalanceAfter:       m.BalanceAfter,
		TransactionID:      m.TransactionID,
		IdempotencyKey:     m.IdempotencyKey,
		ReversedMovementID: m.ReversedMovementID,
		Reversed:           m.Reversed,
	}
}

func parseAccountNumber(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("n"), 10, 64)
	if err != nil {
		apierror.Respond(c, nil, apierror.Validation("invalid account number"))
		return 0, false
	}
	return n, true
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func atoiOr(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
