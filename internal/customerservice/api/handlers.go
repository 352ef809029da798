// Package api exposes the Customer service's HTTP surface, grounded on the
// teacher's internal/api/handlers closure-over-dependencies idiom
// (MakeXHandler(deps) gin.HandlerFunc) generalized from accounts to
// customers and routed through the shared apierror/tracing/logging stack.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fandangolas/core-banking-platform/internal/customerservice/domain"
	"github.com/fandangolas/core-banking-platform/internal/customerservice/service"
	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
	"github.com/fandangolas/core-banking-platform/internal/platform/logging"
)

type Handlers struct {
	lifecycle *service.Lifecycle
	log       *logging.Logger
}

func NewHandlers(lifecycle *service.Lifecycle, log *logging.Logger) *Handlers {
	return &Handlers{lifecycle: lifecycle, log: log}
}

type personRequest struct {
	DisplayName        string `json:"displayName"`
	NationalIdentifier string `json:"nationalIdentifier"`
	BirthDate          string `json:"birthDate"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
}

func (p personRequest) toDomain() domain.Person {
	return domain.Person{
		DisplayName:        p.DisplayName,
		NationalIdentifier:  p.NationalIdentifier,
		BirthDate:           p.BirthDate,
		Address:             p.Address,
		Phone:               p.Phone,
		Email:               p.Email,
	}
}

type createRequest struct {
	Person   personRequest `json:"person"`
	Password string        `json:"password"`
}

func (h *Handlers) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	customer, err := h.lifecycle.Create(c.Request.Context(), domain.CreateCommand{
		Person:        req.Person.toDomain(),
		PlainPassword: req.Password,
	})
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	c.Header("Location", "/api/v1/customers/"+customer.CustomerID)
	c.JSON(http.StatusCreated, toResponse(customer))
}

func (h *Handlers) Get(c *gin.Context) {
	customer, err := h.lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(customer))
}

func (h *Handlers) List(c *gin.Context) {
	filter := service.ListFilter{
		Page: atoiOr(c.Query("page"), 0),
		Size: atoiOr(c.Query("size"), 20),
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	customers, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	out := make([]customerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, toResponse(&customers[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "page": filter.Page, "size": filter.Size})
}

type updateRequest struct {
	Person          personRequest `json:"person"`
	ExpectedVersion int64         `json:"expectedVersion"`
}

func (h *Handlers) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	customer, err := h.lifecycle.Update(c.Request.Context(), domain.UpdateCommand{
		CustomerID:      c.Param("id"),
		ExpectedVersion: req.ExpectedVersion,
		Person:          req.Person.toDomain(),
	})
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(customer))
}

type patchStateRequest struct {
	Active          bool  `json:"active"`
	ExpectedVersion int64 `json:"expectedVersion"`
}

func (h *Handlers) PatchState(c *gin.Context) {
	var req patchStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	customer, err := h.lifecycle.PatchState(c.Request.Context(), domain.PatchStateCommand{
		CustomerID:      c.Param("id"),
		ExpectedVersion: req.ExpectedVersion,
		Active:          req.Active,
	})
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(customer))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ExpectedVersion int64  `json:"expectedVersion"`
}

func (h *Handlers) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierror.Respond(c, h.log, apierror.Validation("invalid request body"))
		return
	}

	customer, err := h.lifecycle.ChangePassword(c.Request.Context(), c.Param("id"), req.ExpectedVersion,
		req.CurrentPassword, req.NewPassword)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(customer))
}

func (h *Handlers) Delete(c *gin.Context) {
	version := atoiOr(c.Query("expectedVersion"), -1)
	if err := h.lifecycle.Delete(c.Request.Context(), c.Param("id"), int64(version)); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Validate backs the resilient peer client's `exists(customerId)` call
// (§4.3): 200 if active, 400 if inactive, 404 if missing.
func (h *Handlers) Validate(c *gin.Context) {
	customer, err := h.lifecycle.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(customer))
}

type customerResponse struct {
	CustomerID         string `json:"customerId"`
	DisplayName        string `json:"displayName"`
	NationalIdentifier string `json:"nationalIdentifier"`
	BirthDate          string `json:"birthDate"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Active             bool   `json:"active"`
	Version            int64  `json:"version"`
}

func toResponse(c *domain.Customer) customerResponse {
	return customerResponse{
		CustomerID:         c.CustomerID,
		DisplayName:        c.Person.DisplayName,
		NationalIdentifier: c.Person.NationalIdentifier,
		BirthDate:          c.Person.BirthDate,
		Address:            c.Person.Address,
		Phone:              c.Person.Phone,
		Email:              c.Person.Email,
		Active:             c.Active,
		Version:            c.Version,
	}
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
