package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

// CustomerHandler handles HTTP requests for customer operations.
type CustomerHandler struct {
	service ports.CustomerService
}

func NewCustomerHandler(service ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// --- Request types ---

type customerRequest struct {
	Name              string `json:"name"              validate:"required,max=50"`
	Position          string `json:"position"          validate:"omitempty,max=50"`
	Title             string `json:"title"             validate:"omitempty,max=50"`
	SchoolID          string `json:"schoolId"`
	DepartmentID      string `json:"departmentId"`
	Phone             string `json:"phone"             validate:"omitempty,max=20"`
	Wechat            string `json:"wechat"            validate:"omitempty,max=50"`
	Email             string `json:"email"             validate:"omitempty,email,max=100"`
	OfficeLocation    string `json:"officeLocation"    validate:"omitempty,max=200"`
	ResearchDirection string `json:"researchDirection" validate:"omitempty,max=500"`
	InfluenceLevel    string `json:"influenceLevel"    validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	DecisionPower     string `json:"decisionPower"     validate:"omitempty,oneof=DECISION_MAKER INFLUENCER USER OTHER"`
	Status            string `json:"status"            validate:"omitempty,oneof=ACTIVE INACTIVE"`
	Notes             string `json:"notes"`
	OwnerID           string `json:"ownerId"`
}

type transferRequest struct {
	OwnerID string `json:"ownerId" validate:"required"`
}

func (r customerRequest) toInput() ports.CustomerInput {
	return ports.CustomerInput{
		Name:              trimmed(r.Name),
		Position:          r.Position,
		Title:             r.Title,
		SchoolID:          r.SchoolID,
		DepartmentID:      r.DepartmentID,
		Phone:             r.Phone,
		Wechat:            r.Wechat,
		Email:             r.Email,
		OfficeLocation:    r.OfficeLocation,
		ResearchDirection: r.ResearchDirection,
		InfluenceLevel:    domain.InfluenceLevel(r.InfluenceLevel),
		DecisionPower:     domain.DecisionPower(r.DecisionPower),
		Status:            domain.CustomerStatus(r.Status),
		Notes:             r.Notes,
		OwnerID:           r.OwnerID,
	}
}

// List handles GET /api/customers.
//
// @Summary      List customers visible to the caller
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        keyword         query     string  false  "Name or phone contains"
// @Param        schoolId        query     string  false  "School"
// @Param        departmentId    query     string  false  "School department"
// @Param        influenceLevel  query     string  false  "HIGH, MEDIUM or LOW"
// @Param        page            query     int     false  "1-based page"
// @Param        size            query     int     false  "Page size (max 100)"
// @Success      200             {object}  ports.Page[domain.Customer]
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, size := pageParams(c)
	result, err := h.service.List(c.Request().Context(), id, ports.CustomerFilter{
		Search:         trimmed(c.QueryParam("keyword")),
		SchoolID:       c.QueryParam("schoolId"),
		DepartmentID:   c.QueryParam("departmentId"),
		InfluenceLevel: domain.InfluenceLevel(c.QueryParam("influenceLevel")),
		Page:           page,
		Limit:          size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Get handles GET /api/customers/:id.
//
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  domain.Customer
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	customer, err := h.service.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Create handles POST /api/customers.
//
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      customerRequest  true  "Customer"
// @Success      201   {object}  domain.Customer
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req customerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.Create(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customer)
}

// Update handles PUT /api/customers/:id.
//
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Customer ID"
// @Param        body  body      customerRequest  true  "Customer"
// @Success      200   {object}  domain.Customer
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req customerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.Update(c.Request().Context(), id, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Delete handles DELETE /api/customers/:id.
//
// @Summary      Delete a customer
// @Tags         customers
// @Security     BearerAuth
// @Param        id  path  string  true  "Customer ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BatchDelete handles DELETE /api/customers/batch.
//
// @Summary      Delete several customers
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      idsRequest  true  "Customer IDs"
// @Success      200   {object}  deletedResponse
// @Failure      403   {object}  map[string]string
// @Router       /api/customers/batch [delete]
func (h *CustomerHandler) BatchDelete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req idsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	n, err := h.service.BatchDelete(c.Request().Context(), id, req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}

// Transfer handles POST /api/customers/:id/transfer.
//
// @Summary      Reassign a customer to another sales user
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Customer ID"
// @Param        body  body      transferRequest  true  "New owner"
// @Success      200   {object}  domain.Customer
// @Failure      403   {object}  map[string]string
// @Router       /api/customers/{id}/transfer [post]
func (h *CustomerHandler) Transfer(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req transferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customer, err := h.service.Transfer(c.Request().Context(), id, c.Param("id"), req.OwnerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Merge handles POST /api/customers/:id/merge/:targetId.
//
// @Summary      Merge a customer into another
// @Description  Moves the source customer's visit records to the target and deletes the source.
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string  true  "Source customer ID"
// @Param        targetId  path      string  true  "Target customer ID"
// @Success      200       {object}  domain.Customer
// @Failure      400       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /api/customers/{id}/merge/{targetId} [post]
func (h *CustomerHandler) Merge(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	customer, err := h.service.Merge(c.Request().Context(), id, c.Param("id"), c.Param("targetId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}
