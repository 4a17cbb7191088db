package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

const dateLayout = "2006-01-02"

// VisitHandler handles HTTP requests for visit records.
type VisitHandler struct {
	service ports.VisitService
}

func NewVisitHandler(service ports.VisitService) *VisitHandler {
	return &VisitHandler{service: service}
}

type visitRequest struct {
	CustomerID      string `json:"customerId"      validate:"required"`
	SalesID         string `json:"salesId"`
	VisitDate       string `json:"visitDate"       validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"gte=0"`
	VisitType       string `json:"visitType"       validate:"omitempty,oneof=FACE_TO_FACE PHONE_CALL VIDEO_CALL EMAIL WECHAT OTHER"`
	Status          string `json:"status"          validate:"omitempty,oneof=SCHEDULED IN_PROGRESS COMPLETED CANCELLED POSTPONED NO_SHOW"`
	IntentLevel     string `json:"intentLevel"     validate:"omitempty,oneof=VERY_HIGH HIGH MEDIUM LOW VERY_LOW NO_INTENT"`
	Location        string `json:"location"        validate:"omitempty,max=200"`
	BusinessItems   string `json:"businessItems"`
	PainPoints      string `json:"painPoints"`
	Competitors     string `json:"competitors"`
	NextStep        string `json:"nextStep"`
	FollowUpDate    string `json:"followUpDate"`
	Notes           string `json:"notes"`
	Rating          int    `json:"rating"          validate:"gte=0,lte=5"`
}

func (r visitRequest) toInput() (ports.VisitInput, error) {
	visitDate, err := parseDate("visitDate", r.VisitDate)
	if err != nil {
		return ports.VisitInput{}, err
	}
	in := ports.VisitInput{
		CustomerID:      r.CustomerID,
		SalesID:         r.SalesID,
		VisitDate:       visitDate,
		DurationMinutes: r.DurationMinutes,
		VisitType:       domain.VisitType(r.VisitType),
		Status:          domain.VisitStatus(r.Status),
		IntentLevel:     domain.IntentLevel(r.IntentLevel),
		Location:        r.Location,
		BusinessItems:   r.BusinessItems,
		PainPoints:      r.PainPoints,
		Competitors:     r.Competitors,
		NextStep:        r.NextStep,
		Notes:           r.Notes,
		Rating:          r.Rating,
	}
	if r.FollowUpDate != "" {
		followUp, err := parseDate("followUpDate", r.FollowUpDate)
		if err != nil {
			return ports.VisitInput{}, err
		}
		in.FollowUpDate = &followUp
	}
	return in, nil
}

// parseDate accepts a plain calendar date or a full RFC 3339 timestamp.
func parseDate(field, s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, field+" must be YYYY-MM-DD or RFC 3339")
	}
	return t.UTC(), nil
}

// List handles GET /api/visit-records.
//
// @Summary      List visit records visible to the caller
// @Tags         visits
// @Produce      json
// @Security     BearerAuth
// @Param        customerId  query     string  false  "Customer"
// @Param        status      query     string  false  "Visit status"
// @Param        startDate   query     string  false  "Earliest visit date (YYYY-MM-DD)"
// @Param        endDate     query     string  false  "Latest visit date (YYYY-MM-DD)"
// @Param        page        query     int     false  "1-based page"
// @Param        size        query     int     false  "Page size (max 100)"
// @Success      200         {object}  ports.Page[domain.VisitRecord]
// @Router       /api/visit-records [get]
func (h *VisitHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, size := pageParams(c)
	filter := ports.VisitFilter{
		CustomerID: c.QueryParam("customerId"),
		Status:     domain.VisitStatus(c.QueryParam("status")),
		Page:       page,
		Limit:      size,
	}
	if s := c.QueryParam("startDate"); s != "" {
		if filter.DateFrom, err = parseDate("startDate", s); err != nil {
			return err
		}
	}
	if s := c.QueryParam("endDate"); s != "" {
		if filter.DateTo, err = parseDate("endDate", s); err != nil {
			return err
		}
	}

	result, err := h.service.List(c.Request().Context(), id, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Get handles GET /api/visit-records/:id.
//
// @Summary      Get a visit record
// @Tags         visits
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Visit record ID"
// @Success      200  {object}  domain.VisitRecord
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/visit-records/{id} [get]
func (h *VisitHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	visit, err := h.service.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, visit)
}

// Create handles POST /api/visit-records.
//
// @Summary      Record a visit
// @Tags         visits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      visitRequest  true  "Visit record"
// @Success      201   {object}  domain.VisitRecord
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/visit-records [post]
func (h *VisitHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req visitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	visit, err := h.service.Create(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, visit)
}

// Update handles PUT /api/visit-records/:id.
//
// @Summary      Update a visit record
// @Tags         visits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string        true  "Visit record ID"
// @Param        body  body      visitRequest  true  "Visit record"
// @Success      200   {object}  domain.VisitRecord
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/visit-records/{id} [put]
func (h *VisitHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req visitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	visit, err := h.service.Update(c.Request().Context(), id, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, visit)
}

// Delete handles DELETE /api/visit-records/:id.
//
// @Summary      Delete a visit record
// @Tags         visits
// @Security     BearerAuth
// @Param        id  path  string  true  "Visit record ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/visit-records/{id} [delete]
func (h *VisitHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BatchDelete handles DELETE /api/visit-records/batch.
//
// @Summary      Delete several visit records
// @Tags         visits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      idsRequest  true  "Visit record IDs"
// @Success      200   {object}  deletedResponse
// @Failure      403   {object}  map[string]string
// @Router       /api/visit-records/batch [delete]
func (h *VisitHandler) BatchDelete(c echo.Context) error {
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
