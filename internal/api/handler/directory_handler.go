package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

// DirectoryHandler serves schools and school departments.
type DirectoryHandler struct {
	schools     ports.SchoolService
	departments ports.DepartmentService
}

func NewDirectoryHandler(schools ports.SchoolService, departments ports.DepartmentService) *DirectoryHandler {
	return &DirectoryHandler{schools: schools, departments: departments}
}

type schoolRequest struct {
	Name         string `json:"name"         validate:"required,max=100"`
	Address      string `json:"address"      validate:"omitempty,max=200"`
	Province     string `json:"province"     validate:"omitempty,max=50"`
	City         string `json:"city"         validate:"omitempty,max=50"`
	SchoolType   string `json:"schoolType"   validate:"omitempty,oneof=PROJECT_985 PROJECT_211 DOUBLE_FIRST_CLASS REGULAR"`
	ContactPhone string `json:"contactPhone" validate:"omitempty,max=20"`
	Website      string `json:"website"      validate:"omitempty,max=200"`
}

type departmentRequest struct {
	SchoolID     string `json:"schoolId"     validate:"required"`
	Name         string `json:"name"         validate:"required,max=100"`
	ContactPhone string `json:"contactPhone" validate:"omitempty,max=20"`
	Address      string `json:"address"      validate:"omitempty,max=200"`
	Description  string `json:"description"  validate:"omitempty,max=500"`
}

func (r schoolRequest) toInput() ports.SchoolInput {
	return ports.SchoolInput{
		Name:         trimmed(r.Name),
		Address:      r.Address,
		Province:     r.Province,
		City:         r.City,
		SchoolType:   domain.SchoolType(r.SchoolType),
		ContactPhone: r.ContactPhone,
		Website:      r.Website,
	}
}

func (r departmentRequest) toInput() ports.DepartmentInput {
	return ports.DepartmentInput{
		SchoolID:     r.SchoolID,
		Name:         trimmed(r.Name),
		ContactPhone: r.ContactPhone,
		Address:      r.Address,
		Description:  r.Description,
	}
}

// --- Schools ---

// ListSchools handles GET /api/schools.
//
// @Summary      List schools
// @Tags         schools
// @Produce      json
// @Security     BearerAuth
// @Param        keyword     query     string  false  "Name contains"
// @Param        province    query     string  false  "Province"
// @Param        city        query     string  false  "City"
// @Param        schoolType  query     string  false  "School type"
// @Param        page        query     int     false  "1-based page"
// @Param        size        query     int     false  "Page size (max 100)"
// @Success      200         {object}  ports.Page[domain.School]
// @Router       /api/schools [get]
func (h *DirectoryHandler) ListSchools(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, size := pageParams(c)
	result, err := h.schools.List(c.Request().Context(), id, ports.SchoolFilter{
		Search:     trimmed(c.QueryParam("keyword")),
		Province:   c.QueryParam("province"),
		City:       c.QueryParam("city"),
		SchoolType: domain.SchoolType(c.QueryParam("schoolType")),
		Page:       page,
		Limit:      size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetSchool handles GET /api/schools/:id.
//
// @Summary      Get a school
// @Tags         schools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "School ID"
// @Success      200  {object}  domain.School
// @Failure      404  {object}  map[string]string
// @Router       /api/schools/{id} [get]
func (h *DirectoryHandler) GetSchool(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	school, err := h.schools.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, school)
}

// CreateSchool handles POST /api/schools.
//
// @Summary      Create a school
// @Tags         schools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      schoolRequest  true  "School"
// @Success      201   {object}  domain.School
// @Failure      403   {object}  map[string]string
// @Router       /api/schools [post]
func (h *DirectoryHandler) CreateSchool(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req schoolRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	school, err := h.schools.Create(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, school)
}

// UpdateSchool handles PUT /api/schools/:id.
//
// @Summary      Update a school
// @Tags         schools
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "School ID"
// @Param        body  body      schoolRequest  true  "School"
// @Success      200   {object}  domain.School
// @Failure      403   {object}  map[string]string
// @Router       /api/schools/{id} [put]
func (h *DirectoryHandler) UpdateSchool(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req schoolRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	school, err := h.schools.Update(c.Request().Context(), id, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, school)
}

// DeleteSchool handles DELETE /api/schools/:id.
//
// @Summary      Delete a school
// @Tags         schools
// @Security     BearerAuth
// @Param        id  path  string  true  "School ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /api/schools/{id} [delete]
func (h *DirectoryHandler) DeleteSchool(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.schools.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Departments ---

// ListDepartments handles GET /api/departments and
// GET /api/departments/by-school/:schoolId.
//
// @Summary      List school departments
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        schoolId  query     string  false  "School"
// @Param        keyword   query     string  false  "Name contains"
// @Param        page      query     int     false  "1-based page"
// @Param        size      query     int     false  "Page size (max 100)"
// @Success      200       {object}  ports.Page[domain.Department]
// @Router       /api/departments [get]
func (h *DirectoryHandler) ListDepartments(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	schoolID := c.Param("schoolId")
	if schoolID == "" {
		schoolID = c.QueryParam("schoolId")
	}

	page, size := pageParams(c)
	result, err := h.departments.List(c.Request().Context(), id, ports.DepartmentFilter{
		SchoolID: schoolID,
		Search:   trimmed(c.QueryParam("keyword")),
		Page:     page,
		Limit:    size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetDepartment handles GET /api/departments/:id.
//
// @Summary      Get a school department
// @Tags         departments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Department ID"
// @Success      200  {object}  domain.Department
// @Failure      404  {object}  map[string]string
// @Router       /api/departments/{id} [get]
func (h *DirectoryHandler) GetDepartment(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	dept, err := h.departments.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dept)
}

// CreateDepartment handles POST /api/departments.
//
// @Summary      Create a school department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      departmentRequest  true  "Department"
// @Success      201   {object}  domain.Department
// @Failure      403   {object}  map[string]string
// @Router       /api/departments [post]
func (h *DirectoryHandler) CreateDepartment(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req departmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	dept, err := h.departments.Create(c.Request().Context(), id, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dept)
}

// UpdateDepartment handles PUT /api/departments/:id.
//
// @Summary      Update a school department
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Department ID"
// @Param        body  body      departmentRequest  true  "Department"
// @Success      200   {object}  domain.Department
// @Failure      403   {object}  map[string]string
// @Router       /api/departments/{id} [put]
func (h *DirectoryHandler) UpdateDepartment(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req departmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	dept, err := h.departments.Update(c.Request().Context(), id, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dept)
}

// DeleteDepartment handles DELETE /api/departments/:id.
//
// @Summary      Delete a school department
// @Tags         departments
// @Security     BearerAuth
// @Param        id  path  string  true  "Department ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /api/departments/{id} [delete]
func (h *DirectoryHandler) DeleteDepartment(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.departments.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BatchDeleteDepartments handles DELETE /api/departments/batch.
//
// @Summary      Delete several school departments
// @Tags         departments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      idsRequest  true  "Department IDs"
// @Success      200   {object}  deletedResponse
// @Failure      403   {object}  map[string]string
// @Router       /api/departments/batch [delete]
func (h *DirectoryHandler) BatchDeleteDepartments(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req idsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	n, err := h.departments.BatchDelete(c.Request().Context(), id, req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deletedResponse{Deleted: n})
}
