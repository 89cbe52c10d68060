package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"trainingportal/internal/delivery/http/helpers"
	"trainingportal/internal/domain"
)

// CreateProgramRequest is the request body for POST /programs.
// TrainerID is only honoured for admins; trainers always own the programs they create.
type CreateProgramRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TrainerID   string    `json:"trainer_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Capacity    int       `json:"capacity"`
	Status      string    `json:"status"`
}

// Validate implements Validator.
func (c CreateProgramRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.StartDate.IsZero() {
		errs = append(errs, "start_date is required")
	}
	if c.EndDate.IsZero() {
		errs = append(errs, "end_date is required")
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		errs = append(errs, "end_date must not be before start_date")
	}
	if c.Capacity < 0 {
		errs = append(errs, "capacity must not be negative")
	}
	if c.Status != "" && !domain.ValidProgramStatus(c.Status) {
		errs = append(errs, "status must be draft, published or archived")
	}
	return errs
}

// UpdateProgramRequest is the request body for PATCH /programs/{programID}. All fields are optional.
type UpdateProgramRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Capacity    *int       `json:"capacity"`
	Status      *string    `json:"status"`
}

// Validate implements Validator.
func (u UpdateProgramRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title cannot be empty")
	}
	if u.Capacity != nil && *u.Capacity < 0 {
		errs = append(errs, "capacity must not be negative")
	}
	if u.Status != nil && !domain.ValidProgramStatus(*u.Status) {
		errs = append(errs, "status must be draft, published or archived")
	}
	return errs
}

// ProgramSuccessResponse is the success envelope of endpoints returning a single program.
type ProgramSuccessResponse struct {
	Data  *domain.Program   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ProgramListSuccessResponse is the success envelope for GET /programs (200).
type ProgramListSuccessResponse struct {
	Data  helpers.PaginatedData[*domain.Program] `json:"data"`
	Error *helpers.APIError                      `json:"error"`
}

// EnrollmentSuccessResponse is the success envelope for POST /programs/{programID}/enrollments (201).
type EnrollmentSuccessResponse struct {
	Data  *domain.Enrollment `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// EnrollmentListSuccessResponse is the success envelope for GET /programs/{programID}/enrollments (200).
type EnrollmentListSuccessResponse struct {
	Data  []*domain.Enrollment `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// MyEnrollmentsSuccessResponse is the success envelope for GET /users/me/enrollments (200).
type MyEnrollmentsSuccessResponse struct {
	Data  []*domain.EnrollmentWithProgram `json:"data"`
	Error *helpers.APIError               `json:"error"`
}

// ProgramController handles training programs and their enrollments.
type ProgramController struct {
	Logger  *slog.Logger
	Service domain.ProgramService
}

// NewProgramController creates a ProgramController with the given logger and service.
func NewProgramController(logger *slog.Logger, svc domain.ProgramService) *ProgramController {
	return &ProgramController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateProgram godoc
// @Summary Create a program
// @Description Admin or trainer. Trainers own the programs they create. Status defaults to draft.
// @Tags programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateProgramRequest true "Program"
// @Success 201 {object} controllers.ProgramSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs [post]
func (c *ProgramController) CreateProgram(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req CreateProgramRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	program := domain.NewProgram(strings.TrimSpace(req.Title), req.Description, req.TrainerID, req.StartDate, req.EndDate, req.Capacity)
	if req.Status != "" {
		program.Status = req.Status
	}
	if err := c.Service.Create(r.Context(), p, program); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, program)
}

// GetProgram godoc
// @Summary Get a program
// @Description Trainees only see published programs.
// @Tags programs
// @Produce json
// @Security BearerAuth
// @Param programID path string true "Program ID (UUID)"
// @Success 200 {object} controllers.ProgramSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs/{programID} [get]
func (c *ProgramController) GetProgram(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	programID, ok := helpers.PathUUID(w, r, "programID")
	if !ok {
		return
	}
	program, err := c.Service.Get(r.Context(), p, programID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, program)
}

// ListPrograms godoc
// @Summary List programs
// @Description Filters: q (title), status, trainer_id. Trainees only see published programs. Paginated.
// @Tags programs
// @Produce json
// @Security BearerAuth
// @Param q query string false "Title search"
// @Param status query string false "draft, published or archived"
// @Param trainer_id query string false "Trainer user ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ProgramListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs [get]
func (c *ProgramController) ListPrograms(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := domain.ProgramFilter{
		Query:     strings.TrimSpace(q.Get("q")),
		Status:    strings.TrimSpace(q.Get("status")),
		TrainerID: strings.TrimSpace(q.Get("trainer_id")),
	}
	if filter.Status != "" && !domain.ValidProgramStatus(filter.Status) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status must be draft, published or archived")
		return
	}
	params := helpers.ParsePagination(r)
	programs, total, err := c.Service.List(r.Context(), p, filter, params)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.PaginatedData[*domain.Program]{
		Items:      programs,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// UpdateProgram godoc
// @Summary Update a program
// @Description Admin or the owning trainer.
// @Tags programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programID path string true "Program ID (UUID)"
// @Param body body UpdateProgramRequest true "Fields to update"
// @Success 200 {object} controllers.ProgramSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs/{programID} [patch]
func (c *ProgramController) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	programID, ok := helpers.PathUUID(w, r, "programID")
	if !ok {
		return
	}
	var req UpdateProgramRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	program, err := c.Service.Update(r.Context(), p, programID, domain.ProgramUpdate{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Capacity:    req.Capacity,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, program)
}

// DeleteProgram godoc
// @Summary Delete a program
// @Description Admin or the owning trainer. Removes its enrollments and events.
// @Tags programs
// @Security BearerAuth
// @Param programID path string true "Program ID (UUID)"
// @Success 204
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs/{programID} [delete]
func (c *ProgramController) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	programID, ok := helpers.PathUUID(w, r, "programID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), p, programID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Enroll godoc
// @Summary Enroll in a program
// @Description Enrolls the caller. The program must be published and not full.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param programID path string true "Program ID (UUID)"
// @Success 201 {object} controllers.EnrollmentSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already enrolled or program full)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs/{programID}/enrollments [post]
func (c *ProgramController) Enroll(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	programID, ok := helpers.PathUUID(w, r, "programID")
	if !ok {
		return
	}
	enrollment, err := c.Service.Enroll(r.Context(), p, programID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, enrollment)
}

// Withdraw godoc
// @Summary Withdraw from a program
// @Tags enrollments
// @Security BearerAuth
// @Param programID path string true "Program ID (UUID)"
// @Success 204
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not enrolled)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs/{programID}/enrollments/me [delete]
func (c *ProgramController) Withdraw(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	programID, ok := helpers.PathUUID(w, r, "programID")
	if !ok {
		return
	}
	if err := c.Service.Withdraw(r.Context(), p, programID); err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEnrollments godoc
// @Summary List a program's enrollments
// @Description Admin or the owning trainer.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param programID path string true "Program ID (UUID)"
// @Success 200 {object} controllers.EnrollmentListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs/{programID}/enrollments [get]
func (c *ProgramController) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	programID, ok := helpers.PathUUID(w, r, "programID")
	if !ok {
		return
	}
	enrollments, err := c.Service.ListEnrollments(r.Context(), p, programID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if enrollments == nil {
		enrollments = []*domain.Enrollment{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, enrollments)
}

// ListMyEnrollments godoc
// @Summary List my enrollments
// @Description Returns the caller's enrollments with their programs.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MyEnrollmentsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/enrollments [get]
func (c *ProgramController) ListMyEnrollments(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	items, err := c.Service.ListMyEnrollments(r.Context(), p)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	if items == nil {
		items = []*domain.EnrollmentWithProgram{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, items)
}

// CompleteEnrollment godoc
// @Summary Mark an enrollment completed
// @Description Admin or the owning trainer. Issues a certificate; repeating the call returns the same certificate.
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param programID path string true "Program ID (UUID)"
// @Param userID path string true "Trainee user ID (UUID)"
// @Success 200 {object} controllers.CertificateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not enrolled)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /programs/{programID}/enrollments/{userID}/complete [post]
func (c *ProgramController) CompleteEnrollment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	programID, ok := helpers.PathUUID(w, r, "programID")
	if !ok {
		return
	}
	userID, ok := helpers.PathUUID(w, r, "userID")
	if !ok {
		return
	}
	cert, err := c.Service.Complete(r.Context(), p, programID, userID)
	if err != nil {
		writeServiceError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, cert)
}
