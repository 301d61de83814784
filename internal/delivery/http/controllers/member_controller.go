package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"memberaccounts/internal/delivery/http/helpers"
	"memberaccounts/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// CreateMemberRequest is the request body for POST /members.
type CreateMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Validate implements Validator.
func (c CreateMemberRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(c.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// UpdateMemberRequest is the request body for PATCH /members/{memberID}.
// All fields are optional; absent fields are left unchanged. Email cannot be updated.
type UpdateMemberRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Status *string `json:"status"`
}

// Validate implements Validator.
func (u UpdateMemberRequest) Validate() []string {
	var errs []string
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if u.Status != nil {
		if _, ok := domain.ParseMemberStatus(*u.Status); !ok {
			errs = append(errs, "status must be \"active\", \"dormant\", or \"quit\"")
		}
	}
	return errs
}

// ListMembersResponse is the data payload for GET /members.
type ListMembersResponse struct {
	Members    []*domain.Member       `json:"members"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// MemberSuccessResponse is the success response envelope for single-member endpoints.
type MemberSuccessResponse struct {
	Data  *domain.Member    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListMembersSuccessResponse is the success response envelope for GET /members (200).
type ListMembersSuccessResponse struct {
	Data  ListMembersResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// MemberController handles member account endpoints.
type MemberController struct {
	Logger  *slog.Logger
	Service domain.MemberService
}

// NewMemberController creates a MemberController with the given logger and service.
func NewMemberController(logger *slog.Logger, svc domain.MemberService) *MemberController {
	return &MemberController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create a new member
// @Description Create a member with email, name, and optional phone. Email must be unique and cannot be changed later. A welcome email is sent asynchronously after creation.
// @Tags members
// @Accept json
// @Produce json
// @Param body body CreateMemberRequest true "Member data"
// @Success 201 {object} controllers.MemberSuccessResponse "data contains the created member"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: member_exists"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /members [post]
func (c *MemberController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	now := time.Now()
	member := domain.NewMember(email, strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone), now, now)

	created, err := c.Service.Create(r.Context(), member)
	if err != nil {
		if errors.Is(err, domain.ErrMemberExists) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeExists, "email already registered")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// Get godoc
// @Summary Get a member
// @Description Returns the member with the given id.
// @Tags members
// @Produce json
// @Param memberID path int true "Member ID"
// @Success 200 {object} controllers.MemberSuccessResponse "data contains the member"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: member_not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /members/{memberID} [get]
func (c *MemberController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := c.memberIDFromPath(w, r)
	if !ok {
		return
	}
	member, err := c.Service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "member not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, member)
}

// List godoc
// @Summary List members
// @Description Returns a page of members ordered by id descending. page is zero-based; page_size is clamped to 100. A page past the end of the result set is empty, not an error.
// @Tags members
// @Produce json
// @Param page query int false "Page (zero-based)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListMembersSuccessResponse "data contains members and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /members [get]
func (c *MemberController) List(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	page, err := c.Service.List(r.Context(), params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListMembersResponse{
		Members:    page.Members,
		Pagination: helpers.NewPaginationMeta(page.Page, page.PageSize, page.Total),
	})
}

// Update godoc
// @Summary Update a member
// @Description Partially update a member: only fields present in the body are changed. Email is immutable. On a concurrent-update conflict the whole request may be retried.
// @Tags members
// @Accept json
// @Produce json
// @Param memberID path int true "Member ID"
// @Param body body UpdateMemberRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.MemberSuccessResponse "data contains the updated member"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: member_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /members/{memberID} [patch]
func (c *MemberController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := c.memberIDFromPath(w, r)
	if !ok {
		return
	}
	var req UpdateMemberRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	patch := domain.MemberPatch{
		MemberID: id,
		Name:     req.Name,
		Phone:    req.Phone,
	}
	if req.Status != nil {
		status, _ := domain.ParseMemberStatus(*req.Status)
		patch.Status = &status
	}
	member, err := c.Service.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "member not found")
			return
		}
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "concurrent update conflict, retry the request")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, member)
}

// Delete godoc
// @Summary Delete a member
// @Description Deletes the member with the given id.
// @Tags members
// @Produce json
// @Param memberID path int true "Member ID"
// @Success 204 "no content"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: member_not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /members/{memberID} [delete]
func (c *MemberController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := c.memberIDFromPath(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "member not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *MemberController) memberIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("memberID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid member id")
		return 0, false
	}
	return id, true
}
