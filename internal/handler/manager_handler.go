package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/console"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
)

// ManagerHandler handles complaints and user administration
type ManagerHandler struct {
	api       *backend.API
	validator *validation.Validator
	opts      Options
}

// NewManagerHandler creates a new manager handler
func NewManagerHandler(api *backend.API, v *validation.Validator, opts Options) *ManagerHandler {
	return &ManagerHandler{api: api, validator: v, opts: opts.withDefaults()}
}

// ListComplaints handles listing complaints
// GET /api/manager/complaints
func (h *ManagerHandler) ListComplaints(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	complaints, err := h.api.Complaints.List(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "complaints", "Failed to get complaints")
		return
	}
	sendList(c, complaints, console.ComplaintFilters, console.ComplaintSorters, "id:desc", params)
}

// ReplyComplaint handles answering a complaint, which resolves it
// PUT /api/manager/complaints/:id/reply
func (h *ManagerHandler) ReplyComplaint(c *gin.Context) {
	id, ok := parseID(c, "complaint")
	if !ok {
		return
	}
	var form validation.ComplaintReplyForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "complaintReply", errs)
		return
	}

	complaint, err := h.api.Complaints.Reply(c.Request.Context(), id, strings.TrimSpace(form.Reply))
	if err != nil {
		sendError(c, h.opts.Logger, err, "complaint", "Failed to reply to complaint")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": complaint})
}

// DeleteComplaint handles deleting a complaint
// DELETE /api/manager/complaints/:id
func (h *ManagerHandler) DeleteComplaint(c *gin.Context) {
	id, ok := parseID(c, "complaint")
	if !ok {
		return
	}
	if err := h.api.Complaints.Delete(c.Request.Context(), id); err != nil {
		sendError(c, h.opts.Logger, err, "complaint", "Failed to delete complaint")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUsers handles listing users
// GET /api/manager/users
func (h *ManagerHandler) ListUsers(c *gin.Context) {
	params := ParsePaginationParams(c, h.opts.PageSize, h.opts.MaxPageSize)

	byID, err := h.api.Users.All(c.Request.Context())
	if err != nil {
		sendError(c, h.opts.Logger, err, "users", "Failed to get users")
		return
	}
	sendList(c, console.UserList(byID), console.UserFilters, console.UserSorters, "name", params)
}

// UpdateUserRole handles changing the role of a user
// PUT /api/manager/users/:id/role
func (h *ManagerHandler) UpdateUserRole(c *gin.Context) {
	id := c.Param("id")
	var form validation.RoleForm
	if !bindJSON(c, &form) {
		return
	}
	if errs := h.validator.ValidateForm(form); !errs.Empty() {
		sendValidationErrors(c, h.opts.Metrics, "role", errs)
		return
	}

	user, err := h.api.Users.UpdateRole(c.Request.Context(), id, form.Role)
	if err != nil {
		sendError(c, h.opts.Logger, err, "user", "Failed to update user role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

// DeleteUser handles deleting a user
// DELETE /api/manager/users/:id
func (h *ManagerHandler) DeleteUser(c *gin.Context) {
	if err := h.api.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		sendError(c, h.opts.Logger, err, "user", "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}
