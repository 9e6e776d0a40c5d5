package handler

import (
	"github.com/buildcrew/fieldreport-api/internal/application/service"
	"github.com/buildcrew/fieldreport-api/internal/presentation/http/dto/response"
	"github.com/buildcrew/fieldreport-api/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RosterHandler handles staff roster HTTP requests
type RosterHandler struct {
	userService *service.UserService
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(userService *service.UserService) *RosterHandler {
	return &RosterHandler{userService: userService}
}

// List returns active users for the report editor's staff picker
// @Summary List roster
// @Tags roster
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Param role query string false "Filter by role name"
// @Success 200 {object} response.APIResponse
// @Router /roster [get]
func (h *RosterHandler) List(c *gin.Context) {
	params := pagination.DefaultPagination()
	if err := c.ShouldBindQuery(params); err != nil {
		response.BadRequest(c, "Invalid pagination parameters")
		return
	}
	params.Validate()

	result, err := h.userService.ListRoster(c.Request.Context(), c.Query("role"), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Roster retrieved successfully", result)
}

// Get fetches a single roster member
// @Summary Get roster member
// @Tags roster
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /roster/{id} [get]
func (h *RosterHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User retrieved successfully", gin.H{"user": user})
}

// AssignRole grants a role to a user
// @Summary Assign role
// @Tags roster
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.APIResponse
// @Router /roster/{id}/roles [put]
func (h *RosterHandler) AssignRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.userService.AssignRole(c.Request.Context(), id, req.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Role assigned successfully", nil)
}

// ListRoles returns all roles
// @Summary List roles
// @Tags roster
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /roles [get]
func (h *RosterHandler) ListRoles(c *gin.Context) {
	roles, err := h.userService.ListRoles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Roles retrieved successfully", gin.H{"roles": roles})
}
