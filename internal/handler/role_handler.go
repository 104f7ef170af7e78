package handler

import (
	"fmt"

	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	roleRepo      repository.RoleRepository
	privilegeRepo repository.PrivilegeRepository
}

func NewRoleHandler(roleRepo repository.RoleRepository, privilegeRepo repository.PrivilegeRepository) *RoleHandler {
	return &RoleHandler{roleRepo: roleRepo, privilegeRepo: privilegeRepo}
}

// GetRoles returns all available roles with their privileges
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.roleRepo.FindAll()
	if err != nil {
		return fmt.Errorf("fetch roles: %w", err)
	}
	return response.OK(c, "Roles fetched", roles)
}

// GET /api/v1/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.privilegeRepo.FindAll()
	if err != nil {
		return fmt.Errorf("fetch privileges: %w", err)
	}
	return response.OK(c, "Privileges fetched", privileges)
}
