package controllers

import (
	"errors"
	"strconv"
	"strings"

	"tektongeo/backend/config"
	"tektongeo/backend/models"
	"tektongeo/backend/policy"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Policy *policy.Policy
	Logger *logrus.Logger
}

func NewAdminController(db *gorm.DB, cfg *config.Config, p *policy.Policy, logger *logrus.Logger) *AdminController {
	return &AdminController{DB: db, Cfg: cfg, Policy: p, Logger: logger}
}

type AdminUpdateUserRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	FullName string `json:"fullname"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type ToggleStatusRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ListUsers returns every account except the super-admin identity. Password
// hashes are never serialized.
func (ad *AdminController) ListUsers(c *fiber.Ctx) error {
	var users []models.User
	err := ad.DB.
		Where("email <> ?", strings.ToLower(ad.Cfg.SuperAdminEmail)).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch users")
	}
	return utils.Success(c, fiber.StatusOK, users)
}

// UpdateUser changes email, fullname or password of a target account.
func (ad *AdminController) UpdateUser(c *fiber.Ctx) error {
	user, errResp := ad.mutableTarget(c)
	if user == nil {
		return errResp
	}

	var req AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email != user.Email {
			var other models.User
			err := ad.DB.Where("email = ? AND id <> ?", email, user.ID).First(&other).Error
			if err == nil {
				return utils.Conflict(c, "Email already in use")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.InternalServerError(c, "Could not query database")
			}
			user.Email = email
		}
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := ad.DB.Save(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

// SetRole assigns one of the grantable roles to a target account.
func (ad *AdminController) SetRole(c *fiber.Ctx) error {
	user, errResp := ad.mutableTarget(c)
	if user == nil {
		return errResp
	}

	var req SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if !policy.AssignableRole(req.Role) {
		return utils.Forbidden(c, "Role cannot be assigned")
	}

	if err := ad.DB.Model(user).Update("role", req.Role).Error; err != nil {
		return utils.InternalServerError(c, "Could not update role")
	}
	user.Role = req.Role
	return utils.Success(c, fiber.StatusOK, user)
}

// ToggleStatus enables or disables a target account. Disabling takes effect
// on the target's very next request.
func (ad *AdminController) ToggleStatus(c *fiber.Ctx) error {
	user, errResp := ad.mutableTarget(c)
	if user == nil {
		return errResp
	}

	var req ToggleStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if err := ad.DB.Model(user).Update("enabled", *req.Enabled).Error; err != nil {
		return utils.InternalServerError(c, "Could not update status")
	}
	user.Enabled = *req.Enabled
	return utils.Success(c, fiber.StatusOK, user)
}

func (ad *AdminController) DeleteUser(c *fiber.Ctx) error {
	user, errResp := ad.mutableTarget(c)
	if user == nil {
		return errResp
	}

	// Hard delete; the unique email index would otherwise reject a fresh
	// signup under this address forever.
	if err := ad.DB.Unscoped().Delete(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "User deleted"})
}

// mutableTarget loads the :id user and enforces super-admin immunity. On
// failure it returns nil plus the response already written to the client.
func (ad *AdminController) mutableTarget(c *fiber.Ctx) (*models.User, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return nil, utils.BadRequest(c, "Invalid user ID")
	}

	var user models.User
	if err := ad.DB.First(&user, id).Error; err != nil {
		return nil, utils.NotFound(c, "User not found")
	}

	if ad.Policy.Immutable(&user) {
		ad.Logger.WithFields(logrus.Fields{
			"route": c.Path(),
			"ip":    c.IP(),
		}).Warn("attempted mutation of super admin account")
		return nil, utils.Forbidden(c, "The super admin account cannot be modified")
	}

	return &user, nil
}
