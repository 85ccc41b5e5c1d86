package controllers

import (
	"tektongeo/backend/config"
	"tektongeo/backend/middleware"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ProfileController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProfileController(db *gorm.DB, cfg *config.Config) *ProfileController {
	return &ProfileController{DB: db, Cfg: cfg}
}

type UpdateProfileRequest struct {
	FullName      string `json:"fullname"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	OldPassword   string `json:"old_password"`
	NewPassword   string `json:"new_password" validate:"omitempty,min=8"`
}

func (pc *ProfileController) GetProfile(c *fiber.Ctx) error {
	user := middleware.Principal(c)
	return utils.Success(c, fiber.StatusOK, user)
}

// UpdateProfile lets a user change their own profile fields. Email changes go
// through admin management only; a password change requires the old password.
func (pc *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.Principal(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.ContactNumber != "" {
		user.ContactNumber = req.ContactNumber
	}

	if req.NewPassword != "" {
		if req.OldPassword == "" {
			return utils.BadRequest(c, "Old password is required to set new password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			return utils.Unauthorized(c, "Invalid old password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return utils.InternalServerError(c, "Could not hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := pc.DB.Save(user).Error; err != nil {
		return utils.InternalServerError(c, "Could not update profile")
	}

	return utils.Success(c, fiber.StatusOK, user)
}
