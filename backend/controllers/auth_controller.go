package controllers

import (
	"errors"
	"strings"
	"time"

	"tektongeo/backend/config"
	"tektongeo/backend/middleware"
	"tektongeo/backend/models"
	"tektongeo/backend/policy"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Policy *policy.Policy
	Logger *logrus.Logger
}

func NewAuthController(db *gorm.DB, cfg *config.Config, p *policy.Policy, logger *logrus.Logger) *AuthController {
	return &AuthController{DB: db, Cfg: cfg, Policy: p, Logger: logger}
}

type SignupRequest struct {
	Email         string `json:"email" validate:"required,email"`
	FullName      string `json:"fullname" validate:"required"`
	Password      string `json:"password" validate:"required,min=8"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup creates an account with the lowest-privilege role. Clients cannot
// choose a role at signup.
func (ac *AuthController) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := ac.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return utils.Conflict(c, "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.InternalServerError(c, "Could not query database")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		Email:         email,
		FullName:      req.FullName,
		PasswordHash:  string(hash),
		Role:          policy.RoleResearcher,
		Enabled:       true,
		Address:       req.Address,
		ContactNumber: req.ContactNumber,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not create user")
	}

	token, err := utils.GenerateJWTToken(&user, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	return utils.Created(c, fiber.Map{
		"token": token,
		"user":  userSummary(&user),
	})
}

// Login verifies credentials and issues a 24h token. Unknown email and wrong
// password produce the same response on purpose.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := ac.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ac.logFailedLogin(c, email, "unknown email")
			return utils.Unauthorized(c, "Invalid credentials")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ac.logFailedLogin(c, email, "password mismatch")
		return utils.Unauthorized(c, "Invalid credentials")
	}

	if !user.Enabled {
		ac.logFailedLogin(c, email, "account disabled")
		return utils.Forbidden(c, "Account is disabled")
	}

	now := time.Now()
	if err := ac.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		return utils.InternalServerError(c, "Could not update login time")
	}

	token, err := utils.GenerateJWTToken(&user, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}

	recordActivity(ac.DB, ac.Logger, &user, models.ActionLogin, "User logged in")

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"role":  user.Role,
		"user":  userSummary(&user),
	})
}

// Logout writes the audit entry; token invalidation itself is client-side.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	user := middleware.Principal(c)
	recordActivity(ac.DB, ac.Logger, user, models.ActionSignOut, "User signed out")
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Signed out"})
}

func (ac *AuthController) logFailedLogin(c *fiber.Ctx, email, reason string) {
	ac.Logger.WithFields(logrus.Fields{
		"route":  c.Path(),
		"ip":     c.IP(),
		"email":  utils.MaskEmail(email),
		"reason": reason,
	}).Warn("login failed")
}

func userSummary(user *models.User) fiber.Map {
	return fiber.Map{
		"id":       user.ID,
		"email":    user.Email,
		"fullname": user.FullName,
		"role":     user.Role,
	}
}
