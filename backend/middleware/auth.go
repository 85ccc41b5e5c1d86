package middleware

import (
	"tektongeo/backend/config"
	"tektongeo/backend/models"
	"tektongeo/backend/policy"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const principalKey = "principal"

// Protected resolves the bearer token to a live user record. The user is
// re-fetched on every request, so role and enabled changes take effect on the
// very next call, not at token expiry. The resolved principal is attached to
// the request locals and never stored globally.
func Protected(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := utils.ExtractToken(c)
		if tokenString == "" {
			logAuthFailure(logger, c, "", "missing token")
			return utils.Unauthorized(c, "Invalid or expired token")
		}

		userID, err := utils.ParseUserIDFromToken(tokenString, cfg)
		if err != nil {
			logAuthFailure(logger, c, "", "invalid token")
			return utils.Unauthorized(c, "Invalid or expired token")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			logAuthFailure(logger, c, "", "unknown user in token")
			return utils.Unauthorized(c, "Invalid or expired token")
		}

		if !user.Enabled {
			logAuthFailure(logger, c, user.Email, "account disabled")
			return utils.Forbidden(c, "Account is disabled")
		}

		c.Locals(principalKey, &user)
		return c.Next()
	}
}

// Principal returns the user resolved by Protected, or nil.
func Principal(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(principalKey).(*models.User)
	return user
}

// RequireRoles gates a route on the role policy. Must run after Protected.
func RequireRoles(p *policy.Policy, logger *logrus.Logger, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := Principal(c)
		if user == nil {
			return utils.Unauthorized(c, "Invalid or expired token")
		}

		if !p.Authorize(user, roles...) {
			logger.WithFields(logrus.Fields{
				"route": c.Path(),
				"ip":    c.IP(),
				"email": utils.MaskEmail(user.Email),
				"role":  user.Role,
			}).Warn("access denied")
			return utils.Forbidden(c, "Insufficient privileges")
		}

		return c.Next()
	}
}

// logAuthFailure records failed authentication attempts to the observability
// channel. Identities are masked and passwords are never logged.
func logAuthFailure(logger *logrus.Logger, c *fiber.Ctx, email, reason string) {
	fields := logrus.Fields{
		"route":  c.Path(),
		"ip":     c.IP(),
		"reason": reason,
	}
	if email != "" {
		fields["email"] = utils.MaskEmail(email)
	}
	logger.WithFields(fields).Warn("authentication failed")
}
