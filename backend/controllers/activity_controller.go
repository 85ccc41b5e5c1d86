package controllers

import (
	"strconv"
	"strings"
	"time"

	"tektongeo/backend/middleware"
	"tektongeo/backend/models"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ActivityController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewActivityController(db *gorm.DB, logger *logrus.Logger) *ActivityController {
	return &ActivityController{DB: db, Logger: logger}
}

type RecordActivityRequest struct {
	Action  string `json:"action" validate:"required"`
	Details string `json:"details"`
}

// recordActivity appends an audit entry. Failures are logged and swallowed so
// an audit write can never fail the triggering request.
func recordActivity(db *gorm.DB, logger *logrus.Logger, user *models.User, action, details string) {
	if user == nil {
		return
	}
	entry := models.ActivityLog{
		Username: user.FullName,
		Email:    user.Email,
		Action:   action,
		Details:  details,
		UserID:   &user.ID,
	}
	if err := db.Create(&entry).Error; err != nil {
		logger.WithError(err).Warn("failed to write activity log")
	}
}

// Record writes an audit entry on behalf of the authenticated caller. Actor
// identity comes from the principal, never from the request body.
func (ac *ActivityController) Record(c *fiber.Ctx) error {
	var req RecordActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}
	if !models.KnownAction(req.Action) {
		return utils.BadRequest(c, "Unknown action")
	}

	user := middleware.Principal(c)
	recordActivity(ac.DB, ac.Logger, user, req.Action, req.Details)

	return utils.Created(c, fiber.Map{"message": "Recorded"})
}

// Query returns audit entries newest-first with offset pagination. Search is
// a case-insensitive substring match over username, email and details; action
// and email filters are exact; the date range is inclusive on both ends.
func (ac *ActivityController) Query(c *fiber.Ctx) error {
	search := c.Query("search")
	action := c.Query("action")
	email := c.Query("email")

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := ac.DB.Model(&models.ActivityLog{})

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(details) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if email != "" {
		query = query.Where("email = ?", strings.ToLower(email))
	}

	if start := c.Query("start"); start != "" {
		startDate, err := time.Parse("2006-01-02", start)
		if err != nil {
			return utils.BadRequest(c, "Invalid start date format. Use YYYY-MM-DD")
		}
		query = query.Where("created_at >= ?", startDate)
	}
	if end := c.Query("end"); end != "" {
		endDate, err := time.Parse("2006-01-02", end)
		if err != nil {
			return utils.BadRequest(c, "Invalid end date format. Use YYYY-MM-DD")
		}
		// Inclusive upper bound: everything before the next day.
		query = query.Where("created_at < ?", endDate.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.InternalServerError(c, "Could not count activity log")
	}

	var entries []models.ActivityLog
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not fetch activity log")
	}

	return utils.Paginate(c, entries, total, page, limit)
}
