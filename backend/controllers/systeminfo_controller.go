package controllers

import (
	"time"

	"tektongeo/backend/middleware"
	"tektongeo/backend/models"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SystemInfoController struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func NewSystemInfoController(db *gorm.DB, logger *logrus.Logger) *SystemInfoController {
	return &SystemInfoController{DB: db, Logger: logger}
}

type SystemInfoRequest struct {
	OS               string `json:"os" validate:"required"`
	OSVersion        string `json:"os_version"`
	Browser          string `json:"browser" validate:"required"`
	BrowserVersion   string `json:"browser_version"`
	DeviceType       string `json:"device_type"`
	NetworkType      string `json:"network_type"`
	ScreenResolution string `json:"screen_resolution"`
	Language         string `json:"language"`
	Timezone         string `json:"timezone"`
}

type groupCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Report appends one telemetry record for the calling user.
func (sc *SystemInfoController) Report(c *fiber.Ctx) error {
	var req SystemInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	user := middleware.Principal(c)
	info := models.SystemInfo{
		UserID:           user.ID,
		OS:               req.OS,
		OSVersion:        req.OSVersion,
		Browser:          req.Browser,
		BrowserVersion:   req.BrowserVersion,
		DeviceType:       req.DeviceType,
		NetworkType:      req.NetworkType,
		ScreenResolution: req.ScreenResolution,
		Language:         req.Language,
		Timezone:         req.Timezone,
	}
	if err := sc.DB.Create(&info).Error; err != nil {
		return utils.InternalServerError(c, "Could not record system info")
	}

	return utils.Created(c, info)
}

// Analytics aggregates telemetry counts by OS, browser and device type over
// an optional inclusive date range.
func (sc *SystemInfoController) Analytics(c *fiber.Ctx) error {
	base := sc.DB.Model(&models.SystemInfo{})

	if start := c.Query("start"); start != "" {
		startDate, err := time.Parse("2006-01-02", start)
		if err != nil {
			return utils.BadRequest(c, "Invalid start date format. Use YYYY-MM-DD")
		}
		base = base.Where("created_at >= ?", startDate)
	}
	if end := c.Query("end"); end != "" {
		endDate, err := time.Parse("2006-01-02", end)
		if err != nil {
			return utils.BadRequest(c, "Invalid end date format. Use YYYY-MM-DD")
		}
		base = base.Where("created_at < ?", endDate.AddDate(0, 0, 1))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return utils.InternalServerError(c, "Could not aggregate system info")
	}

	byOS, err := sc.groupBy(base, "os")
	if err != nil {
		return utils.InternalServerError(c, "Could not aggregate system info")
	}
	byBrowser, err := sc.groupBy(base, "browser")
	if err != nil {
		return utils.InternalServerError(c, "Could not aggregate system info")
	}
	byDevice, err := sc.groupBy(base, "device_type")
	if err != nil {
		return utils.InternalServerError(c, "Could not aggregate system info")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"total":      total,
		"by_os":      byOS,
		"by_browser": byBrowser,
		"by_device":  byDevice,
	})
}

func (sc *SystemInfoController) groupBy(base *gorm.DB, column string) ([]groupCount, error) {
	var rows []groupCount
	err := base.Session(&gorm.Session{}).
		Select(column + " AS name, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}
