package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tektongeo/backend/config"
	"tektongeo/backend/middleware"
	"tektongeo/backend/models"
	"tektongeo/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MarkerController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewMarkerController(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *MarkerController {
	return &MarkerController{DB: db, Cfg: cfg, Logger: logger}
}

type SurveyValueRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Sign   string  `json:"sign"`
	Number float64 `json:"number"`
}

type SubmitSurveyRequest struct {
	Latitude       *float64             `json:"lat" validate:"required"`
	Longitude      *float64             `json:"lng" validate:"required"`
	Name           string               `json:"name" validate:"required"`
	TakenAt        time.Time            `json:"createdAt" validate:"required"`
	IdempotencyKey string               `json:"idempotency_key" validate:"omitempty,max=64"`
	RadioOne       string               `json:"radio_one"`
	RadioTwo       string               `json:"radio_two"`
	LineLength     float64              `json:"line_length"`
	LineIncrement  float64              `json:"line_increment"`
	Values         []SurveyValueRequest `json:"values"`
}

type UpdateMarkerRequest struct {
	Latitude  *float64 `json:"lat" validate:"required"`
	Longitude *float64 `json:"lng" validate:"required"`
}

// ListMarkers returns every marker with its full survey history. The listing
// is deliberately unpaginated; that is part of the API contract at the
// current data scale.
func (mc *MarkerController) ListMarkers(c *fiber.Ctx) error {
	var markers []models.Marker
	if err := mc.DB.Preload("Surveys", orderedSurveys).Preload("Surveys.Values").Find(&markers).Error; err != nil {
		return utils.InternalServerError(c, "Could not fetch markers")
	}
	return utils.Success(c, fiber.StatusOK, markers)
}

// GetMarker returns one marker plus a projection of its most recently
// appended survey.
func (mc *MarkerController) GetMarker(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid marker ID")
	}

	var marker models.Marker
	if err := mc.DB.Preload("Surveys", orderedSurveys).Preload("Surveys.Values").First(&marker, id).Error; err != nil {
		return utils.NotFound(c, "Marker not found")
	}

	var latest *models.Survey
	if n := len(marker.Surveys); n > 0 {
		latest = &marker.Surveys[n-1]
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"marker":        marker,
		"latest_survey": latest,
	})
}

// SubmitSurvey appends a survey to the marker at the submitted coordinates,
// creating the marker on first submission. Responds 201 when a marker was
// created and 200 when the survey was merged into (or deduplicated against)
// an existing marker.
func (mc *MarkerController) SubmitSurvey(c *fiber.Ctx) error {
	var req SubmitSurveyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	lat, lng := *req.Latitude, *req.Longitude
	survey := models.Survey{
		Name:           req.Name,
		TakenAt:        req.TakenAt.UTC(),
		IdempotencyKey: req.IdempotencyKey,
		RadioOne:       req.RadioOne,
		RadioTwo:       req.RadioTwo,
		LineLength:     req.LineLength,
		LineIncrement:  req.LineIncrement,
	}
	for _, v := range req.Values {
		survey.Values = append(survey.Values, models.SurveyValue{
			From:   v.From,
			To:     v.To,
			Sign:   v.Sign,
			Number: v.Number,
		})
	}

	marker, created, err := mc.upsertSurvey(lat, lng, &survey)
	if err != nil {
		mc.Logger.WithError(err).Error("survey upsert failed")
		return utils.InternalServerError(c, "Could not save survey")
	}

	user := middleware.Principal(c)
	action := models.ActionCreatedSurvey
	if created {
		action = models.ActionUploadedMarker
	}
	recordActivity(mc.DB, mc.Logger, user, action,
		fmt.Sprintf("Survey %q at (%.6f, %.6f)", req.Name, lat, lng))

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return utils.Success(c, status, marker)
}

// upsertSurvey finds a marker within the coordinate tolerance and appends the
// survey, or creates a new marker holding it. A survey matching an existing
// (name, taken-at) pair or idempotency key is a silent no-op. The rounded
// coordinate bucket has a unique index, so when two concurrent submissions
// both miss the lookup, one create loses and retries the append path.
func (mc *MarkerController) upsertSurvey(lat, lng float64, survey *models.Survey) (*models.Marker, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		var marker models.Marker
		err := mc.DB.Preload("Surveys", orderedSurveys).
			Where("latitude BETWEEN ? AND ?", lat-models.CoordTolerance, lat+models.CoordTolerance).
			Where("longitude BETWEEN ? AND ?", lng-models.CoordTolerance, lng+models.CoordTolerance).
			First(&marker).Error
		if err == nil {
			for i := range marker.Surveys {
				existing := &marker.Surveys[i]
				if existing.SameEntry(survey.Name, survey.TakenAt) {
					return &marker, false, nil
				}
				if survey.IdempotencyKey != "" && existing.IdempotencyKey == survey.IdempotencyKey {
					return &marker, false, nil
				}
			}
			survey.MarkerID = marker.ID
			if err := mc.DB.Create(survey).Error; err != nil {
				return nil, false, err
			}
			marker.Surveys = append(marker.Surveys, *survey)
			return &marker, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}

		marker = models.Marker{
			Latitude:  lat,
			Longitude: lng,
			Bucket:    models.CoordBucket(lat, lng),
			Surveys:   []models.Survey{*survey},
		}
		err = mc.DB.Create(&marker).Error
		if err == nil {
			return &marker, true, nil
		}
		if !isUniqueViolation(err) {
			return nil, false, err
		}
		// Lost the create race; loop once more and append instead.
	}
	return nil, false, errors.New("marker upsert did not converge")
}

// UpdateMarker replaces the marker coordinates.
func (mc *MarkerController) UpdateMarker(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid marker ID")
	}

	var req UpdateMarkerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var marker models.Marker
	if err := mc.DB.First(&marker, id).Error; err != nil {
		return utils.NotFound(c, "Marker not found")
	}

	marker.Latitude = *req.Latitude
	marker.Longitude = *req.Longitude
	marker.Bucket = models.CoordBucket(marker.Latitude, marker.Longitude)
	if err := mc.DB.Save(&marker).Error; err != nil {
		if isUniqueViolation(err) {
			return utils.Conflict(c, "Another marker already exists at these coordinates")
		}
		return utils.InternalServerError(c, "Could not update marker")
	}

	user := middleware.Principal(c)
	recordActivity(mc.DB, mc.Logger, user, models.ActionUpdatedSurvey,
		fmt.Sprintf("Marker %d moved to (%.6f, %.6f)", marker.ID, marker.Latitude, marker.Longitude))

	return utils.Success(c, fiber.StatusOK, marker)
}

// DeleteMarker removes the marker and its survey history.
func (mc *MarkerController) DeleteMarker(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid marker ID")
	}

	var marker models.Marker
	if err := mc.DB.First(&marker, id).Error; err != nil {
		return utils.NotFound(c, "Marker not found")
	}

	// Hard deletes throughout: a soft-deleted marker would keep holding the
	// unique bucket and block re-creation at this location.
	err = mc.DB.Transaction(func(tx *gorm.DB) error {
		surveyIDs := tx.Model(&models.Survey{}).Select("id").Where("marker_id = ?", marker.ID)
		if err := tx.Where("survey_id IN (?)", surveyIDs).Delete(&models.SurveyValue{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("marker_id = ?", marker.ID).Delete(&models.Survey{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&marker).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete marker")
	}

	user := middleware.Principal(c)
	recordActivity(mc.DB, mc.Logger, user, models.ActionDeletedMarker,
		fmt.Sprintf("Marker %d deleted", marker.ID))

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "Marker deleted"})
}

// orderedSurveys keeps survey history in insertion order, which doubles as
// temporal order.
func orderedSurveys(db *gorm.DB) *gorm.DB {
	return db.Order("surveys.id ASC")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
