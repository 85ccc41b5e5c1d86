package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CoordTolerance is the radius, in degrees on each axis, within which two
// submissions are treated as the same marker.
const CoordTolerance = 0.000001

type Marker struct {
	gorm.Model
	Latitude  float64  `gorm:"not null" json:"lat"`
	Longitude float64  `gorm:"not null" json:"lng"`
	Bucket    string   `gorm:"uniqueIndex;size:48" json:"-"`
	Surveys   []Survey `gorm:"constraint:OnDelete:CASCADE" json:"surveys"`
}

// CoordBucket rounds a coordinate pair to the tolerance precision. The bucket
// carries a unique index so concurrent creates at the same point collide in
// the database instead of producing twin markers.
func CoordBucket(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}

type Survey struct {
	gorm.Model
	MarkerID       uint          `gorm:"index" json:"-"`
	Name           string        `gorm:"not null" json:"name"`
	TakenAt        time.Time     `gorm:"not null" json:"createdAt"`
	IdempotencyKey string        `gorm:"size:64" json:"idempotency_key,omitempty"`
	RadioOne       string        `json:"radio_one"`
	RadioTwo       string        `json:"radio_two"`
	LineLength     float64       `json:"line_length"`
	LineIncrement  float64       `json:"line_increment"`
	Values         []SurveyValue `gorm:"constraint:OnDelete:CASCADE" json:"values"`
}

// SameEntry reports whether the (name, taken-at) pair identifies the same
// survey. Timestamps are compared as instants, not as serialized strings.
func (s *Survey) SameEntry(name string, takenAt time.Time) bool {
	return s.Name == name && s.TakenAt.Equal(takenAt)
}

// SurveyValue is one reading within a survey. From and To may be numeric or
// textual in source data, so both are kept as free text.
type SurveyValue struct {
	ID       uint    `gorm:"primarykey" json:"-"`
	SurveyID uint    `gorm:"index" json:"-"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Sign     string  `json:"sign"`
	Number   float64 `json:"number"`
}
