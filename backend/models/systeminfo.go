package models

import "gorm.io/gorm"

// SystemInfo is client-reported telemetry, collected only from admin-tier
// sessions. Append-only.
type SystemInfo struct {
	gorm.Model
	UserID           uint   `gorm:"index" json:"user_id"`
	OS               string `json:"os"`
	OSVersion        string `json:"os_version"`
	Browser          string `json:"browser"`
	BrowserVersion   string `json:"browser_version"`
	DeviceType       string `json:"device_type"`
	NetworkType      string `json:"network_type"`
	ScreenResolution string `json:"screen_resolution"`
	Language         string `json:"language"`
	Timezone         string `json:"timezone"`
}
