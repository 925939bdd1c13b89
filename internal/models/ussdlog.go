package models

import "gorm.io/gorm"

// USSDSessionLog records one dialog turn: the cumulative input and the
// response sent back to the gateway
type USSDSessionLog struct {
	gorm.Model

	SessionID    string `json:"session_id" gorm:"index"`
	PhoneNumber  string `json:"phone_number"`
	ServiceCode  string `json:"service_code"`
	InputText    string `json:"input_text"`
	ResponseText string `json:"response_text"`
}

// GeoSearchLog records a nearest-provider lookup for analytics
type GeoSearchLog struct {
	gorm.Model

	PhoneNumber   string `json:"phone_number"`
	LocationInput string `json:"location_input"`
	ResultsCount  int    `json:"results_count"`
}
