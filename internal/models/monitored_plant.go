package models

import (
	"time"

	"gorm.io/gorm"
)

// MonitoredPlant is a plant a user tracks for watering.
type MonitoredPlant struct {
	gorm.Model
	OwnerUID         string `gorm:"size:128;index;not null"`
	Name             string `gorm:"size:255;not null"`
	Species          string `gorm:"size:255"`
	ImageURL         string `gorm:"size:512"`
	WateringInterval int    `gorm:"not null;default:3"` // days
	LastWatered      time.Time
	NextWatering     time.Time
}

// NextWateringAfter computes the next watering date from a given watering.
func NextWateringAfter(watered time.Time, intervalDays int) time.Time {
	if intervalDays <= 0 {
		intervalDays = 3
	}
	return watered.AddDate(0, 0, intervalDays)
}
