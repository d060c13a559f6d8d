package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CourseLevel values accepted for Course.Level
const (
	CourseLevelBeginner     = "Beginner"
	CourseLevelIntermediate = "Intermediate"
	CourseLevelAdvanced     = "Advanced"
)

// ClassType values accepted for Course.ClassType
const (
	ClassTypeOnline  = "online"
	ClassTypeOffline = "offline"
	ClassTypeBoth    = "both"
)

// CurrencyPrecision is the number of decimal places all monetary values
// are rounded to.
const CurrencyPrecision = 2

// Course represents a single course offered by an institute. Seats track
// remaining capacity and are consumed on admission acceptance.
type Course struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	InstituteID     uint            `gorm:"not null;index" json:"institute_id"`
	CategoryID      uint            `gorm:"not null;index" json:"category_id"`
	Title           string          `gorm:"type:varchar(200);not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	ImageURL        string          `gorm:"type:varchar(512)" json:"image_url"`
	Duration        string          `gorm:"type:varchar(100)" json:"duration"`
	Level           string          `gorm:"type:varchar(50)" json:"level"`      // Beginner, Intermediate, Advanced
	ClassType       string          `gorm:"type:varchar(20)" json:"class_type"` // online, offline, both
	Seats           uint            `gorm:"default:0" json:"seats"`
	OriginalPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"original_price"`
	DiscountPercent uint            `gorm:"default:0" json:"discount_percent"`
	DiscountPrice   decimal.Decimal `gorm:"type:numeric(10,2)" json:"discount_price"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Institute Institute      `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"institute,omitempty"`
	Category  CourseCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
}

// DiscountedPrice computes the effective price for an original price and a
// discount percentage, rounded to the currency precision. A zero percentage
// returns the original price unchanged (rounded).
func DiscountedPrice(original decimal.Decimal, percent uint) decimal.Decimal {
	if percent == 0 {
		return original.Round(CurrencyPrecision)
	}
	discount := original.Mul(decimal.NewFromInt(int64(percent))).Div(decimal.NewFromInt(100))
	return original.Sub(discount).Round(CurrencyPrecision)
}

// BeforeSave keeps DiscountPrice consistent with OriginalPrice and
// DiscountPercent on every create and full-record save.
func (c *Course) BeforeSave(tx *gorm.DB) error {
	c.DiscountPrice = DiscountedPrice(c.OriginalPrice, c.DiscountPercent)
	return nil
}
