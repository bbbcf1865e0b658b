package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CalculationType names an arithmetic operation.
type CalculationType string

const (
	CalculationAddition       CalculationType = "Addition"
	CalculationSubtraction    CalculationType = "Subtraction"
	CalculationMultiplication CalculationType = "Multiplication"
	CalculationDivision       CalculationType = "Division"
)

// Calculation is a stored arithmetic result owned by a user.
type Calculation struct {
	ID        uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID         `json:"user_id" gorm:"type:char(36);not null;index"`
	Type      CalculationType   `json:"type" gorm:"type:varchar(20);not null;index"`
	Inputs    []decimal.Decimal `json:"inputs" gorm:"serializer:json;type:text;not null"`
	Result    decimal.Decimal   `json:"result" gorm:"type:decimal(38,16);not null"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `json:"-" gorm:"index"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Calculation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
