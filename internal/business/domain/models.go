package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Business is a tenant. Products, customers and invoices are scoped to it.
type Business struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                 string       `gorm:"type:varchar(255);not null" json:"name"`
	AddressLine1         string       `gorm:"column:address_line1;type:varchar(255)" json:"address_line1"`
	AddressLine2         string       `gorm:"column:address_line2;type:varchar(255)" json:"address_line2"`
	ContactNumber1       string       `gorm:"column:contact_number1;type:varchar(64)" json:"contact_number1"`
	ContactNumber2       string       `gorm:"column:contact_number2;type:varchar(64)" json:"contact_number2"`
	TRN                  string       `gorm:"column:trn;type:varchar(64)" json:"trn"`
	LogoPath             string       `gorm:"type:varchar(512)" json:"logo_path"`
	ManagerSignaturePath string       `gorm:"type:varchar(512)" json:"manager_signature_path"`
	CreatedAt            time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"not null" json:"updated_at"`
}

func (Business) TableName() string { return "businesses" }
