package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardStatus представляет статус банковской карты
type CardStatus string

const (
	CardStatusActive       CardStatus = "ACTIVE"
	CardStatusBlocked      CardStatus = "BLOCKED"
	CardStatusBlockRequest CardStatus = "BLOCKREQUEST" // пользователь запросил блокировку
	CardStatusExpired      CardStatus = "ISEXPIRATEDDATE"
)

// IsValid проверяет, что статус является одним из допустимых значений
func (s CardStatus) IsValid() bool {
	switch s {
	case CardStatusActive, CardStatusBlocked, CardStatusBlockRequest, CardStatusExpired:
		return true
	}
	return false
}

// Card представляет банковскую карту
type Card struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OpenNumber      string          `gorm:"column:open_number;unique;not null" json:"-"`
	EncryptedNumber string          `gorm:"column:encrypted_number;unique;not null" json:"encryptedNumber"`
	ExpirationDate  time.Time       `gorm:"column:expiration_date;not null" json:"expirationDate"`
	CardStatus      CardStatus      `gorm:"column:status;not null;size:20;default:ACTIVE" json:"cardStatus"`
	Balance         decimal.Decimal `gorm:"column:balance;type:decimal(20,2);not null" json:"balance"`
	UserID          uint            `gorm:"column:user_id;not null;index" json:"-"`
	User            User            `gorm:"foreignKey:UserID;references:ID" json:"user"`
	CreatedAt       time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName возвращает имя таблицы для модели Card
func (Card) TableName() string {
	return "cards"
}
