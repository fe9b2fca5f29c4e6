package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Role представляет роль пользователя
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Username  string    `gorm:"column:username;unique;not null;size:50"`
	Email     string    `gorm:"column:email;unique;not null;size:100;index"`
	Password  string    `gorm:"column:password;not null;size:100"`
	Role      Role      `gorm:"column:role;not null;size:20;default:ROLE_USER"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate хук для валидации перед созданием
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Username) < 2 || len(u.Username) > 50 {
		return errors.New("username must be between 2 and 50 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 {
		return errors.New("email must be between 3 and 100 characters")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
