package repository

import (
	"errors"
	"fmt"

	"bankcards/models"

	"gorm.io/gorm"
)

// GormUserRepository реализует UserRepository поверх PostgreSQL
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository создает новый экземпляр GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create сохраняет нового пользователя
func (r *GormUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь уже существует", ErrInvalidField)
		}
		return fmt.Errorf("не удалось создать пользователя: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по id
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail ищет пользователя по email (игнорируя регистр и пробелы)
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername ищет пользователя по имени
func (r *GormUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ExistsByUsername проверяет существование пользователя с таким именем
func (r *GormUserRepository) ExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// ExistsByEmail проверяет существование пользователя с таким email
func (r *GormUserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	return count > 0, err
}

// ListAll возвращает всех пользователей
func (r *GormUserRepository) ListAll() ([]models.User, error) {
	var users []models.User
	if err := r.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListPage возвращает страницу пользователей
func (r *GormUserRepository) ListPage(offset, limit int, sortField string) ([]models.User, error) {
	if sortField != "id" && sortField != "username" && sortField != "email" {
		sortField = "id"
	}
	var users []models.User
	err := r.db.Order(sortField).
		Offset(offset * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
