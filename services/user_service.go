package services

import (
	"fmt"
	"strings"

	"bankcards/models"
	"bankcards/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserDTO представляет пользователя без чувствительных полей
type UserDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// CreateUserRequest представляет данные для создания пользователя
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

// UserPage представляет страницу пользователей
type UserPage struct {
	Content       []UserDTO `json:"content"`
	Offset        int       `json:"offset"`
	Limit         int       `json:"limit"`
	TotalElements int       `json:"totalElements"`
}

// UserService управляет пользователями
type UserService struct {
	users repository.UserRepository
}

// NewUserService создает новый экземпляр UserService
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// CreateUser регистрирует нового пользователя. Пароль хэшируется,
// имя и email должны быть уникальными.
func (s *UserService) CreateUser(req CreateUserRequest) (*UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки имени пользователя: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: пользователь с именем %s уже существует", repository.ErrInvalidField, username)
	}

	exists, err = s.users.ExistsByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки email: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: пользователь с email %s уже существует", repository.ErrInvalidField, email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	role := models.Role(req.Role)
	if role != models.RoleAdmin {
		role = models.RoleUser
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// Authenticate проверяет учетные данные и возвращает пользователя
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("%w: неверный email или пароль", repository.ErrInvalidField)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: неверный email или пароль", repository.ErrInvalidField)
	}
	return user, nil
}

// GetByID возвращает модель пользователя по id
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: пользователь с id %d не найден", repository.ErrNotFound, id)
	}
	return user, nil
}

// FindByID возвращает пользователя по id
func (s *UserService) FindByID(id uint) (*UserDTO, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: пользователь с id %d не найден", repository.ErrNotFound, id)
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// FindByEmail возвращает пользователя по email
func (s *UserService) FindByEmail(email string) (*UserDTO, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: пользователь с email %s не найден", repository.ErrNotFound, email)
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// GetUsers возвращает всех пользователей
func (s *UserService) GetUsers() ([]UserDTO, error) {
	users, err := s.users.ListAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	result := make([]UserDTO, 0, len(users))
	for i := range users {
		result = append(result, toUserDTO(&users[i]))
	}
	return result, nil
}

// GetUsersPages возвращает страницу пользователей
func (s *UserService) GetUsersPages(offset, limit int) (*UserPage, error) {
	users, err := s.users.ListPage(offset, limit, "id")
	if err != nil {
		return nil, fmt.Errorf("ошибка получения страницы пользователей: %w", err)
	}
	content := make([]UserDTO, 0, len(users))
	for i := range users {
		content = append(content, toUserDTO(&users[i]))
	}
	return &UserPage{
		Content:       content,
		Offset:        offset,
		Limit:         limit,
		TotalElements: len(content),
	}, nil
}

func toUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}
}
