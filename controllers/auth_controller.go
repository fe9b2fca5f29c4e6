package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bankcards/config"
	"bankcards/middleware"
	"bankcards/repository"
	"bankcards/services"

	"github.com/go-playground/validator/v10"
)

// AuthController обрабатывает регистрацию и вход пользователей
type AuthController struct {
	userService *services.UserService
	validate    *validator.Validate
	config      *config.Config
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInResponse struct {
	Token string `json:"token"`
}

type SignUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthResponse struct {
	Token string           `json:"token"`
	User  services.UserDTO `json:"user"`
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(userService *services.UserService, cfg *config.Config) *AuthController {
	return &AuthController{
		userService: userService,
		validate:    validator.New(),
		config:      cfg,
	}
}

// SignIn обрабатывает вход пользователя
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация запроса
	if err := c.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		http.Error(w, validationErrors.Error(), http.StatusBadRequest)
		return
	}

	// Проверяем учетные данные
	user, err := c.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Создаем JWT токен
	tokenString, err := middleware.GenerateToken(
		[]byte(c.config.JWT.SecretKey),
		user.ID,
		user.Email,
		string(user.Role),
		time.Duration(c.config.JWT.ExpiresIn)*time.Hour,
	)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SignInResponse{Token: tokenString})
}

// SignUp обрабатывает регистрацию пользователя
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация запроса
	if err := c.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		http.Error(w, validationErrors.Error(), http.StatusBadRequest)
		return
	}

	// Регистрация всегда создает обычного пользователя
	user, err := c.userService.CreateUser(services.CreateUserRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidField) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Генерация JWT токена
	tokenString, err := middleware.GenerateToken(
		[]byte(c.config.JWT.SecretKey),
		user.ID,
		user.Email,
		user.Role,
		time.Duration(c.config.JWT.ExpiresIn)*time.Hour,
	)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{
		Token: tokenString,
		User:  *user,
	})
}
