package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bankcards/models"
	"bankcards/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// UserController обрабатывает запросы текущего пользователя и
// административные запросы по пользователям
type UserController struct {
	cardService     *services.CardService
	transferService *services.TransferService
	userService     *services.UserService
	validate        *validator.Validate
}

// NewUserController создает новый экземпляр UserController
func NewUserController(cardService *services.CardService, transferService *services.TransferService, userService *services.UserService) *UserController {
	return &UserController{
		cardService:     cardService,
		transferService: transferService,
		userService:     userService,
		validate:        validator.New(),
	}
}

// validateRequest валидирует DTO и возвращает ошибки валидации
func (c *UserController) validateRequest(dto interface{}) error {
	if err := c.validate.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "len":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать ровно "+e.Param()+" символов")
			case "numeric":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать только цифры")
			default:
				errorMessages = append(errorMessages, "поле "+e.Field()+" заполнено неверно")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

// principal возвращает модель пользователя, выполняющего запрос
func (c *UserController) principal(r *http.Request) (*models.User, error) {
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		return nil, errors.New("user_id not found in context")
	}
	return c.userService.GetByID(userID)
}

// GetMyCards возвращает карты текущего пользователя
func (c *UserController) GetMyCards(w http.ResponseWriter, r *http.Request) {
	principal, err := c.principal(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cards, err := c.cardService.GetCardsByUserID(principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// ChangeBalance переводит средства между картами текущего пользователя
func (c *UserController) ChangeBalance(w http.ResponseWriter, r *http.Request) {
	principal, err := c.principal(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req services.CardBalanceChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := c.transferService.Transfer(req, principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RequestBlock отмечает карту запросом на блокировку
func (c *UserController) RequestBlock(w http.ResponseWriter, r *http.Request) {
	principal, err := c.principal(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	number := mux.Vars(r)["number"]

	card, err := c.cardService.RequestBlock(number, principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// GetUsers возвращает всех пользователей
func (c *UserController) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.userService.GetUsers()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUserByID возвращает пользователя по id
func (c *UserController) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	user, err := c.userService.FindByID(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// CreateUser создает пользователя с указанной ролью
func (c *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := c.userService.CreateUser(req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// FilterUsers возвращает страницу пользователей
func (c *UserController) FilterUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	offset := parseQueryInt(query.Get("offset"), 0)
	limit := parseQueryInt(query.Get("limit"), 10)

	page, err := c.userService.GetUsersPages(offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
