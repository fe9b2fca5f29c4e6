package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bankcards/repository"
	"bankcards/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// CardController обрабатывает административные запросы по картам
type CardController struct {
	cardService *services.CardService
	userService *services.UserService
	validate    *validator.Validate
}

// NewCardController создает новый экземпляр CardController
func NewCardController(cardService *services.CardService, userService *services.UserService) *CardController {
	return &CardController{
		cardService: cardService,
		userService: userService,
		validate:    validator.New(),
	}
}

// validateRequest валидирует DTO и возвращает ошибки валидации
func (c *CardController) validateRequest(dto interface{}) error {
	if err := c.validate.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "min":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно содержать не менее "+e.Param()+" символов")
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

// writeServiceError преобразует ошибку сервиса в HTTP статус
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, repository.ErrInvalidField), errors.Is(err, repository.ErrDuplicateCard):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeJSON отправляет JSON ответ
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// CreateCard обрабатывает запрос на создание карты
func (c *CardController) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req services.CardCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := c.validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	principal, err := c.userService.GetByID(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	card, err := c.cardService.CreateCard(req, principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

// GetCards возвращает все карты
func (c *CardController) GetCards(w http.ResponseWriter, r *http.Request) {
	cards, err := c.cardService.GetCards()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// GetCardByID возвращает карту по id
func (c *CardController) GetCardByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDVar(r, "id")
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	card, err := c.cardService.GetCardByID(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// GetCardByNumber возвращает карту по последним 4 цифрам номера
func (c *CardController) GetCardByNumber(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	card, err := c.cardService.GetCardBySuffix(number)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// GetCardsByUserID возвращает карты пользователя
func (c *CardController) GetCardsByUserID(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDVar(r, "userId")
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	cards, err := c.cardService.GetCardsByUserID(userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// UpdateStatusByID обновляет статус карты по id
func (c *CardController) UpdateStatusByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDVar(r, "cardId")
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	var req services.CardStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	card, err := c.cardService.UpdateStatusByID(id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// UpdateStatusByNumber обновляет статус карты по последним 4 цифрам
func (c *CardController) UpdateStatusByNumber(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	var req services.CardStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	card, err := c.cardService.UpdateStatusBySuffix(number, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCardByID удаляет карту по id
func (c *CardController) DeleteCardByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDVar(r, "cardId")
	if err != nil {
		http.Error(w, "Invalid card id", http.StatusBadRequest)
		return
	}

	if err := c.cardService.DeleteCardByID(id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCardByNumber удаляет карту по последним 4 цифрам
func (c *CardController) DeleteCardByNumber(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	if err := c.cardService.DeleteCardBySuffix(number); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCardsByBlockRequest возвращает карты с запросом на блокировку
func (c *CardController) GetCardsByBlockRequest(w http.ResponseWriter, r *http.Request) {
	cards, err := c.cardService.GetCardsByBlockRequest()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// FilterCards возвращает страницу карт с фильтрацией по email владельца
func (c *CardController) FilterCards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	offset := parseQueryInt(query.Get("offset"), 0)
	limit := parseQueryInt(query.Get("limit"), 10)
	sortField := query.Get("sort")
	email := query.Get("email")

	page, err := c.cardService.GetCardsPages(offset, limit, sortField, email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// parseIDVar извлекает числовой параметр из пути запроса
func parseIDVar(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// parseQueryInt разбирает числовой query-параметр со значением по умолчанию
func parseQueryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}
