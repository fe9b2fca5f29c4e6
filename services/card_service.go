package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bankcards/models"
	"bankcards/repository"
	"bankcards/utils"

	"github.com/shopspring/decimal"
)

// CardCreateRequest представляет данные для создания карты
type CardCreateRequest struct {
	OpenNumber     string          `json:"openNumber" validate:"required,min=16"`
	ExpirationDate string          `json:"expirationDate" validate:"required"`
	Balance        decimal.Decimal `json:"balance"`
	UserID         uint            `json:"userId"` // при 0 карта создается для текущего пользователя
}

// CardStatusRequest представляет данные для обновления статуса карты
type CardStatusRequest struct {
	CardStatus models.CardStatus `json:"cardStatus" validate:"required"`
}

// CardResponse представляет данные карты для ответа
type CardResponse struct {
	ID              uint            `json:"id"`
	EncryptedNumber string          `json:"encryptedNumber"`
	ExpirationDate  string          `json:"expirationDate"`
	CardStatus      string          `json:"cardStatus"`
	Balance         decimal.Decimal `json:"balance"`
	User            UserDTO         `json:"user"`
}

// CardPage представляет страницу карт.
// TotalElements считается по выбранной странице до применения фильтра
// по email владельца, поэтому при сочетании фильтра с пагинацией
// итог может занижать число совпадений.
type CardPage struct {
	Content       []CardResponse `json:"content"`
	Offset        int            `json:"offset"`
	Limit         int            `json:"limit"`
	TotalElements int            `json:"totalElements"`
}

// CardService предоставляет операции жизненного цикла карт:
// создание, поиск, смена статуса, удаление, запрос блокировки
type CardService struct {
	cards repository.CardRepository
	users repository.UserRepository
	email *EmailService
}

// NewCardService создает новый экземпляр CardService
func NewCardService(cards repository.CardRepository, users repository.UserRepository, email *EmailService) *CardService {
	return &CardService{
		cards: cards,
		users: users,
		email: email,
	}
}

// CreateCard создает новую карту. Статус по умолчанию ACTIVE,
// маскированный номер вычисляется один раз из открытого номера.
// Если userId не указан, карта назначается текущему пользователю.
func (s *CardService) CreateCard(req CardCreateRequest, principal *models.User) (*CardResponse, error) {
	// Проверяем начальный баланс
	if req.Balance.IsNegative() {
		return nil, fmt.Errorf("%w: баланс карты не может быть отрицательным", repository.ErrInvalidField)
	}

	// Уникальность проверяется по последним 4 цифрам номера:
	// по ним же выполняется поиск карт
	suffix := utils.CardSuffix(req.OpenNumber)
	exists, err := s.cards.ExistsBySuffix(suffix)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: карта с номером **** **** **** %s уже существует",
			repository.ErrDuplicateCard, suffix)
	}

	// Определяем владельца карты
	owner := principal
	if req.UserID != 0 {
		owner, err = s.users.GetByID(req.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: пользователь с id %d не найден", repository.ErrNotFound, req.UserID)
			}
			return nil, err
		}
	}

	expirationDate, err := time.Parse("2006-01-02", req.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("%w: неверный формат даты истечения срока действия", repository.ErrInvalidField)
	}

	card := &models.Card{
		OpenNumber:      req.OpenNumber,
		EncryptedNumber: utils.MaskCardNumber(req.OpenNumber),
		ExpirationDate:  expirationDate,
		CardStatus:      models.CardStatusActive,
		Balance:         req.Balance,
		UserID:          owner.ID,
		User:            *owner,
	}

	err = s.cards.Create(card)
	utils.GetMetrics().RecordCardOperation("create", err)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCard) {
			return nil, fmt.Errorf("%w: карта с номером **** **** **** %s уже существует",
				repository.ErrDuplicateCard, suffix)
		}
		return nil, err
	}

	response := toCardResponse(card)
	return &response, nil
}

// GetCardByID возвращает карту по id
func (s *CardService) GetCardByID(id uint) (*CardResponse, error) {
	card, err := s.cards.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: карта с id %d не найдена", repository.ErrNotFound, id)
		}
		return nil, err
	}
	response := toCardResponse(card)
	return &response, nil
}

// GetCardBySuffix возвращает карту по последним 4 цифрам номера
func (s *CardService) GetCardBySuffix(suffix string) (*CardResponse, error) {
	card, err := s.cards.GetBySuffix(suffix)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, cardNotFoundErr(suffix)
		}
		return nil, err
	}
	response := toCardResponse(card)
	return &response, nil
}

// GetCards возвращает список всех карт
func (s *CardService) GetCards() ([]CardResponse, error) {
	cards, err := s.cards.ListAll()
	if err != nil {
		return nil, err
	}
	return toCardResponseList(cards), nil
}

// GetCardsByUserID возвращает все карты пользователя
func (s *CardService) GetCardsByUserID(userID uint) ([]CardResponse, error) {
	cards, err := s.cards.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	return toCardResponseList(cards), nil
}

// GetCardsPages возвращает страницу карт с необязательным фильтром
// по email владельца. Фильтр применяется к уже выбранной странице,
// поэтому отфильтрованная страница может быть неполной.
func (s *CardService) GetCardsPages(offset, limit int, sortField, ownerEmail string) (*CardPage, error) {
	cards, err := s.cards.ListPage(offset, limit, sortField)
	if err != nil {
		return nil, err
	}

	total := len(cards)
	if ownerEmail != "" {
		var filtered []models.Card
		for _, card := range cards {
			if card.User.Email == ownerEmail {
				filtered = append(filtered, card)
			}
		}
		cards = filtered
	}

	return &CardPage{
		Content:       toCardResponseList(cards),
		Offset:        offset,
		Limit:         limit,
		TotalElements: total,
	}, nil
}

// UpdateStatusByID безусловно устанавливает статус карты по id
func (s *CardService) UpdateStatusByID(id uint, req CardStatusRequest) (*CardResponse, error) {
	if !req.CardStatus.IsValid() {
		return nil, fmt.Errorf("%w: недопустимый статус карты %q", repository.ErrInvalidField, req.CardStatus)
	}

	card, err := s.cards.UpdateStatusByID(id, req.CardStatus)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: карта с id %d не найдена", repository.ErrNotFound, id)
		}
		return nil, err
	}
	response := toCardResponse(card)
	return &response, nil
}

// UpdateStatusBySuffix безусловно устанавливает статус карты по суффиксу номера
func (s *CardService) UpdateStatusBySuffix(suffix string, req CardStatusRequest) (*CardResponse, error) {
	if !req.CardStatus.IsValid() {
		return nil, fmt.Errorf("%w: недопустимый статус карты %q", repository.ErrInvalidField, req.CardStatus)
	}

	card, err := s.cards.UpdateStatusBySuffix(suffix, req.CardStatus)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, cardNotFoundErr(suffix)
		}
		return nil, err
	}
	response := toCardResponse(card)
	return &response, nil
}

// DeleteCardByID жестко удаляет карту по id
func (s *CardService) DeleteCardByID(id uint) error {
	err := s.cards.DeleteByID(id)
	utils.GetMetrics().RecordCardOperation("delete", err)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: карта с id %d не найдена", repository.ErrNotFound, id)
	}
	return err
}

// DeleteCardBySuffix жестко удаляет карту по суффиксу номера
func (s *CardService) DeleteCardBySuffix(suffix string) error {
	err := s.cards.DeleteBySuffix(suffix)
	utils.GetMetrics().RecordCardOperation("delete", err)
	if errors.Is(err, repository.ErrNotFound) {
		return cardNotFoundErr(suffix)
	}
	return err
}

// RequestBlock обрабатывает запрос пользователя на блокировку карты:
// статус меняется на BLOCKREQUEST независимо от текущего статуса.
// Принадлежность карты отправителю запроса не проверяется.
func (s *CardService) RequestBlock(suffix string, principal *models.User) (*CardResponse, error) {
	card, err := s.cards.UpdateStatusBySuffix(suffix, models.CardStatusBlockRequest)
	utils.GetMetrics().RecordCardOperation("block", err)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, cardNotFoundErr(suffix)
		}
		return nil, err
	}

	// Уведомляем администратора; сбой отправки не влияет на результат
	if s.email != nil {
		if err := s.email.SendBlockRequestNotification(card.EncryptedNumber, principal.Username); err != nil {
			log.Printf("Ошибка отправки уведомления о запросе блокировки: %v", err)
		}
	}

	response := toCardResponse(card)
	return &response, nil
}

// GetCardsByBlockRequest возвращает карты со статусом BLOCKREQUEST:
// очередь на блокировку для администратора
func (s *CardService) GetCardsByBlockRequest() ([]CardResponse, error) {
	cards, err := s.cards.ListByStatus(models.CardStatusBlockRequest)
	if err != nil {
		return nil, err
	}
	return toCardResponseList(cards), nil
}

// Вспомогательные методы

func cardNotFoundErr(suffix string) error {
	return fmt.Errorf("%w: карта с номером **** **** **** %s не найдена", repository.ErrNotFound, suffix)
}

func toCardResponse(card *models.Card) CardResponse {
	return CardResponse{
		ID:              card.ID,
		EncryptedNumber: card.EncryptedNumber,
		ExpirationDate:  card.ExpirationDate.Format("2006-01-02"),
		CardStatus:      string(card.CardStatus),
		Balance:         card.Balance,
		User: UserDTO{
			ID:       card.User.ID,
			Username: card.User.Username,
			Email:    card.User.Email,
			Role:     string(card.User.Role),
		},
	}
}

func toCardResponseList(cards []models.Card) []CardResponse {
	responses := make([]CardResponse, 0, len(cards))
	for i := range cards {
		responses = append(responses, toCardResponse(&cards[i]))
	}
	return responses
}
