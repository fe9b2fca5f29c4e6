package services

import (
	"errors"
	"testing"

	"bankcards/models"
	"bankcards/repository"

	"github.com/shopspring/decimal"
)

// newCardServiceFixture создает сервис карт с хранилищами в памяти
// и одним зарегистрированным пользователем
func newCardServiceFixture(t *testing.T) (*CardService, *repository.MemoryCardRepository, *models.User) {
	t.Helper()

	cards := repository.NewMemoryCardRepository()
	users := repository.NewMemoryUserRepository()

	user := &models.User{
		Username: "ivanov",
		Email:    "ivanov@example.com",
		Password: "hash",
		Role:     models.RoleUser,
	}
	if err := users.Create(user); err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}

	return NewCardService(cards, users, nil), cards, user
}

func TestCreateCardMasksNumber(t *testing.T) {
	service, _, user := newCardServiceFixture(t)

	card, err := service.CreateCard(CardCreateRequest{
		OpenNumber:     "1111222233334444",
		ExpirationDate: "2030-01-31",
		Balance:        decimal.RequireFromString("500.00"),
	}, user)
	if err != nil {
		t.Fatalf("создание карты завершилось ошибкой: %v", err)
	}

	if card.EncryptedNumber != "**** **** **** 4444" {
		t.Errorf("маскированный номер: получено %q", card.EncryptedNumber)
	}
	if card.CardStatus != string(models.CardStatusActive) {
		t.Errorf("статус новой карты: получено %q, ожидалось ACTIVE", card.CardStatus)
	}
	if !card.Balance.Equal(decimal.RequireFromString("500.00")) {
		t.Errorf("баланс новой карты: получено %s", card.Balance)
	}
	if card.User.ID != user.ID {
		t.Errorf("владелец карты: получено %d, ожидалось %d", card.User.ID, user.ID)
	}
}

func TestCreateCardDuplicateSuffixRejected(t *testing.T) {
	service, cards, user := newCardServiceFixture(t)

	_, err := service.CreateCard(CardCreateRequest{
		OpenNumber:     "1111222233334444",
		ExpirationDate: "2030-01-31",
	}, user)
	if err != nil {
		t.Fatalf("создание первой карты завершилось ошибкой: %v", err)
	}

	// Другой полный номер, но те же последние 4 цифры
	_, err = service.CreateCard(CardCreateRequest{
		OpenNumber:     "9999888877774444",
		ExpirationDate: "2030-01-31",
	}, user)
	if !errors.Is(err, repository.ErrDuplicateCard) {
		t.Fatalf("ожидалась ErrDuplicateCard, получено: %v", err)
	}

	// Вторая карта не сохранена
	all, _ := cards.ListAll()
	if len(all) != 1 {
		t.Errorf("карт в хранилище: %d, ожидалась 1", len(all))
	}
}

func TestCreateCardNegativeBalanceRejected(t *testing.T) {
	service, _, user := newCardServiceFixture(t)

	_, err := service.CreateCard(CardCreateRequest{
		OpenNumber:     "1111222233334444",
		ExpirationDate: "2030-01-31",
		Balance:        decimal.RequireFromString("-1.00"),
	}, user)
	if !errors.Is(err, repository.ErrInvalidField) {
		t.Fatalf("отрицательный баланс: ожидалась ErrInvalidField, получено: %v", err)
	}
}

func TestCreateCardUnknownOwnerRejected(t *testing.T) {
	service, _, user := newCardServiceFixture(t)

	_, err := service.CreateCard(CardCreateRequest{
		OpenNumber:     "1111222233334444",
		ExpirationDate: "2030-01-31",
		UserID:         42,
	}, user)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("несуществующий владелец: ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestGetCardByIDNotFound(t *testing.T) {
	service, _, _ := newCardServiceFixture(t)

	_, err := service.GetCardByID(77)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestUpdateStatusBySuffix(t *testing.T) {
	service, _, user := newCardServiceFixture(t)

	_, err := service.CreateCard(CardCreateRequest{
		OpenNumber:     "1111222233334444",
		ExpirationDate: "2030-01-31",
	}, user)
	if err != nil {
		t.Fatalf("создание карты завершилось ошибкой: %v", err)
	}

	card, err := service.UpdateStatusBySuffix("4444", CardStatusRequest{CardStatus: models.CardStatusBlocked})
	if err != nil {
		t.Fatalf("обновление статуса завершилось ошибкой: %v", err)
	}
	if card.CardStatus != string(models.CardStatusBlocked) {
		t.Errorf("статус карты: получено %q, ожидалось BLOCKED", card.CardStatus)
	}
}

func TestDeleteCardBySuffix(t *testing.T) {
	service, cards, user := newCardServiceFixture(t)

	_, err := service.CreateCard(CardCreateRequest{
		OpenNumber:     "1111222233334444",
		ExpirationDate: "2030-01-31",
	}, user)
	if err != nil {
		t.Fatalf("создание карты завершилось ошибкой: %v", err)
	}

	if err := service.DeleteCardBySuffix("4444"); err != nil {
		t.Fatalf("удаление карты завершилось ошибкой: %v", err)
	}

	all, _ := cards.ListAll()
	if len(all) != 0 {
		t.Errorf("карт в хранилище после удаления: %d", len(all))
	}

	// Повторное удаление: карта уже не найдена
	if err := service.DeleteCardBySuffix("4444"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("повторное удаление: ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestRequestBlockAddsCardToQueue(t *testing.T) {
	service, _, user := newCardServiceFixture(t)

	_, err := service.CreateCard(CardCreateRequest{
		OpenNumber:     "1111222233334444",
		ExpirationDate: "2030-01-31",
	}, user)
	if err != nil {
		t.Fatalf("создание карты завершилось ошибкой: %v", err)
	}

	card, err := service.RequestBlock("4444", user)
	if err != nil {
		t.Fatalf("запрос блокировки завершился ошибкой: %v", err)
	}
	if card.CardStatus != string(models.CardStatusBlockRequest) {
		t.Errorf("статус карты: получено %q, ожидалось BLOCKREQUEST", card.CardStatus)
	}

	queue, err := service.GetCardsByBlockRequest()
	if err != nil {
		t.Fatalf("получение очереди блокировок завершилось ошибкой: %v", err)
	}
	if len(queue) != 1 || queue[0].EncryptedNumber != "**** **** **** 4444" {
		t.Errorf("очередь блокировок: %+v", queue)
	}
}

func TestGetCardsPagesFilterAfterPagination(t *testing.T) {
	service, cards, user := newCardServiceFixture(t)
	other := &models.User{ID: 2, Username: "petrov", Email: "petrov@example.com", Role: models.RoleUser}

	numbers := []string{"1111222233330001", "1111222233330002", "1111222233330003"}
	for _, n := range numbers {
		newTestCard(t, cards, n, "0.00", models.CardStatusActive, user)
	}
	newTestCard(t, cards, "1111222233330004", "0.00", models.CardStatusActive, other)

	page, err := service.GetCardsPages(0, 4, "id", "petrov@example.com")
	if err != nil {
		t.Fatalf("получение страницы завершилось ошибкой: %v", err)
	}

	// Фильтр по email применяется к уже выбранной странице,
	// поэтому totalElements отражает размер страницы до фильтра
	if len(page.Content) != 1 {
		t.Errorf("карт на странице после фильтра: %d, ожидалась 1", len(page.Content))
	}
	if page.TotalElements != 4 {
		t.Errorf("totalElements: получено %d, ожидалось 4", page.TotalElements)
	}
}
