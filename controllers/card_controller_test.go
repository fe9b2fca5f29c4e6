package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bankcards/models"
	"bankcards/repository"
	"bankcards/services"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type controllerFixture struct {
	cards    *repository.MemoryCardRepository
	users    *repository.MemoryUserRepository
	card     *CardController
	user     *UserController
	adminID  uint
	clientID uint
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	cards := repository.NewMemoryCardRepository()
	users := repository.NewMemoryUserRepository()

	admin := &models.User{Username: "admin", Email: "admin@example.com", Password: "hash", Role: models.RoleAdmin}
	if err := users.Create(admin); err != nil {
		t.Fatalf("не удалось создать администратора: %v", err)
	}
	client := &models.User{Username: "ivanov", Email: "ivanov@example.com", Password: "hash", Role: models.RoleUser}
	if err := users.Create(client); err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}

	userService := services.NewUserService(users)
	cardService := services.NewCardService(cards, users, nil)
	transferService := services.NewTransferService(cards, nil)

	return &controllerFixture{
		cards:    cards,
		users:    users,
		card:     NewCardController(cardService, userService),
		user:     NewUserController(cardService, transferService, userService),
		adminID:  admin.ID,
		clientID: client.ID,
	}
}

// authorized добавляет в контекст запроса данные пользователя,
// как это делает AuthMiddleware
func authorized(r *http.Request, userID uint) *http.Request {
	ctx := context.WithValue(r.Context(), "user_id", userID)
	return r.WithContext(ctx)
}

func (f *controllerFixture) createCard(t *testing.T, number string, balance string, userID uint) services.CardResponse {
	t.Helper()

	body, _ := json.Marshal(map[string]interface{}{
		"openNumber":     number,
		"expirationDate": "2030-01-31",
		"balance":        balance,
		"userId":         userID,
	})
	req := authorized(httptest.NewRequest("POST", "/api/v1/admin/cards/create-card", bytes.NewReader(body)), f.adminID)
	rr := httptest.NewRecorder()

	f.card.CreateCard(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("создание карты: статус %d, тело: %s", rr.Code, rr.Body.String())
	}

	var resp services.CardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	return resp
}

func TestCreateCardEndpoint(t *testing.T) {
	f := newControllerFixture(t)

	resp := f.createCard(t, "1111222233334444", "250.00", f.clientID)

	if resp.EncryptedNumber != "**** **** **** 4444" {
		t.Errorf("маскированный номер: %q", resp.EncryptedNumber)
	}
	if resp.CardStatus != "ACTIVE" {
		t.Errorf("статус: %q", resp.CardStatus)
	}
	if resp.User.Email != "ivanov@example.com" {
		t.Errorf("владелец: %q", resp.User.Email)
	}
}

func TestCreateCardDuplicateReturns400(t *testing.T) {
	f := newControllerFixture(t)
	f.createCard(t, "1111222233334444", "0", f.clientID)

	body, _ := json.Marshal(map[string]interface{}{
		"openNumber":     "9999888877774444",
		"expirationDate": "2030-01-31",
	})
	req := authorized(httptest.NewRequest("POST", "/api/v1/admin/cards/create-card", bytes.NewReader(body)), f.adminID)
	rr := httptest.NewRecorder()

	f.card.CreateCard(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("повторный суффикс: статус %d, ожидалось 400", rr.Code)
	}
}

func TestGetCardByIDReturns404(t *testing.T) {
	f := newControllerFixture(t)

	req := httptest.NewRequest("GET", "/api/v1/admin/cards/card-id/99", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "99"})
	rr := httptest.NewRecorder()

	f.card.GetCardByID(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("статус: %d, ожидалось 404", rr.Code)
	}
}

func TestDeleteCardReturns204(t *testing.T) {
	f := newControllerFixture(t)
	created := f.createCard(t, "1111222233334444", "0", f.clientID)

	req := httptest.NewRequest("DELETE", "/api/v1/admin/cards/delete-card-number/4444", nil)
	req = mux.SetURLVars(req, map[string]string{"number": "4444"})
	rr := httptest.NewRecorder()

	f.card.DeleteCardByNumber(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("статус: %d, ожидалось 204", rr.Code)
	}

	if _, err := f.cards.GetByID(created.ID); err == nil {
		t.Error("карта осталась в хранилище после удаления")
	}
}

func TestChangeBalanceEndpoint(t *testing.T) {
	f := newControllerFixture(t)
	f.createCard(t, "1111222233334444", "123.40", f.clientID)
	f.createCard(t, "5555666677778888", "10.00", f.clientID)

	body, _ := json.Marshal(map[string]string{
		"cardNumberOut": "4444",
		"cardNumberIn":  "8888",
		"amount":        "50.00",
	})
	req := authorized(httptest.NewRequest("POST", "/api/v1/cards/change-balance", bytes.NewReader(body)), f.clientID)
	rr := httptest.NewRecorder()

	f.user.ChangeBalance(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("статус: %d, тело: %s", rr.Code, rr.Body.String())
	}

	var resp services.CardBalanceChangeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if !resp.BalanceOut.Equal(decimal.RequireFromString("73.40")) {
		t.Errorf("баланс отправителя: %s, ожидалось 73.40", resp.BalanceOut)
	}
	if !resp.BalanceIn.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("баланс получателя: %s, ожидалось 60.00", resp.BalanceIn)
	}
}

func TestChangeBalanceInsufficientFundsReturns400(t *testing.T) {
	f := newControllerFixture(t)
	f.createCard(t, "1111222233334444", "100.00", f.clientID)
	f.createCard(t, "5555666677778888", "0", f.clientID)

	body, _ := json.Marshal(map[string]string{
		"cardNumberOut": "4444",
		"cardNumberIn":  "8888",
		"amount":        "150.00",
	})
	req := authorized(httptest.NewRequest("POST", "/api/v1/cards/change-balance", bytes.NewReader(body)), f.clientID)
	rr := httptest.NewRecorder()

	f.user.ChangeBalance(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус: %d, ожидалось 400", rr.Code)
	}
}

func TestChangeBalanceValidationReturns400(t *testing.T) {
	f := newControllerFixture(t)

	// Суффикс короче 4 цифр не проходит валидацию
	body, _ := json.Marshal(map[string]string{
		"cardNumberOut": "44",
		"cardNumberIn":  "8888",
		"amount":        "10.00",
	})
	req := authorized(httptest.NewRequest("POST", "/api/v1/cards/change-balance", bytes.NewReader(body)), f.clientID)
	rr := httptest.NewRecorder()

	f.user.ChangeBalance(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("статус: %d, ожидалось 400", rr.Code)
	}
}

func TestGetMyCardsEndpoint(t *testing.T) {
	f := newControllerFixture(t)
	f.createCard(t, "1111222233334444", "0", f.clientID)
	f.createCard(t, "5555666677778888", "0", f.adminID)

	req := authorized(httptest.NewRequest("GET", "/api/v1/cards/my-cards", nil), f.clientID)
	rr := httptest.NewRecorder()

	f.user.GetMyCards(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("статус: %d", rr.Code)
	}

	var resp []services.CardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if len(resp) != 1 || resp[0].EncryptedNumber != "**** **** **** 4444" {
		t.Errorf("карты пользователя: %+v", resp)
	}
}

func TestRequestBlockEndpoint(t *testing.T) {
	f := newControllerFixture(t)
	f.createCard(t, "1111222233334444", "0", f.clientID)

	req := authorized(httptest.NewRequest("PATCH", "/api/v1/cards/block-request/4444", nil), f.clientID)
	req = mux.SetURLVars(req, map[string]string{"number": "4444"})
	rr := httptest.NewRecorder()

	f.user.RequestBlock(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("статус: %d, тело: %s", rr.Code, rr.Body.String())
	}

	var resp services.CardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("не удалось разобрать ответ: %v", err)
	}
	if resp.CardStatus != "BLOCKREQUEST" {
		t.Errorf("статус карты: %q, ожидалось BLOCKREQUEST", resp.CardStatus)
	}
}
