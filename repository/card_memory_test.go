package repository

import (
	"errors"
	"testing"

	"bankcards/models"

	"github.com/shopspring/decimal"
)

func seedCard(t *testing.T, repo *MemoryCardRepository, open, masked string) *models.Card {
	t.Helper()

	card := &models.Card{
		OpenNumber:      open,
		EncryptedNumber: masked,
		CardStatus:      models.CardStatusActive,
		Balance:         decimal.Zero,
		UserID:          1,
	}
	if err := repo.Create(card); err != nil {
		t.Fatalf("не удалось создать карту: %v", err)
	}
	return card
}

func TestGetBySuffixPrefersLowestID(t *testing.T) {
	repo := NewMemoryCardRepository()

	first := seedCard(t, repo, "1111222233334444", "**** **** **** 4444")
	// Номер не из 16 цифр хранится без маскирования и дает тот же суффикс
	seedCard(t, repo, "99994444", "99994444")

	// При неоднозначном суффиксе выбирается карта с наименьшим id
	card, err := repo.GetBySuffix("4444")
	if err != nil {
		t.Fatalf("поиск по суффиксу завершился ошибкой: %v", err)
	}
	if card.ID != first.ID {
		t.Errorf("id найденной карты: %d, ожидалось %d", card.ID, first.ID)
	}
}

func TestGetBySuffixNotFound(t *testing.T) {
	repo := NewMemoryCardRepository()

	_, err := repo.GetBySuffix("0000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидалась ErrNotFound, получено: %v", err)
	}
}

func TestCreateDuplicateNumberRejected(t *testing.T) {
	repo := NewMemoryCardRepository()
	seedCard(t, repo, "1111222233334444", "**** **** **** 4444")

	err := repo.Create(&models.Card{
		OpenNumber:      "1111222233334444",
		EncryptedNumber: "**** **** **** 4444",
		CardStatus:      models.CardStatusActive,
		Balance:         decimal.Zero,
		UserID:          1,
	})
	if !errors.Is(err, ErrDuplicateCard) {
		t.Fatalf("ожидалась ErrDuplicateCard, получено: %v", err)
	}
}

func TestTransferRollsBackOnError(t *testing.T) {
	repo := NewMemoryCardRepository()
	seedCard(t, repo, "1111222233334444", "**** **** **** 4444")
	seedCard(t, repo, "5555666677778888", "**** **** **** 8888")

	wantErr := errors.New("отказ проверки")
	_, _, err := repo.Transfer("4444", "8888", func(sender, receiver *models.Card) error {
		sender.Balance = decimal.RequireFromString("-100.00")
		receiver.Balance = decimal.RequireFromString("100.00")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("ожидалась ошибка обратного вызова, получено: %v", err)
	}

	// Изменения не зафиксированы
	sender, _ := repo.GetBySuffix("4444")
	receiver, _ := repo.GetBySuffix("8888")
	if !sender.Balance.IsZero() || !receiver.Balance.IsZero() {
		t.Errorf("балансы изменились после отката: %s, %s", sender.Balance, receiver.Balance)
	}
}
