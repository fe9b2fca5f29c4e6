package services

import (
	"errors"
	"fmt"
	"log"

	"bankcards/models"
	"bankcards/repository"
	"bankcards/utils"

	"github.com/shopspring/decimal"
)

// transferRetryAttempts задает, сколько раз перевод повторяется при
// конфликте одновременной записи. Предусловия перепроверяются
// на каждой попытке по актуальным данным.
const transferRetryAttempts = 3

// CardBalanceChangeRequest представляет данные для перевода средств
// между картами. Карты задаются последними 4 цифрами номера.
type CardBalanceChangeRequest struct {
	CardNumberOut string          `json:"cardNumberOut" validate:"required,len=4,numeric"`
	CardNumberIn  string          `json:"cardNumberIn" validate:"required,len=4,numeric"`
	Amount        decimal.Decimal `json:"amount"`
}

// CardBalanceChangeResponse представляет результат перевода
type CardBalanceChangeResponse struct {
	CardNumberOut string          `json:"cardNumberOut"`
	BalanceOut    decimal.Decimal `json:"balanceOut"`
	CardNumberIn  string          `json:"cardNumberIn"`
	BalanceIn     decimal.Decimal `json:"balanceIn"`
}

// TransferService выполняет переводы между собственными картами
// пользователя. Проверка предусловий и изменение обоих балансов
// выполняются как одна атомарная операция хранилища: либо
// фиксируются оба обновления, либо ни одного.
type TransferService struct {
	cards repository.CardRepository
	email *EmailService
}

// NewTransferService создает новый экземпляр TransferService
func NewTransferService(cards repository.CardRepository, email *EmailService) *TransferService {
	return &TransferService{
		cards: cards,
		email: email,
	}
}

// Transfer переводит средства между двумя картами пользователя.
// Предусловия проверяются в фиксированном порядке, каждое нарушение
// возвращается отдельной ошибкой ErrInvalidField. Сумма балансов
// двух карт сохраняется точно: арифметика десятичная, без округления.
func (s *TransferService) Transfer(req CardBalanceChangeRequest, principal *models.User) (*CardBalanceChangeResponse, error) {
	// Перевод на ту же карту запрещен
	if req.CardNumberOut == req.CardNumberIn {
		return nil, fmt.Errorf("%w: нельзя переводить средства на ту же карту", repository.ErrInvalidField)
	}

	// Отрицательная сумма отклоняется, иначе перевод превращается
	// в списание с карты-получателя. Нулевая сумма допустима и
	// проходит без эффекта.
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: сумма перевода не может быть отрицательной", repository.ErrInvalidField)
	}

	var lastErr error
	for attempt := 0; attempt < transferRetryAttempts; attempt++ {
		sender, receiver, err := s.cards.Transfer(req.CardNumberOut, req.CardNumberIn, func(sender, receiver *models.Card) error {
			return s.applyTransfer(sender, receiver, req.Amount, principal)
		})
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				// Повторяем с перечитанными балансами
				utils.GetMetrics().RecordTransferRetry()
				lastErr = err
				continue
			}
			utils.GetMetrics().RecordTransfer(err)
			return nil, err
		}

		utils.GetMetrics().RecordTransfer(nil)

		// Квитанция о переводе; сбой отправки не влияет на результат
		if s.email != nil {
			if err := s.email.SendTransferNotification(
				principal.Email, sender.EncryptedNumber, receiver.EncryptedNumber, req.Amount,
			); err != nil {
				log.Printf("Ошибка отправки квитанции о переводе: %v", err)
			}
		}

		return &CardBalanceChangeResponse{
			CardNumberOut: sender.EncryptedNumber,
			BalanceOut:    sender.Balance,
			CardNumberIn:  receiver.EncryptedNumber,
			BalanceIn:     receiver.Balance,
		}, nil
	}

	utils.GetMetrics().RecordTransfer(lastErr)
	return nil, lastErr
}

// applyTransfer проверяет предусловия перевода и изменяет балансы.
// Вызывается внутри транзакции хранилища над заблокированными картами.
func (s *TransferService) applyTransfer(sender, receiver *models.Card, amount decimal.Decimal, principal *models.User) error {
	if sender == nil {
		return fmt.Errorf("%w: не найдена карта-отправитель", repository.ErrInvalidField)
	}
	if receiver == nil {
		return fmt.Errorf("%w: не найдена карта-получатель", repository.ErrInvalidField)
	}

	if sender.CardStatus == models.CardStatusBlocked || sender.CardStatus == models.CardStatusBlockRequest {
		return fmt.Errorf("%w: карта-отправитель заблокирована, вы не можете переводить с нее средства",
			repository.ErrInvalidField)
	}
	if receiver.CardStatus == models.CardStatusBlocked || receiver.CardStatus == models.CardStatusBlockRequest {
		return fmt.Errorf("%w: карта-получатель заблокирована, вы не можете зачислять на нее средства",
			repository.ErrInvalidField)
	}

	// Переводы разрешены только между собственными картами
	if sender.UserID != principal.ID || receiver.UserID != principal.ID {
		return fmt.Errorf("%w: вы можете переводить средства только между своими картами",
			repository.ErrInvalidField)
	}

	if amount.GreaterThan(sender.Balance) {
		return fmt.Errorf("%w: недостаточно средств для перевода", repository.ErrInvalidField)
	}

	sender.Balance = sender.Balance.Sub(amount)
	receiver.Balance = receiver.Balance.Add(amount)
	return nil
}
