package repository

import (
	"sort"
	"strings"
	"sync"

	"bankcards/models"
)

// MemoryCardRepository реализует CardRepository в памяти.
// Используется в тестах вместо PostgreSQL: карта хранится по id,
// мьютекс хранилища сериализует переводы, поэтому проверка баланса
// и списание выполняются как одна атомарная операция.
type MemoryCardRepository struct {
	mu     sync.RWMutex
	cards  map[uint]*models.Card
	nextID uint
}

// NewMemoryCardRepository создает новый экземпляр MemoryCardRepository
func NewMemoryCardRepository() *MemoryCardRepository {
	return &MemoryCardRepository{
		cards:  make(map[uint]*models.Card),
		nextID: 1,
	}
}

// Create сохраняет новую карту
func (r *MemoryCardRepository) Create(card *models.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.cards {
		if c.OpenNumber == card.OpenNumber || c.EncryptedNumber == card.EncryptedNumber {
			return ErrDuplicateCard
		}
	}

	card.ID = r.nextID
	r.nextID++
	stored := *card
	r.cards[card.ID] = &stored
	return nil
}

// GetByID возвращает карту по id
func (r *MemoryCardRepository) GetByID(id uint) (*models.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card, ok := r.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *card
	return &copied, nil
}

// GetBySuffix возвращает карту по последним 4 цифрам номера.
// При нескольких совпадениях выбирается карта с наименьшим id.
func (r *MemoryCardRepository) GetBySuffix(suffix string) (*models.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	card := r.findBySuffix(suffix)
	if card == nil {
		return nil, ErrNotFound
	}
	copied := *card
	return &copied, nil
}

// ExistsBySuffix проверяет, есть ли карта с таким суффиксом номера
func (r *MemoryCardRepository) ExistsBySuffix(suffix string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findBySuffix(suffix) != nil, nil
}

// ListAll возвращает все карты
func (r *MemoryCardRepository) ListAll() ([]models.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cards := make([]models.Card, 0, len(r.cards))
	for _, id := range r.sortedIDs() {
		cards = append(cards, *r.cards[id])
	}
	return cards, nil
}

// ListByUserID возвращает все карты пользователя
func (r *MemoryCardRepository) ListByUserID(userID uint) ([]models.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cards []models.Card
	for _, id := range r.sortedIDs() {
		if r.cards[id].UserID == userID {
			cards = append(cards, *r.cards[id])
		}
	}
	return cards, nil
}

// ListByStatus возвращает все карты с заданным статусом
func (r *MemoryCardRepository) ListByStatus(status models.CardStatus) ([]models.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cards []models.Card
	for _, id := range r.sortedIDs() {
		if r.cards[id].CardStatus == status {
			cards = append(cards, *r.cards[id])
		}
	}
	return cards, nil
}

// ListPage возвращает страницу карт; в памяти сортировка
// поддерживается только по id
func (r *MemoryCardRepository) ListPage(offset, limit int, sortField string) ([]models.Card, error) {
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}

	start := offset * limit
	if start >= len(all) {
		return []models.Card{}, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// UpdateStatusByID безусловно устанавливает статус карты
func (r *MemoryCardRepository) UpdateStatusByID(id uint, status models.CardStatus) (*models.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return nil, ErrNotFound
	}
	card.CardStatus = status
	copied := *card
	return &copied, nil
}

// UpdateStatusBySuffix безусловно устанавливает статус карты по суффиксу номера
func (r *MemoryCardRepository) UpdateStatusBySuffix(suffix string, status models.CardStatus) (*models.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card := r.findBySuffix(suffix)
	if card == nil {
		return nil, ErrNotFound
	}
	card.CardStatus = status
	copied := *card
	return &copied, nil
}

// DeleteByID жестко удаляет карту
func (r *MemoryCardRepository) DeleteByID(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[id]; !ok {
		return ErrNotFound
	}
	delete(r.cards, id)
	return nil
}

// DeleteBySuffix жестко удаляет карту по суффиксу номера
func (r *MemoryCardRepository) DeleteBySuffix(suffix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	card := r.findBySuffix(suffix)
	if card == nil {
		return ErrNotFound
	}
	delete(r.cards, card.ID)
	return nil
}

// Transfer атомарно выполняет fn над картами отправителя и получателя.
// Мьютекс хранилища держится на все время операции: fn применяется
// к копиям, и только при успехе изменения балансов записываются
// обратно, поэтому частичный эффект невозможен.
func (r *MemoryCardRepository) Transfer(senderSuffix, receiverSuffix string, fn TransferFunc) (*models.Card, *models.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sender, receiver *models.Card
	if stored := r.findBySuffix(senderSuffix); stored != nil {
		copied := *stored
		sender = &copied
	}
	if stored := r.findBySuffix(receiverSuffix); stored != nil {
		copied := *stored
		receiver = &copied
	}

	if err := fn(sender, receiver); err != nil {
		return nil, nil, err
	}

	committedSender := *sender
	committedReceiver := *receiver
	r.cards[sender.ID] = &committedSender
	r.cards[receiver.ID] = &committedReceiver
	return sender, receiver, nil
}

// findBySuffix ищет карту по суффиксу маскированного номера,
// перебирая id по возрастанию. Вызывается под мьютексом.
func (r *MemoryCardRepository) findBySuffix(suffix string) *models.Card {
	for _, id := range r.sortedIDs() {
		if strings.HasSuffix(r.cards[id].EncryptedNumber, suffix) {
			return r.cards[id]
		}
	}
	return nil
}

// sortedIDs возвращает id карт по возрастанию. Вызывается под мьютексом.
func (r *MemoryCardRepository) sortedIDs() []uint {
	ids := make([]uint, 0, len(r.cards))
	for id := range r.cards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
