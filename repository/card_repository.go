package repository

import (
	"bankcards/models"
)

// TransferFunc выполняется над двумя заблокированными на запись картами
// внутри транзакции перевода. Если карта не найдена, соответствующий
// аргумент равен nil, проверку выполняет вызывающая сторона.
// Возврат ошибки откатывает транзакцию целиком: ни одно из изменений
// балансов не сохраняется.
type TransferFunc func(sender, receiver *models.Card) error

// CardRepository определяет порт хранилища карт. Продакшен-реализация работает
// поверх PostgreSQL (GormCardRepository), для тестов используется
// реализация в памяти (MemoryCardRepository).
type CardRepository interface {
	// Create сохраняет новую карту. Нарушение уникальности номера
	// возвращается как ErrDuplicateCard.
	Create(card *models.Card) error

	// GetByID возвращает карту по id или ErrNotFound
	GetByID(id uint) (*models.Card, error)

	// GetBySuffix возвращает карту по последним 4 цифрам номера.
	// При нескольких совпадениях возвращается карта с наименьшим id.
	GetBySuffix(suffix string) (*models.Card, error)

	// ExistsBySuffix проверяет, есть ли карта с таким суффиксом номера
	ExistsBySuffix(suffix string) (bool, error)

	// ListAll возвращает все карты
	ListAll() ([]models.Card, error)

	// ListByUserID возвращает все карты пользователя
	ListByUserID(userID uint) ([]models.Card, error)

	// ListByStatus возвращает все карты с заданным статусом
	ListByStatus(status models.CardStatus) ([]models.Card, error)

	// ListPage возвращает страницу карт с сортировкой по полю sortField
	ListPage(offset, limit int, sortField string) ([]models.Card, error)

	// UpdateStatusByID безусловно устанавливает статус карты
	UpdateStatusByID(id uint, status models.CardStatus) (*models.Card, error)

	// UpdateStatusBySuffix безусловно устанавливает статус карты,
	// найденной по суффиксу номера
	UpdateStatusBySuffix(suffix string, status models.CardStatus) (*models.Card, error)

	// DeleteByID жестко удаляет карту
	DeleteByID(id uint) error

	// DeleteBySuffix жестко удаляет карту, найденную по суффиксу номера
	DeleteBySuffix(suffix string) error

	// Transfer атомарно выполняет fn над картами отправителя и получателя:
	// либо фиксируются оба обновленных баланса, либо ни одного.
	// Одновременные переводы, затрагивающие одни и те же карты,
	// сериализуются на границе хранилища; обнаруженный конфликт записи
	// возвращается как ErrConflict и может быть повторен.
	Transfer(senderSuffix, receiverSuffix string, fn TransferFunc) (*models.Card, *models.Card, error)
}

// UserRepository определяет порт хранилища пользователей
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	ExistsByUsername(username string) (bool, error)
	ExistsByEmail(email string) (bool, error)
	ListAll() ([]models.User, error)
	ListPage(offset, limit int, sortField string) ([]models.User, error)
}
