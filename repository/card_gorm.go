package repository

import (
	"errors"
	"fmt"

	"bankcards/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Допустимые поля сортировки для постраничных выборок
var allowedSortFields = map[string]bool{
	"id":              true,
	"balance":         true,
	"expiration_date": true,
	"status":          true,
}

// GormCardRepository реализует CardRepository поверх PostgreSQL.
// Атомарность перевода обеспечивается транзакцией с блокировкой
// строк SELECT ... FOR UPDATE.
type GormCardRepository struct {
	db *gorm.DB
}

// NewGormCardRepository создает новый экземпляр GormCardRepository
func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

// Create сохраняет новую карту
func (r *GormCardRepository) Create(card *models.Card) error {
	if err := r.db.Omit("User").Create(card).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCard
		}
		return fmt.Errorf("не удалось сохранить карту: %w", err)
	}
	// Подгружаем владельца для ответа
	return r.db.Preload("User").First(card, card.ID).Error
}

// GetByID возвращает карту по id
func (r *GormCardRepository) GetByID(id uint) (*models.Card, error) {
	var card models.Card
	if err := r.db.Preload("User").First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &card, nil
}

// GetBySuffix возвращает карту по последним 4 цифрам номера.
// При нескольких совпадениях детерминированно выбирается карта
// с наименьшим id.
func (r *GormCardRepository) GetBySuffix(suffix string) (*models.Card, error) {
	var card models.Card
	err := r.db.Preload("User").
		Where("encrypted_number LIKE ?", "%"+suffix).
		Order("id").
		First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &card, nil
}

// ExistsBySuffix проверяет, есть ли карта с таким суффиксом номера
func (r *GormCardRepository) ExistsBySuffix(suffix string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Card{}).
		Where("encrypted_number LIKE ?", "%"+suffix).
		Count(&count).Error
	return count > 0, err
}

// ListAll возвращает все карты
func (r *GormCardRepository) ListAll() ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.Preload("User").Order("id").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListByUserID возвращает все карты пользователя
func (r *GormCardRepository) ListByUserID(userID uint) ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.Preload("User").Where("user_id = ?", userID).Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListByStatus возвращает все карты с заданным статусом
func (r *GormCardRepository) ListByStatus(status models.CardStatus) ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.Preload("User").Where("status = ?", status).Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListPage возвращает страницу карт
func (r *GormCardRepository) ListPage(offset, limit int, sortField string) ([]models.Card, error) {
	if !allowedSortFields[sortField] {
		sortField = "id"
	}
	var cards []models.Card
	err := r.db.Preload("User").
		Order(sortField).
		Offset(offset * limit).
		Limit(limit).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// UpdateStatusByID безусловно устанавливает статус карты
func (r *GormCardRepository) UpdateStatusByID(id uint, status models.CardStatus) (*models.Card, error) {
	card, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Card{}).Where("id = ?", card.ID).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("не удалось обновить статус карты: %w", err)
	}
	card.CardStatus = status
	return card, nil
}

// UpdateStatusBySuffix безусловно устанавливает статус карты по суффиксу номера
func (r *GormCardRepository) UpdateStatusBySuffix(suffix string, status models.CardStatus) (*models.Card, error) {
	card, err := r.GetBySuffix(suffix)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Card{}).Where("id = ?", card.ID).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("не удалось обновить статус карты: %w", err)
	}
	card.CardStatus = status
	return card, nil
}

// DeleteByID жестко удаляет карту
func (r *GormCardRepository) DeleteByID(id uint) error {
	card, err := r.GetByID(id)
	if err != nil {
		return err
	}
	return r.db.Delete(card).Error
}

// DeleteBySuffix жестко удаляет карту по суффиксу номера
func (r *GormCardRepository) DeleteBySuffix(suffix string) error {
	card, err := r.GetBySuffix(suffix)
	if err != nil {
		return err
	}
	return r.db.Delete(card).Error
}

// Transfer атомарно выполняет fn над заблокированными картами.
// Обе строки читаются с SELECT ... FOR UPDATE: параллельные переводы,
// затрагивающие те же карты, ждут завершения транзакции, поэтому
// проверка достаточности средств и последующее списание не могут
// чередоваться с чтением баланса другим переводом. Дедлок или сбой
// сериализации возвращаются как ErrConflict для повторной попытки.
func (r *GormCardRepository) Transfer(senderSuffix, receiverSuffix string, fn TransferFunc) (*models.Card, *models.Card, error) {
	var sender, receiver *models.Card

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		sender, err = lockBySuffix(tx, senderSuffix)
		if err != nil {
			return err
		}
		receiver, err = lockBySuffix(tx, receiverSuffix)
		if err != nil {
			return err
		}

		if err := fn(sender, receiver); err != nil {
			return err
		}

		if err := tx.Model(&models.Card{}).Where("id = ?", sender.ID).
			Update("balance", sender.Balance).Error; err != nil {
			return fmt.Errorf("не удалось сохранить баланс карты-отправителя: %w", err)
		}
		if err := tx.Model(&models.Card{}).Where("id = ?", receiver.ID).
			Update("balance", receiver.Balance).Error; err != nil {
			return fmt.Errorf("не удалось сохранить баланс карты-получателя: %w", err)
		}
		return nil
	})
	if err != nil {
		if isConcurrencyFailure(err) {
			return nil, nil, ErrConflict
		}
		return nil, nil, err
	}
	return sender, receiver, nil
}

// lockBySuffix читает карту по суффиксу с блокировкой строки на запись.
// Отсутствие карты возвращается как nil без ошибки; остальные ошибки,
// в том числе дедлок при захвате блокировки, отдаются вызывающему,
// чтобы транзакция откатилась и перевод был повторен.
func lockBySuffix(tx *gorm.DB, suffix string) (*models.Card, error) {
	var card models.Card
	err := tx.Preload("User").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("encrypted_number LIKE ?", "%"+suffix).
		Order("id").
		First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// isUniqueViolation проверяет нарушение уникального ограничения
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isConcurrencyFailure проверяет дедлок и сбой сериализации
func isConcurrencyFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
