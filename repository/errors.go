package repository

import "errors"

// Виды ошибок, возвращаемых хранилищем и сервисами.
// Контроллеры сопоставляют их с HTTP-статусами через errors.Is.
var (
	// ErrNotFound: карта или пользователь не найдены по заданному ключу
	ErrNotFound = errors.New("не найдено")

	// ErrInvalidField: нарушено предусловие операции
	// (отрицательный баланс, заблокированная карта, чужая карта и т.д.)
	ErrInvalidField = errors.New("некорректное значение поля")

	// ErrDuplicateCard: карта с таким суффиксом номера уже существует
	ErrDuplicateCard = errors.New("карта уже существует")

	// ErrConflict: конфликт одновременной записи на границе хранилища;
	// операция может быть повторена с актуальными данными
	ErrConflict = errors.New("конфликт одновременного доступа")
)
