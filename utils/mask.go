package utils

import (
	"strings"
	"unicode"
)

// MaskCardNumber маскирует номер карты: все группы, кроме последней,
// заменяются на "****". Например, "1111222233334444" -> "**** **** **** 4444".
// Если после удаления пробелов строка не состоит ровно из 16 цифр,
// она возвращается без изменений. Маскировать нужно ровно один раз,
// на этапе создания карты: повторная маскировка уже замаскированного
// номера дает мусор.
func MaskCardNumber(openNumber string) string {
	digits := stripSpaces(openNumber)
	if !isDigits(digits) || len(digits) != 16 {
		return digits
	}
	return "**** **** **** " + digits[12:]
}

// CardSuffix возвращает последние 4 цифры номера карты:
// публичный ключ поиска вместо полного номера
func CardSuffix(openNumber string) string {
	digits := stripSpaces(openNumber)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// stripSpaces убирает все пробельные символы из строки
func stripSpaces(s string) string {
	var b strings.Builder
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isDigits проверяет, что строка состоит только из цифр
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
