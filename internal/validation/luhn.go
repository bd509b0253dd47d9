// Package validation содержит функции валидации входных данных.
package validation

import (
	"fmt"
	"math/rand/v2"
	"time"
	"unicode"
)

// IsValidOrderNumber проверяет корректность номера заказа по алгоритму Луна.
func IsValidOrderNumber(number string) bool {
	if number == "" {
		return false
	}

	sum, ok := luhnSum(number, false)
	if !ok {
		return false
	}

	return sum%10 == 0
}

// CheckDigit вычисляет контрольную цифру Луна для строки цифр.
func CheckDigit(digits string) (byte, bool) {
	if digits == "" {
		return 0, false
	}

	sum, ok := luhnSum(digits, true)
	if !ok {
		return 0, false
	}

	return byte('0' + (10-sum%10)%10), true
}

// GenerateOrderNumber формирует номер заказа из времени создания и случайного суффикса
// с контрольной цифрой Луна.
func GenerateOrderNumber(now time.Time) string {
	base := fmt.Sprintf("%d%03d", now.UnixMilli(), rand.IntN(1000))
	check, _ := CheckDigit(base)
	return base + string(check)
}

func luhnSum(number string, doubleFirst bool) (int, bool) {
	sum := 0
	double := doubleFirst

	for i := len(number) - 1; i >= 0; i-- {
		ch := rune(number[i])
		if !unicode.IsDigit(ch) {
			return 0, false
		}
		digit := int(ch - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum, true
}
