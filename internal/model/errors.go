package model

import "errors"

var (
	// ErrNotFound возвращается, если заказ, заметка или складская запись не найдены.
	ErrNotFound = errors.New("not found")
	// ErrValidation возвращается при некорректных входных данных.
	ErrValidation = errors.New("validation error")
	// ErrInvalidTransition возвращается при попытке перехода, отсутствующего в таблице переходов.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInsufficientStock возвращается, если доступного остатка не хватает для резерва.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientReservation возвращается, если резерва не хватает для снятия или списания.
	ErrInsufficientReservation = errors.New("insufficient reservation")
	// ErrConflict возвращается при конкурентном изменении или нарушении уникальности.
	ErrConflict = errors.New("conflict")
	// ErrPersistence возвращается при сбое хранилища во время перехода статуса.
	ErrPersistence = errors.New("persistence error")
	// ErrNotification описывает сбой шлюза уведомлений. Наружу не пробрасывается.
	ErrNotification = errors.New("notification error")
)

// IsDomainError сообщает, относится ли ошибка к предметным ошибкам, а не к сбою хранилища.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound,
		ErrValidation,
		ErrInvalidTransition,
		ErrInsufficientStock,
		ErrInsufficientReservation,
		ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
