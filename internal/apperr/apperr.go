package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Çekirdek hata sınıfları. Servis katmanı yalnızca bunları üretir;
// HTTP durum koduna çeviri tek yerde (ToFiber) yapılır.
var (
	ErrValidation        = errors.New("validation")
	ErrNotFound          = errors.New("not-found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("not-enough")
	ErrInvalidState      = errors.New("bad-status")
	ErrConflict          = errors.New("conflict")
)

// Error: sınıf + kullanıcıya dönecek mesaj. errors.Is ile sınıfına,
// errors.As ile kendisine erişilir.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return New(ErrValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(ErrForbidden, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return New(ErrInsufficientStock, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(ErrInvalidState, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(ErrConflict, format, args...)
}

// ToFiber: çekirdek hatasını HTTP hatasına çevirir. apperr olmayan hatalar
// olduğu gibi geri döner ve merkezi ErrorHandler'da 500 olur.
func ToFiber(err error) error {
	var ae *Error
	if !errors.As(err, &ae) {
		return err
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(ae, ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(ae, ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(ae, ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(ae, ErrInsufficientStock):
		// "stok yetersiz" ile "geçersiz istek" arayüzde ayrışsın diye 422
		status = fiber.StatusUnprocessableEntity
	case errors.Is(ae, ErrInvalidState), errors.Is(ae, ErrConflict):
		status = fiber.StatusConflict
	}

	return fiber.NewError(status, ae.Message)
}
