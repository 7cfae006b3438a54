package errs

import (
	"errors"
	"net/http"
)

// Доменные ошибки. Слои ниже обработчиков оборачивают их через fmt.Errorf("%w: ...")
var (
	ErrNotFound     = errors.New("не найдено")
	ErrConflict     = errors.New("конфликт")
	ErrForbidden    = errors.New("доступ запрещён")
	ErrInvalidInput = errors.New("неверные данные")
	ErrGone         = errors.New("уже удалено")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsGone(err error) bool {
	return errors.Is(err, ErrGone)
}

// StatusCode возвращает HTTP код для доменной ошибки.
// Для неизвестных ошибок возвращается 500, а вызывающий код не должен отдавать их текст клиенту.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsForbidden(err):
		return http.StatusForbidden
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsGone(err):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
