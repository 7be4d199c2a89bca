package bot

import (
	"errors"
	"fmt"
)

// Категории ошибок конвейера обработки сигналов
//
// Категория - машиночитаемый код, который попадает в HTTP ответ и в поле
// error записи Signal. Все ошибки конвейера терминальны: повторная
// обработка не выполняется, алерт нужно прислать заново.
const (
	CategoryParse        = "parse_error"
	CategoryAction       = "action_unrecognized"
	CategoryBot          = "bot_unavailable"
	CategorySymbol       = "symbol_not_allowed"
	CategoryUnauthorized = "unauthorized"
	CategoryPrice        = "price_unavailable"
	CategoryValidation   = "validation_error"
	CategoryExchange     = "exchange_rejected"
	CategoryPersistence  = "persistence_error"
)

// PipelineError - ошибка конвейера с машиночитаемой категорией
type PipelineError struct {
	Category string
	Message  string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError создает ошибку конвейера
func NewPipelineError(category, message string, err error) *PipelineError {
	return &PipelineError{Category: category, Message: message, Err: err}
}

// ValidationError создает ошибку валидации сигнала
func ValidationError(format string, args ...interface{}) *PipelineError {
	return &PipelineError{Category: CategoryValidation, Message: fmt.Sprintf(format, args...)}
}

// CategoryOf возвращает категорию ошибки.
// Для ошибок вне таксономии возвращает persistence_error (внутренняя ошибка).
func CategoryOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryPersistence
}

// Ошибки конфигурации бота (Bot Configuration Guard)
var (
	ErrBotNotFound      = errors.New("bot not found")
	ErrBotInactive      = errors.New("bot is not active")
	ErrExchangeInactive = errors.New("exchange account is not active")
)

// Ошибки нормализации сигнала
var (
	ErrBotIDMismatch = errors.New("bot id in payload does not match webhook bot id")
)
