package bot

import (
	"strings"
)

// Directive - каноническая торговая директива
type Directive string

// Канонические директивы
const (
	EnterLong  Directive = "ENTER_LONG"
	ExitLong   Directive = "EXIT_LONG"
	EnterShort Directive = "ENTER_SHORT"
	ExitShort  Directive = "EXIT_SHORT"
)

// actionAliases - фиксированная таблица соответствия "свободный токен → директива"
//
// Алерты приходят из разных источников (TradingView, кастомные скрипты)
// с разным словарем. Токен нормализуется (upper-case, '-' == '_') и ищется
// в таблице. Таблица используется и резолвером, и его тестами - без
// ad hoc ветвлений по строкам.
var actionAliases = map[string]Directive{
	"ENTER_LONG":  EnterLong,
	"LONG":        EnterLong,
	"BUY":         EnterLong,
	"EXIT_LONG":   ExitLong,
	"CLOSE_LONG":  ExitLong,
	"SELL_LONG":   ExitLong,
	"SELL":        ExitLong,
	"ENTER_SHORT": EnterShort,
	"SHORT":       EnterShort,
	"EXIT_SHORT":  ExitShort,
	"CLOSE_SHORT": ExitShort,
	"BUY_SHORT":   ExitShort,
	"COVER":       ExitShort,
}

// NormalizeAction приводит токен к виду, по которому идет поиск в таблице
func NormalizeAction(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.ReplaceAll(s, "-", "_")
}

// ResolveAction превращает сырой токен алерта в каноническую директиву.
// Нераспознанный токен - терминальная ошибка: сигнал помечается
// processed с ошибкой, сделка не выполняется.
func ResolveAction(raw string) (Directive, error) {
	d, ok := actionAliases[NormalizeAction(raw)]
	if !ok {
		return "", NewPipelineError(CategoryAction, "unrecognized action: "+raw, nil)
	}
	return d, nil
}

// IsEntry возвращает true для директив открытия позиции
func (d Directive) IsEntry() bool {
	return d == EnterLong || d == EnterShort
}

// IsExit возвращает true для директив закрытия позиции
func (d Directive) IsExit() bool {
	return d == ExitLong || d == ExitShort
}

// PositionSide возвращает сторону позиции, к которой относится директива
func (d Directive) PositionSide() string {
	if d == EnterLong || d == ExitLong {
		return "LONG"
	}
	return "SHORT"
}

// OrderSide возвращает сторону биржевого ордера для директивы:
// вход в лонг и выход из шорта - покупка, остальное - продажа.
func (d Directive) OrderSide() string {
	if d == EnterLong || d == ExitShort {
		return "BUY"
	}
	return "SELL"
}
