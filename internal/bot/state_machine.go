package bot

import "tradegate/internal/models"

// ValidTransitions определяет допустимые переходы статуса позиции
//
// Все переходы из OPEN терминальны: позиция закрывается не более одного
// раза. Гонка между Monitor'ом и вебхуком EXIT разрешается CAS-проверкой
// статуса в serializable транзакции (PositionRepository.Close).
var ValidTransitions = map[string][]string{
	models.PositionStatusOpen: {
		models.PositionStatusClosed,
		models.PositionStatusCanceled,
		models.PositionStatusMarketClosed,
		models.PositionStatusFailed,
	},
	models.PositionStatusClosed:       {},
	models.PositionStatusCanceled:     {},
	models.PositionStatusMarketClosed: {},
	models.PositionStatusFailed:       {},
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal возвращает true для терминального статуса позиции
func IsTerminal(status string) bool {
	allowed, ok := ValidTransitions[status]
	return ok && len(allowed) == 0
}

// StatusInfo возвращает описание статуса для UI
func StatusInfo(status string) string {
	switch status {
	case models.PositionStatusOpen:
		return "Позиция открыта"
	case models.PositionStatusClosed:
		return "Закрыта сигналом"
	case models.PositionStatusCanceled:
		return "Отменена"
	case models.PositionStatusMarketClosed:
		return "Закрыта по TP/SL"
	case models.PositionStatusFailed:
		return "Ошибка исполнения"
	default:
		return "Неизвестный статус"
	}
}
