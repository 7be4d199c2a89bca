package bot

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Alert - канонический черновик сигнала после нормализации
type Alert struct {
	Action  string   `json:"action"`
	Symbol  string   `json:"symbol"`
	Price   *float64 `json:"price,omitempty"`
	Message string   `json:"message,omitempty"`
	BotID   string   `json:"bot_id,omitempty"`
}

// Примеры форматов для диагностики ошибок парсинга
const (
	exampleJSONPayload = `{"action": "ENTER_LONG", "symbol": "BTCUSDT", "price": 50000, "message": "optional"}`
	exampleTextPayload = `ENTER-LONG_BINANCE_BTCUSDT_MyBot_4M_<botId>`
)

// textMinSegments - минимальное число сегментов текстового формата
// ACTION_EXCHANGE_SYMBOL_BOTNAME_TIMEFRAME_BOTID
const textMinSegments = 6

// ParseAlert нормализует входящий алерт в канонический черновик сигнала.
//
// Сначала пробует структурированный JSON (обязательны action и symbol),
// затем текстовый формат с разделителем '_'. Идентификатор бота в тексте -
// склейка сегментов начиная с пятого: сам идентификатор может содержать
// символ разделителя. Если в маршруте задан id бота и payload тоже его
// несет, они обязаны совпадать - несовпадение терминально.
//
// Чистая функция без побочных эффектов.
func ParseAlert(body []byte, routeBotID string) (*Alert, error) {
	alert, ok := parseStructured(body)
	if !ok {
		alert, ok = parseDelimited(string(body))
	}
	if !ok {
		return nil, NewPipelineError(CategoryParse,
			"unable to parse alert; expected JSON like "+exampleJSONPayload+
				" or text like "+exampleTextPayload, nil)
	}

	if routeBotID != "" && alert.BotID != "" && alert.BotID != routeBotID {
		return nil, NewPipelineError(CategoryParse,
			"bot id mismatch: payload carries "+alert.BotID+", webhook is for "+routeBotID,
			ErrBotIDMismatch)
	}

	return alert, nil
}

// parseStructured пробует разобрать алерт как JSON
func parseStructured(body []byte) (*Alert, bool) {
	var a Alert
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, false
	}
	if a.Action == "" || a.Symbol == "" {
		return nil, false
	}
	return &a, true
}

// parseDelimited пробует разобрать текстовый формат
// ACTION_EXCHANGE_SYMBOL_BOTNAME_TIMEFRAME_BOTID
func parseDelimited(body string) (*Alert, bool) {
	text := strings.TrimSpace(body)
	if text == "" {
		return nil, false
	}

	segments := strings.Split(text, "_")
	if len(segments) < textMinSegments {
		return nil, false
	}

	a := &Alert{
		Action: segments[0],
		Symbol: segments[2],
		// id бота может содержать '_' - склеиваем хвост обратно
		BotID: strings.Join(segments[5:], "_"),
	}
	if a.Action == "" || a.Symbol == "" || a.BotID == "" {
		return nil, false
	}
	return a, true
}
