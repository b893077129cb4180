package payme

import "fmt"

// Payme merchant API error codes.
const (
	CodeInvalidAmount         = -31001
	CodeTransactionNotFound   = -31003
	CodeOperationNotAllowed   = -31008
	CodeInvalidAccount        = -31050
	CodeInsufficientPrivilege = -32504
	CodeMethodNotFound        = -32601
	CodeInvalidRequest        = -32600
	CodeParseError            = -32700
	CodeInternal              = -32400
)

// Message is a localized error text as Payme shows it to the payer.
type Message struct {
	RU string `json:"ru"`
	UZ string `json:"uz"`
	EN string `json:"en"`
}

// Error is a protocol level failure returned to Payme in the error member.
type Error struct {
	Code    int     `json:"code"`
	Message Message `json:"message"`
	Data    string  `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("payme error %d: %s", e.Code, e.Message.EN)
}

func newError(code int, ru, uz, en string) *Error {
	return &Error{Code: code, Message: Message{RU: ru, UZ: uz, EN: en}}
}

var (
	ErrInvalidAmount = newError(CodeInvalidAmount,
		"Неверная сумма",
		"Noto'g'ri summa",
		"Invalid amount")

	ErrTransactionNotFound = newError(CodeTransactionNotFound,
		"Транзакция не найдена",
		"Tranzaksiya topilmadi",
		"Transaction not found")

	ErrOperationNotAllowed = newError(CodeOperationNotAllowed,
		"Невозможно выполнить операцию",
		"Amalni bajarib bo'lmaydi",
		"Unable to perform operation")

	ErrInvalidAccount = &Error{
		Code: CodeInvalidAccount,
		Message: Message{
			RU: "Заказ не найден",
			UZ: "Buyurtma topilmadi",
			EN: "Order not found",
		},
		Data: "order_id",
	}

	ErrInsufficientPrivilege = newError(CodeInsufficientPrivilege,
		"Недостаточно привилегий для выполнения метода",
		"Usulni bajarish uchun huquqlar yetarli emas",
		"Insufficient privilege to perform this method")

	ErrMethodNotFound = newError(CodeMethodNotFound,
		"Метод не найден",
		"Usul topilmadi",
		"Method not found")

	ErrInvalidRequest = newError(CodeInvalidRequest,
		"Неверный запрос",
		"Noto'g'ri so'rov",
		"Invalid request")

	ErrParse = newError(CodeParseError,
		"Ошибка разбора JSON",
		"JSON tahlil xatosi",
		"Parse error")

	ErrInternal = newError(CodeInternal,
		"Системная ошибка",
		"Tizim xatosi",
		"Internal error")
)
