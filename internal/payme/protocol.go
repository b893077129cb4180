package payme

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ielts-payments/internal/models"
)

// Method is one of the closed set of merchant API methods Payme calls.
type Method int

const (
	CheckPerformTransaction Method = iota + 1
	CreateTransaction
	PerformTransaction
	CancelTransaction
	CheckTransaction
	GetStatement
)

// ParseMethod maps a wire method name to a Method.
func ParseMethod(name string) (Method, bool) {
	switch name {
	case "CheckPerformTransaction":
		return CheckPerformTransaction, true
	case "CreateTransaction":
		return CreateTransaction, true
	case "PerformTransaction":
		return PerformTransaction, true
	case "CancelTransaction":
		return CancelTransaction, true
	case "CheckTransaction":
		return CheckTransaction, true
	case "GetStatement":
		return GetStatement, true
	}
	return 0, false
}

func (m Method) String() string {
	switch m {
	case CheckPerformTransaction:
		return "CheckPerformTransaction"
	case CreateTransaction:
		return "CreateTransaction"
	case PerformTransaction:
		return "PerformTransaction"
	case CancelTransaction:
		return "CancelTransaction"
	case CheckTransaction:
		return "CheckTransaction"
	case GetStatement:
		return "GetStatement"
	}
	return "unknown"
}

// Request is the JSON-RPC style envelope Payme posts.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     json.RawMessage `json:"id,omitempty"`
}

// Response carries either Result or Error, echoing the request id.
type Response struct {
	Result interface{}     `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
	ID     json.RawMessage `json:"id,omitempty"`
}

// Account identifies the order being paid.
type Account struct {
	OrderID string `json:"order_id"`
}

type checkPerformParams struct {
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type createParams struct {
	ID      string  `json:"id"`
	Time    int64   `json:"time"`
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type performParams struct {
	ID string `json:"id"`
}

type cancelParams struct {
	ID     string `json:"id"`
	Reason *int   `json:"reason"`
}

type checkParams struct {
	ID string `json:"id"`
}

type statementParams struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// CheckPerformResult answers CheckPerformTransaction.
type CheckPerformResult struct {
	Allow bool `json:"allow"`
}

// CreateResult answers CreateTransaction.
type CreateResult struct {
	CreateTime  int64                   `json:"create_time"`
	Transaction string                  `json:"transaction"`
	State       models.TransactionState `json:"state"`
}

// PerformResult answers PerformTransaction.
type PerformResult struct {
	Transaction string                  `json:"transaction"`
	PerformTime int64                   `json:"perform_time"`
	State       models.TransactionState `json:"state"`
}

// CancelResult answers CancelTransaction.
type CancelResult struct {
	Transaction string                  `json:"transaction"`
	CancelTime  int64                   `json:"cancel_time"`
	State       models.TransactionState `json:"state"`
}

// CheckResult answers CheckTransaction.
type CheckResult struct {
	CreateTime  int64                   `json:"create_time"`
	PerformTime int64                   `json:"perform_time"`
	CancelTime  int64                   `json:"cancel_time"`
	Transaction string                  `json:"transaction"`
	State       models.TransactionState `json:"state"`
	Reason      *int                    `json:"reason"`
}

// StatementEntry is one transaction in a GetStatement answer.
type StatementEntry struct {
	ID          string                  `json:"id"`
	Time        int64                   `json:"time"`
	Amount      int64                   `json:"amount"`
	Account     Account                 `json:"account"`
	CreateTime  int64                   `json:"create_time"`
	PerformTime int64                   `json:"perform_time"`
	CancelTime  int64                   `json:"cancel_time"`
	Transaction string                  `json:"transaction"`
	State       models.TransactionState `json:"state"`
	Reason      *int                    `json:"reason"`
}

// StatementResult answers GetStatement.
type StatementResult struct {
	Transactions []StatementEntry `json:"transactions"`
}

func localID(t *models.PaymeTransaction) string {
	return strconv.FormatInt(t.ID, 10)
}

func newCreateResult(t *models.PaymeTransaction) *CreateResult {
	return &CreateResult{CreateTime: t.CreateTime, Transaction: localID(t), State: t.State}
}

func newCheckResult(t *models.PaymeTransaction) *CheckResult {
	return &CheckResult{
		CreateTime:  t.CreateTime,
		PerformTime: t.PerformTime,
		CancelTime:  t.CancelTime,
		Transaction: localID(t),
		State:       t.State,
		Reason:      t.Reason,
	}
}

func newStatementEntry(t *models.PaymeTransaction) StatementEntry {
	return StatementEntry{
		ID:          t.PaymeID,
		Time:        t.PaymeTime,
		Amount:      t.Amount,
		Account:     Account{OrderID: t.OrderID},
		CreateTime:  t.CreateTime,
		PerformTime: t.PerformTime,
		CancelTime:  t.CancelTime,
		Transaction: localID(t),
		State:       t.State,
		Reason:      t.Reason,
	}
}

// CheckoutURL builds the hosted checkout link for an order amount in minor units.
func CheckoutURL(baseURL, merchantID, orderID string, amountMinor int64) string {
	params := fmt.Sprintf("m=%s;ac.order_id=%s;a=%d", merchantID, orderID, amountMinor)
	return strings.TrimRight(baseURL, "/") + "/" + base64.StdEncoding.EncodeToString([]byte(params))
}
