// Package protocol defines the wire types spoken between the bank
// server and its clients: newline-delimited JSON requests and responses
// correlated by a UUID.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/corebank/ledger/transaction"
)

// Method names a server operation.
type Method string

const (
	MethodCreateAccount       Method = "CreateAccount"
	MethodIncrBalance         Method = "IncrBalance"
	MethodDecrBalance         Method = "DecrBalance"
	MethodMakeTransaction     Method = "MakeTransaction"
	MethodTransaction         Method = "Transaction"
	MethodTransactions        Method = "Transactions"
	MethodAccountTransactions Method = "AccountTransactions"
	MethodAccountBalance      Method = "AccountBalance"
)

// Code is the response status.
type Code string

const (
	CodeOK  Code = "OK"
	CodeErr Code = "ERR"
)

// InvalidFormat is the error message returned for requests the server
// cannot parse: unknown method, unparsable payload.
const InvalidFormat = "InvalidFormat"

// Request is one client message. Payload holds the method-specific
// fields, decoded by the handler.
type Request struct {
	ID      uuid.UUID       `json:"id"`
	Method  Method          `json:"method"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the server's reply, carrying the request's correlation id.
type Response struct {
	ID      uuid.UUID       `json:"id"`
	Code    Code            `json:"code"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewRequest builds a request with a fresh correlation id.
func NewRequest(method Method, payload any) (Request, error) {
	req := Request{ID: uuid.New(), Method: method}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Request{}, fmt.Errorf("protocol: encode %s payload: %w", method, err)
		}
		req.Payload = raw
	}
	return req, nil
}

// OK builds a success response.
func OK(id uuid.UUID, payload any) Response {
	resp := Response{ID: id, Code: CodeOK}
	if payload != nil {
		// Payloads are plain data structs; marshaling cannot fail.
		resp.Payload, _ = json.Marshal(payload)
	}
	return resp
}

// Err builds an error response with a human-readable message.
func Err(id uuid.UUID, msg string) Response {
	raw, _ := json.Marshal(ErrorResponse{Error: msg})
	return Response{ID: id, Code: CodeErr, Payload: raw}
}

// ──────────────────────────────────────────────────
// Request payloads
// ──────────────────────────────────────────────────

type CreateAccountRequest struct {
	AccountName string `json:"account_name"`
}

type IncrBalanceRequest struct {
	AccountName string `json:"account_name"`
	Value       uint64 `json:"value"`
}

type DecrBalanceRequest struct {
	AccountName string `json:"account_name"`
	Value       uint64 `json:"value"`
}

type MakeTransactionRequest struct {
	AccountName   string `json:"account_name"`
	AccountToName string `json:"account_to_name"`
	Value         uint64 `json:"value"`
}

type TransactionRequest struct {
	ID uint64 `json:"id"`
}

type AccountTransactionsRequest struct {
	AccountName string `json:"account_name"`
}

type AccountBalanceRequest struct {
	AccountName string `json:"account_name"`
}

// ──────────────────────────────────────────────────
// Response payloads
// ──────────────────────────────────────────────────

type ErrorResponse struct {
	Error string `json:"error"`
}

type AccountResponse struct {
	Name           string   `json:"name"`
	Balance        uint64   `json:"balance"`
	TransactionIDs []uint64 `json:"transaction_ids"`
}

type TransactionIDResponse struct {
	TransactionID uint64 `json:"transaction_id"`
}

type BalanceResponse struct {
	Balance uint64 `json:"balance"`
}

type TransactionResponse struct {
	Transaction *transaction.Transaction `json:"transaction"`
}

type TransactionsResponse struct {
	Transactions []*transaction.Transaction `json:"transactions"`
}
