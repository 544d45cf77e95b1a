package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/protocol"
)

// Handler dispatches decoded protocol requests against a ledger handle
// and shapes the results back into protocol responses. Ledger failures
// become ERR responses, never a crash.
type Handler struct {
	handle  *ledger.Handle
	logger  *slog.Logger
	metrics *Metrics
}

// NewHandler creates a Handler. metrics may be nil.
func NewHandler(h *ledger.Handle, logger *slog.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{handle: h, logger: logger, metrics: metrics}
}

// Handle processes one request.
func (h *Handler) Handle(ctx context.Context, req protocol.Request) protocol.Response {
	start := time.Now()
	resp := h.dispatch(ctx, req)
	if h.metrics != nil {
		h.metrics.observe(req.Method, resp.Code, time.Since(start))
	}
	if resp.Code != protocol.CodeOK {
		h.logger.Debug("request rejected",
			slog.String("method", string(req.Method)), slog.String("id", req.ID.String()))
	}
	return resp
}

func (h *Handler) dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	switch req.Method {
	case protocol.MethodCreateAccount:
		var p protocol.CreateAccountRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return protocol.Err(req.ID, protocol.InvalidFormat)
		}
		a, err := h.handle.CreateAccount(ctx, p.AccountName)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.AccountResponse{
			Name:           a.Name,
			Balance:        a.Balance,
			TransactionIDs: a.TransactionIDs,
		})

	case protocol.MethodIncrBalance:
		var p protocol.IncrBalanceRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return protocol.Err(req.ID, protocol.InvalidFormat)
		}
		id, err := h.handle.IncrementBalance(ctx, p.AccountName, p.Value)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.TransactionIDResponse{TransactionID: id})

	case protocol.MethodDecrBalance:
		var p protocol.DecrBalanceRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return protocol.Err(req.ID, protocol.InvalidFormat)
		}
		id, err := h.handle.DecrementBalance(ctx, p.AccountName, p.Value)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.TransactionIDResponse{TransactionID: id})

	case protocol.MethodMakeTransaction:
		var p protocol.MakeTransactionRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return protocol.Err(req.ID, protocol.InvalidFormat)
		}
		id, err := h.handle.Transfer(ctx, p.AccountName, p.AccountToName, p.Value)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.TransactionIDResponse{TransactionID: id})

	case protocol.MethodTransaction:
		var p protocol.TransactionRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return protocol.Err(req.ID, protocol.InvalidFormat)
		}
		tx, err := h.handle.TransactionByID(ctx, p.ID)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.TransactionResponse{Transaction: tx})

	case protocol.MethodTransactions:
		txs, err := h.handle.AllTransactions(ctx)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.TransactionsResponse{Transactions: txs})

	case protocol.MethodAccountTransactions:
		var p protocol.AccountTransactionsRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return protocol.Err(req.ID, protocol.InvalidFormat)
		}
		txs, err := h.handle.AccountTransactions(ctx, p.AccountName)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.TransactionsResponse{Transactions: txs})

	case protocol.MethodAccountBalance:
		var p protocol.AccountBalanceRequest
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return protocol.Err(req.ID, protocol.InvalidFormat)
		}
		balance, err := h.handle.AccountBalance(ctx, p.AccountName)
		if err != nil {
			return protocol.Err(req.ID, errorMessage(err))
		}
		return protocol.OK(req.ID, protocol.BalanceResponse{Balance: balance})

	default:
		return protocol.Err(req.ID, protocol.InvalidFormat)
	}
}

// errorMessage maps ledger errors to the compact messages clients match
// on; anything else passes through as-is.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, ledger.ErrAccountAlreadyExists):
		return "AccountAlreadyExists"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "AccountNotFound"
	case errors.Is(err, ledger.ErrReservedAccount):
		return "ReservedAccount"
	case errors.Is(err, ledger.ErrTransactionNotFound):
		return "TransactionNotFound"
	case errors.Is(err, ledger.ErrEmptyTransaction):
		return "EmptyTransaction"
	case errors.Is(err, ledger.ErrNotEnoughMoney):
		return "NotEnoughMoney"
	case errors.Is(err, ledger.ErrStorage):
		return "StorageError"
	default:
		return err.Error()
	}
}
