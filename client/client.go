// Package client implements the TCP JSON client for the bank server.
package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/corebank/ledger/protocol"
	"github.com/corebank/ledger/transaction"
)

// ServerError is a failure reported by the server in an ERR response.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("client: server error: %s", e.Message)
}

// Client talks to one bank server over a single connection. It is safe
// for concurrent use; calls are serialized on the connection.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to addr. timeout bounds each request round-trip on the
// wire; zero means no deadline.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call sends one request and decodes the matching response payload into
// out (skipped when out is nil).
func (c *Client) call(method protocol.Method, payload, out any) error {
	req, err := protocol.NewRequest(method, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("client: encode request: %w", err)
	}
	raw = append(raw, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.conn.Write(raw); err != nil {
		return fmt.Errorf("client: write: %w", err)
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("client: read: %w", err)
	}

	var resp protocol.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("client: response id %s does not match request id %s", resp.ID, req.ID)
	}
	if resp.Code != protocol.CodeOK {
		var ep protocol.ErrorResponse
		if err := json.Unmarshal(resp.Payload, &ep); err != nil {
			return errors.New("client: malformed error response")
		}
		return &ServerError{Message: ep.Error}
	}
	if out != nil {
		if err := json.Unmarshal(resp.Payload, out); err != nil {
			return fmt.Errorf("client: decode %s payload: %w", method, err)
		}
	}
	return nil
}

// CreateAccount registers a new account.
func (c *Client) CreateAccount(name string) (*protocol.AccountResponse, error) {
	var out protocol.AccountResponse
	if err := c.call(protocol.MethodCreateAccount, protocol.CreateAccountRequest{AccountName: name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IncrBalance credits an account and returns the transaction id.
func (c *Client) IncrBalance(name string, value uint64) (uint64, error) {
	var out protocol.TransactionIDResponse
	if err := c.call(protocol.MethodIncrBalance, protocol.IncrBalanceRequest{AccountName: name, Value: value}, &out); err != nil {
		return 0, err
	}
	return out.TransactionID, nil
}

// DecrBalance debits an account and returns the transaction id.
func (c *Client) DecrBalance(name string, value uint64) (uint64, error) {
	var out protocol.TransactionIDResponse
	if err := c.call(protocol.MethodDecrBalance, protocol.DecrBalanceRequest{AccountName: name, Value: value}, &out); err != nil {
		return 0, err
	}
	return out.TransactionID, nil
}

// MakeTransaction transfers value between accounts and returns the
// transfer transaction id.
func (c *Client) MakeTransaction(from, to string, value uint64) (uint64, error) {
	p := protocol.MakeTransactionRequest{AccountName: from, AccountToName: to, Value: value}
	var out protocol.TransactionIDResponse
	if err := c.call(protocol.MethodMakeTransaction, p, &out); err != nil {
		return 0, err
	}
	return out.TransactionID, nil
}

// Transaction fetches a single transaction by id.
func (c *Client) Transaction(id uint64) (*transaction.Transaction, error) {
	var out protocol.TransactionResponse
	if err := c.call(protocol.MethodTransaction, protocol.TransactionRequest{ID: id}, &out); err != nil {
		return nil, err
	}
	return out.Transaction, nil
}

// Transactions fetches the whole transaction log.
func (c *Client) Transactions() ([]*transaction.Transaction, error) {
	var out protocol.TransactionsResponse
	if err := c.call(protocol.MethodTransactions, nil, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// AccountTransactions fetches the transactions affecting one account.
func (c *Client) AccountTransactions(name string) ([]*transaction.Transaction, error) {
	var out protocol.TransactionsResponse
	if err := c.call(protocol.MethodAccountTransactions, protocol.AccountTransactionsRequest{AccountName: name}, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// AccountBalance fetches one account's balance.
func (c *Client) AccountBalance(name string) (uint64, error) {
	var out protocol.BalanceResponse
	if err := c.call(protocol.MethodAccountBalance, protocol.AccountBalanceRequest{AccountName: name}, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}
