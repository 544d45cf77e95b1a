// Package mongo provides a MongoDB store backend.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	ledger "github.com/corebank/ledger"
	"github.com/corebank/ledger/account"
	ledgerstore "github.com/corebank/ledger/store"
	"github.com/corebank/ledger/transaction"
)

// Collection name constants.
const (
	colAccounts     = "ledger_accounts"
	colTransactions = "ledger_transactions"
	colCounters     = "ledger_counters"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on a MongoDB database. Transaction ids
// are assigned through an atomic $inc on a counter document, so they
// stay dense and strictly increasing even with several server processes
// pointed at the same database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

type accountDoc struct {
	Name           string   `bson:"_id"`
	Balance        uint64   `bson:"balance"`
	TransactionIDs []uint64 `bson:"transaction_ids"`
}

type transactionDoc struct {
	ID          uint64 `bson:"_id"`
	AccountName string `bson:"account_name"`
	Kind        string `bson:"kind"`
	Amount      uint64 `bson:"amount,omitempty"`
	To          string `bson:"to,omitempty"`
	Fee         uint64 `bson:"fee,omitempty"`
}

func toAccountDoc(a *account.Account) *accountDoc {
	return &accountDoc{Name: a.Name, Balance: a.Balance, TransactionIDs: a.TransactionIDs}
}

func (d *accountDoc) toAccount() *account.Account {
	return &account.Account{Name: d.Name, Balance: d.Balance, TransactionIDs: d.TransactionIDs}
}

func (d *transactionDoc) toTransaction() *transaction.Transaction {
	return &transaction.Transaction{
		ID:          d.ID,
		AccountName: d.AccountName,
		Action: transaction.Action{
			Kind:   transaction.Kind(d.Kind),
			Amount: d.Amount,
			To:     d.To,
			Fee:    d.Fee,
		},
	}
}

// New connects to uri and uses the named database, creating the
// reserved fee account if it is not there yet.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ledger.ErrStorage, err)
	}
	s := &Store{client: client, db: client.Database(database)}

	if _, err := s.CreateAccount(ctx, account.FeeAccountName, 0); err != nil &&
		!errors.Is(err, ledger.ErrAccountAlreadyExists) {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Setup creates the indexes the backend relies on. Call it once per
// database.
func (s *Store) Setup(ctx context.Context) error {
	_, err := s.db.Collection(colTransactions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "account_name", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("%w: setup indexes: %v", ledger.ErrStorage, err)
	}
	return nil
}

// ==================== Account methods ====================

func (s *Store) CreateAccount(ctx context.Context, name string, balance uint64) (*account.Account, error) {
	a := &account.Account{Name: name, Balance: balance}
	_, err := s.db.Collection(colAccounts).InsertOne(ctx, toAccountDoc(a))
	if mongo.IsDuplicateKeyError(err) {
		return nil, ledger.ErrAccountAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("%w: create account %q: %v", ledger.ErrStorage, name, err)
	}
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, name string) (*account.Account, error) {
	var d accountDoc
	err := s.db.Collection(colAccounts).FindOne(ctx, bson.M{"_id": name}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get account %q: %v", ledger.ErrStorage, name, err)
	}
	return d.toAccount(), nil
}

func (s *Store) PutAccount(ctx context.Context, a *account.Account) error {
	res, err := s.db.Collection(colAccounts).ReplaceOne(ctx, bson.M{"_id": a.Name}, toAccountDoc(a))
	if err != nil {
		return fmt.Errorf("%w: put account %q: %v", ledger.ErrStorage, a.Name, err)
	}
	if res.MatchedCount == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (s *Store) FeeAccount(ctx context.Context) (*account.Account, error) {
	return s.GetAccount(ctx, account.FeeAccountName)
}

func (s *Store) Accounts(ctx context.Context) ([]*account.Account, error) {
	cur, err := s.db.Collection(colAccounts).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %v", ledger.ErrStorage, err)
	}
	defer cur.Close(ctx)

	var out []*account.Account
	for cur.Next(ctx) {
		var d accountDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: decode account: %v", ledger.ErrStorage, err)
		}
		out = append(out, d.toAccount())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate accounts: %v", ledger.ErrStorage, err)
	}
	return out, nil
}

// ==================== Transaction methods ====================

func (s *Store) nextTransactionID(ctx context.Context) (uint64, error) {
	var counter struct {
		Seq uint64 `bson:"seq"`
	}
	err := s.db.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": "transaction_id"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("%w: next transaction id: %v", ledger.ErrStorage, err)
	}
	return counter.Seq, nil
}

func (s *Store) AppendTransaction(ctx context.Context, accountName string, action transaction.Action) (*transaction.Transaction, error) {
	id, err := s.nextTransactionID(ctx)
	if err != nil {
		return nil, err
	}
	d := &transactionDoc{
		ID:          id,
		AccountName: accountName,
		Kind:        string(action.Kind),
		Amount:      action.Amount,
		To:          action.To,
		Fee:         action.Fee,
	}
	if _, err := s.db.Collection(colTransactions).InsertOne(ctx, d); err != nil {
		return nil, fmt.Errorf("%w: append tx %d: %v", ledger.ErrStorage, id, err)
	}
	return d.toTransaction(), nil
}

func (s *Store) Transactions(ctx context.Context) ([]*transaction.Transaction, error) {
	cur, err := s.db.Collection(colTransactions).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", ledger.ErrStorage, err)
	}
	defer cur.Close(ctx)

	var out []*transaction.Transaction
	for cur.Next(ctx) {
		var d transactionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: decode tx: %v", ledger.ErrStorage, err)
		}
		out = append(out, d.toTransaction())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", ledger.ErrStorage, err)
	}
	return out, nil
}

func (s *Store) TransactionByID(ctx context.Context, id uint64) (*transaction.Transaction, error) {
	var d transactionDoc
	err := s.db.Collection(colTransactions).FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get tx %d: %v", ledger.ErrStorage, id, err)
	}
	return d.toTransaction(), nil
}

// ==================== Core methods ====================

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: ping: %v", ledger.ErrStorage, err)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("%w: disconnect: %v", ledger.ErrStorage, err)
	}
	return nil
}
