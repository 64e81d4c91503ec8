package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gibson042/canonicaljson-go"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/checkout-core/internal/payment/domain"
	"github.com/utafrali/checkout-core/pkg/database"
)

const (
	insertTransactionSQL = `
		INSERT INTO payment_transactions (id, payment_id, kind, is_success, action_required,
			token, amount, currency, error, gateway_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	transactionColumns = `id, payment_id, kind, is_success, action_required, token,
		amount, currency, error, gateway_response, created_at`

	listTransactionsSQL = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE payment_id = $1
		ORDER BY created_at, id`

	latestSuccessfulTransactionSQL = `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE payment_id = $1
			AND is_success
			AND NOT action_required
			AND kind = ANY($2)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
)

// TransactionStore implements repository.TransactionStore using PostgreSQL.
// Raw gateway payloads are stored as canonical JSON.
type TransactionStore struct {
	pool database.DBTX
}

// NewTransactionStore creates a new PostgreSQL-backed transaction store.
func NewTransactionStore(pool database.DBTX) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Append inserts a new transaction.
func (s *TransactionStore) Append(ctx context.Context, txn *domain.Transaction) (err error) {
	ctx, end := database.TraceQuery(ctx, "AppendTransaction", insertTransactionSQL)
	defer func() { end(err) }()

	var payload []byte
	if txn.GatewayResponse != nil {
		payload, err = canonicaljson.Marshal(txn.GatewayResponse)
		if err != nil {
			return fmt.Errorf("marshal gateway response: %w", err)
		}
	}

	var errMsg *string
	if txn.Error != "" {
		errMsg = &txn.Error
	}

	_, err = s.pool.Exec(ctx, insertTransactionSQL,
		txn.ID,
		txn.PaymentID,
		string(txn.Kind),
		txn.IsSuccess,
		txn.ActionRequired,
		txn.Token,
		txn.Amount,
		txn.Currency,
		errMsg,
		payload,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment transaction: %w", err)
	}
	return nil
}

// ListByPayment returns the payment's transactions in creation order.
func (s *TransactionStore) ListByPayment(ctx context.Context, paymentID string) (_ []domain.Transaction, err error) {
	ctx, end := database.TraceQuery(ctx, "ListTransactions", listTransactionsSQL)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, listTransactionsSQL, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment transactions: %w", err)
	}
	return txns, nil
}

// LatestSuccessful returns the newest successful transaction of one of kinds
// that does not require action, or nil when there is none.
func (s *TransactionStore) LatestSuccessful(ctx context.Context, paymentID string, kinds ...domain.TransactionKind) (_ *domain.Transaction, err error) {
	ctx, end := database.TraceQuery(ctx, "LatestSuccessfulTransaction", latestSuccessfulTransactionSQL)
	defer func() { end(err) }()

	kindNames := make([]string, len(kinds))
	for i, k := range kinds {
		kindNames[i] = string(k)
	}

	txn, err := scanTransaction(s.pool.QueryRow(ctx, latestSuccessfulTransactionSQL, paymentID, kindNames))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return txn, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn     domain.Transaction
		kind    string
		errMsg  *string
		payload []byte
	)
	err := row.Scan(
		&txn.ID,
		&txn.PaymentID,
		&kind,
		&txn.IsSuccess,
		&txn.ActionRequired,
		&txn.Token,
		&txn.Amount,
		&txn.Currency,
		&errMsg,
		&payload,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan payment transaction: %w", err)
	}

	txn.Kind = domain.TransactionKind(kind)
	if errMsg != nil {
		txn.Error = *errMsg
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &txn.GatewayResponse); err != nil {
			return nil, fmt.Errorf("decode gateway response of transaction %s: %w", txn.ID, err)
		}
	}
	return &txn, nil
}
