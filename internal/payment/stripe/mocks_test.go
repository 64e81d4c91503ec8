package stripe

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/checkout-core/internal/payment/domain"
	"github.com/utafrali/checkout-core/internal/payment/gateway"
)

// ---------------------------------------------------------------------------
// Mock gateway client
// ---------------------------------------------------------------------------

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateIntent(ctx context.Context, apiKey string, params gateway.CreateIntentParams) (*gateway.Intent, error) {
	args := m.Called(ctx, apiKey, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *mockClient) RetrieveIntent(ctx context.Context, apiKey, intentID string) (*gateway.Intent, error) {
	args := m.Called(ctx, apiKey, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *mockClient) CaptureIntent(ctx context.Context, apiKey, intentID string, params gateway.CaptureIntentParams) (*gateway.Intent, error) {
	args := m.Called(ctx, apiKey, intentID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *mockClient) CancelIntent(ctx context.Context, apiKey, intentID string, params gateway.CancelIntentParams) (*gateway.Intent, error) {
	args := m.Called(ctx, apiKey, intentID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Intent), args.Error(1)
}

func (m *mockClient) CreateRefund(ctx context.Context, apiKey string, params gateway.CreateRefundParams) (*gateway.Refund, error) {
	args := m.Called(ctx, apiKey, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Refund), args.Error(1)
}

// ---------------------------------------------------------------------------
// Mock event publisher
// ---------------------------------------------------------------------------

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishTransactionRecorded(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

// ---------------------------------------------------------------------------
// In-memory transaction store
// ---------------------------------------------------------------------------

type memoryStore struct {
	mu        sync.Mutex
	txns      []domain.Transaction
	appendErr error
	latestErr error
}

func (s *memoryStore) Append(_ context.Context, txn *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.txns = append(s.txns, *txn)
	return nil
}

func (s *memoryStore) ListByPayment(_ context.Context, paymentID string) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transaction
	for _, t := range s.txns {
		if t.PaymentID == paymentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memoryStore) LatestSuccessful(_ context.Context, paymentID string, kinds ...domain.TransactionKind) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	for i := len(s.txns) - 1; i >= 0; i-- {
		t := s.txns[i]
		if t.PaymentID != paymentID || !t.IsSuccess || t.ActionRequired {
			continue
		}
		for _, k := range kinds {
			if t.Kind == k {
				return &t, nil
			}
		}
	}
	return nil, nil
}
