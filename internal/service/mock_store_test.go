package service

import (
	"context"
	"fmt"
	"time"

	"github.com/guilhermekollet/financas-api/internal/domain"
	"github.com/guilhermekollet/financas-api/internal/infra/cache"
	"github.com/guilhermekollet/financas-api/internal/infra/observability"

	"go.uber.org/zap"
)

// mockStore is an in-memory port.FinanceStore + port.AuthStore for tests.
type mockStore struct {
	users        []domain.User
	transactions []domain.Transaction
	cards        []domain.CreditCard
	bills        []domain.CreditCardBill
	payments     []domain.BillPayment
	subs         []domain.Subscription
	creds        map[int64]*domain.AuthCredential
	tokens       map[string]*domain.AuthRefreshToken

	nextID int64
	// forceConflict makes every versioned update fail, simulating a
	// concurrent writer.
	forceConflict bool

	listTransactionsCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		creds:  map[int64]*domain.AuthCredential{},
		tokens: map[string]*domain.AuthRefreshToken{},
		nextID: 100,
	}
}

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

// --- users ---

func (m *mockStore) GetUserByAuthID(_ context.Context, authID string) (*domain.User, error) {
	for i := range m.users {
		if m.users[i].AuthID == authID {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: authID}
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (m *mockStore) GetUserByID(_ context.Context, userID int64) (*domain.User, error) {
	for i := range m.users {
		if m.users[i].ID == userID {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: fmt.Sprintf("%d", userID)}
}

func (m *mockStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	u.ID = m.id()
	m.users = append(m.users, u)
	return &u, nil
}

// --- transactions ---

func (m *mockStore) ListTransactions(_ context.Context, userID int64) ([]domain.Transaction, error) {
	m.listTransactionsCalls++
	out := []domain.Transaction{}
	for i := range m.transactions {
		if m.transactions[i].UserID == userID {
			out = append(out, m.transactions[i])
		}
	}
	return out, nil
}

func (m *mockStore) GetTransaction(_ context.Context, userID, txID int64) (*domain.Transaction, error) {
	for i := range m.transactions {
		if m.transactions[i].ID == txID && m.transactions[i].UserID == userID {
			t := m.transactions[i]
			return &t, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", txID)}
}

func (m *mockStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	t := *tx
	t.ID = m.id()
	m.transactions = append(m.transactions, t)
	return &t, nil
}

func (m *mockStore) UpdateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	for i := range m.transactions {
		if m.transactions[i].ID == tx.ID && m.transactions[i].UserID == tx.UserID {
			m.transactions[i] = *tx
			t := *tx
			return &t, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", tx.ID)}
}

func (m *mockStore) DeleteTransaction(_ context.Context, userID, txID int64) error {
	for i := range m.transactions {
		if m.transactions[i].ID == txID && m.transactions[i].UserID == userID {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", txID)}
}

// --- cards ---

func (m *mockStore) ListCreditCards(_ context.Context, userID int64) ([]domain.CreditCard, error) {
	out := []domain.CreditCard{}
	for i := range m.cards {
		if m.cards[i].UserID == userID {
			out = append(out, m.cards[i])
		}
	}
	return out, nil
}

func (m *mockStore) GetCreditCard(_ context.Context, userID, cardID int64) (*domain.CreditCard, error) {
	for i := range m.cards {
		if m.cards[i].ID == cardID && m.cards[i].UserID == userID {
			c := m.cards[i]
			return &c, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", cardID)}
}

func (m *mockStore) CreateCreditCard(_ context.Context, card *domain.CreditCard) (*domain.CreditCard, error) {
	c := *card
	c.ID = m.id()
	m.cards = append(m.cards, c)
	return &c, nil
}

func (m *mockStore) UpdateCreditCard(_ context.Context, card *domain.CreditCard) (*domain.CreditCard, error) {
	for i := range m.cards {
		if m.cards[i].ID == card.ID && m.cards[i].UserID == card.UserID {
			m.cards[i] = *card
			c := *card
			return &c, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", card.ID)}
}

func (m *mockStore) DeleteCreditCard(_ context.Context, userID, cardID int64) error {
	for i := range m.cards {
		if m.cards[i].ID == cardID && m.cards[i].UserID == userID {
			m.cards = append(m.cards[:i], m.cards[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", cardID)}
}

// --- bills ---

func (m *mockStore) GetBill(_ context.Context, userID, billID int64) (*domain.CreditCardBill, error) {
	for i := range m.bills {
		if m.bills[i].ID == billID && m.bills[i].UserID == userID {
			b := m.bills[i]
			return &b, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "bill", ID: fmt.Sprintf("%d", billID)}
}

func (m *mockStore) GetBillByMonth(_ context.Context, userID, cardID int64, month string) (*domain.CreditCardBill, error) {
	for i := range m.bills {
		b := m.bills[i]
		if b.UserID == userID && b.CreditCardID == cardID && b.ReferenceMonth == month {
			return &b, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "bill", ID: month}
}

func (m *mockStore) CreateBill(_ context.Context, bill *domain.CreditCardBill) (*domain.CreditCardBill, error) {
	b := *bill
	b.ID = m.id()
	b.Version = 1
	m.bills = append(m.bills, b)
	return &b, nil
}

func (m *mockStore) UpdateBillVersioned(_ context.Context, billID, version int64, updates map[string]any) error {
	if m.forceConflict {
		return &domain.ErrConflict{Message: "bill was modified concurrently"}
	}
	for i := range m.bills {
		if m.bills[i].ID != billID {
			continue
		}
		if m.bills[i].Version != version {
			return &domain.ErrConflict{Message: "bill was modified concurrently"}
		}
		if v, ok := updates["paid_amount"].(float64); ok {
			m.bills[i].PaidAmount = v
		}
		if v, ok := updates["archived"].(bool); ok {
			m.bills[i].Archived = v
		}
		m.bills[i].Version++
		return nil
	}
	return &domain.ErrNotFound{Resource: "bill", ID: fmt.Sprintf("%d", billID)}
}

// --- payments ---

func (m *mockStore) ListBillPayments(_ context.Context, userID, billID int64) ([]domain.BillPayment, error) {
	out := []domain.BillPayment{}
	for i := range m.payments {
		if m.payments[i].UserID == userID && m.payments[i].BillID == billID {
			out = append(out, m.payments[i])
		}
	}
	return out, nil
}

func (m *mockStore) GetBillPayment(_ context.Context, userID, paymentID int64) (*domain.BillPayment, error) {
	for i := range m.payments {
		if m.payments[i].ID == paymentID && m.payments[i].UserID == userID {
			p := m.payments[i]
			return &p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
}

func (m *mockStore) CreateBillPayment(_ context.Context, payment *domain.BillPayment) (*domain.BillPayment, error) {
	p := *payment
	p.ID = m.id()
	m.payments = append(m.payments, p)
	return &p, nil
}

func (m *mockStore) DeleteBillPayment(_ context.Context, userID, paymentID int64) error {
	for i := range m.payments {
		if m.payments[i].ID == paymentID && m.payments[i].UserID == userID {
			m.payments = append(m.payments[:i], m.payments[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
}

// --- subscriptions ---

func (m *mockStore) GetSubscription(_ context.Context, userID int64) (*domain.Subscription, error) {
	for i := range m.subs {
		if m.subs[i].UserID == userID {
			s := m.subs[i]
			return &s, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "subscription", ID: fmt.Sprintf("%d", userID)}
}

func (m *mockStore) CreateSubscription(_ context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	s := *sub
	s.ID = m.id()
	m.subs = append(m.subs, s)
	return &s, nil
}

func (m *mockStore) UpdateSubscriptionPlan(_ context.Context, userID int64, plan string) error {
	for i := range m.subs {
		if m.subs[i].UserID == userID {
			m.subs[i].Plan = plan
			if plan != domain.PlanTrial {
				m.subs[i].TrialEndsAt = nil
			}
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "subscription", ID: fmt.Sprintf("%d", userID)}
}

// --- auth store ---

func (m *mockStore) GetCredentials(_ context.Context, userID int64) (*domain.AuthCredential, error) {
	if c, ok := m.creds[userID]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, &domain.ErrNotFound{Resource: "credentials", ID: fmt.Sprintf("%d", userID)}
}

func (m *mockStore) CreateCredentials(_ context.Context, cred *domain.AuthCredential) error {
	c := *cred
	m.creds[cred.UserID] = &c
	return nil
}

func (m *mockStore) UpdateCredentials(_ context.Context, userID int64, updates map[string]any) error {
	c, ok := m.creds[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "credentials", ID: fmt.Sprintf("%d", userID)}
	}
	if v, ok := updates["failed_attempts"].(int); ok {
		c.FailedAttempts = v
	}
	if v, ok := updates["password_hash"].(string); ok {
		c.PasswordHash = v
	}
	if v, ok := updates["locked_until"].(string); ok {
		t, _ := time.Parse(time.RFC3339, v)
		c.LockedUntil = &t
	} else if raw, present := updates["locked_until"]; present && raw == nil {
		c.LockedUntil = nil
	}
	return nil
}

func (m *mockStore) StoreRefreshToken(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	m.tokens[tokenHash] = &domain.AuthRefreshToken{
		ID:        m.id(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *mockStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	if t, ok := m.tokens[tokenHash]; ok {
		tt := *t
		return &tt, nil
	}
	return nil, &domain.ErrNotFound{Resource: "refresh token", ID: "hash"}
}

func (m *mockStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	if t, ok := m.tokens[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (m *mockStore) RevokeAllRefreshTokens(_ context.Context, userID int64) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

// --- shared fixtures ---

func newTestCore(store *mockStore) *FinanceService {
	return NewFinanceService(
		store,
		cache.New[[]domain.Transaction](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func intPtr(v int) *int         { return &v }
func int64Ptr(v int64) *int64   { return &v }
func floatPtr(v float64) *float64 { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
