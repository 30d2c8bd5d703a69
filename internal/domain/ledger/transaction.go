package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// TransactionKind classifies a ledger movement
type TransactionKind string

const (
	KindTransfer       TransactionKind = "transfer"
	KindExchange       TransactionKind = "exchange"
	KindPurchase       TransactionKind = "purchase"
	KindDailyReward    TransactionKind = "daily_reward"
	KindReferralReward TransactionKind = "referral_reward"
)

// IsValid checks if the kind value is valid
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindTransfer, KindExchange, KindPurchase, KindDailyReward, KindReferralReward:
		return true
	}
	return false
}

const maxDescriptionLength = 255

// Transaction is an immutable record of one balance movement.
//
// Amount is what left the source (or, for system grants, what was granted) in
// Currency. CreditedAmount is what reached the destination; it differs from
// Amount only for exchanges, where credits are converted into points.
type Transaction struct {
	ID             uuid.UUID
	FromAccountID  *uuid.UUID
	ToAccountID    *uuid.UUID
	Currency       Currency
	Amount         int64
	CreditedAmount int64
	Kind           TransactionKind
	Description    string
	Reference      string
	IdempotencyKey string
	CreatedAt      time.Time
}

func newTransaction(kind TransactionKind, from, to *uuid.UUID, currency Currency, amount int64, description string) (*Transaction, error) {
	if !kind.IsValid() {
		return nil, shared.InvalidArgument("Unknown transaction kind")
	}
	if !currency.IsValid() {
		return nil, shared.InvalidArgument("Unknown currency")
	}
	if amount <= 0 {
		return nil, shared.InvalidArgument("Amount must be positive")
	}
	if from == nil && to == nil {
		return nil, shared.InvalidArgument("Transaction needs at least one account")
	}
	description = strings.TrimSpace(description)
	if len([]rune(description)) > maxDescriptionLength {
		return nil, shared.InvalidArgument("Description cannot exceed 255 characters")
	}
	return &Transaction{
		ID:             uuid.New(),
		FromAccountID:  from,
		ToAccountID:    to,
		Currency:       currency,
		Amount:         amount,
		CreditedAmount: amount,
		Kind:           kind,
		Description:    description,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// NewTransfer records a movement between two accounts in one currency
func NewTransfer(from, to uuid.UUID, currency Currency, amount int64, description string) (*Transaction, error) {
	if from == to {
		return nil, shared.InvalidArgument("Cannot transfer to the same account")
	}
	return newTransaction(KindTransfer, &from, &to, currency, amount, description)
}

// NewReferralReward records the agency-funded signup payout
func NewReferralReward(agencyID, newAccountID uuid.UUID, amount int64) (*Transaction, error) {
	if agencyID == newAccountID {
		return nil, shared.InvalidArgument("Cannot transfer to the same account")
	}
	return newTransaction(KindReferralReward, &agencyID, &newAccountID, CurrencyPoints, amount, "referral reward")
}

// NewExchange records credits converted into points on the same account
func NewExchange(accountID uuid.UUID, credits, points int64, rate int64) (*Transaction, error) {
	tx, err := newTransaction(KindExchange, &accountID, &accountID, CurrencyCredits, credits, "")
	if err != nil {
		return nil, err
	}
	tx.CreditedAmount = points
	tx.Description = "exchange credits to points at rate " + formatInt(rate)
	return tx, nil
}

// NewPurchase records points bought with a confirmed external payment
func NewPurchase(accountID uuid.UUID, points int64, paymentRef string) (*Transaction, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, shared.InvalidArgument("A confirmed payment reference is required")
	}
	tx, err := newTransaction(KindPurchase, nil, &accountID, CurrencyPoints, points, "points purchase")
	if err != nil {
		return nil, err
	}
	tx.Reference = paymentRef
	tx.IdempotencyKey = PurchaseIdempotencyKey(paymentRef)
	return tx, nil
}

// NewDailyReward records a daily login grant
func NewDailyReward(accountID uuid.UUID, amount int64, streak int) (*Transaction, error) {
	return newTransaction(KindDailyReward, nil, &accountID, CurrencyPoints, amount, "daily reward, streak "+formatInt(int64(streak)))
}

// CreditedCurrency is the currency the destination receives. Exchanges pay
// out points for the credits they consume; every other kind stays in Currency.
func (t *Transaction) CreditedCurrency() Currency {
	if t.Kind == KindExchange {
		return CurrencyPoints
	}
	return t.Currency
}

// WithIdempotencyKey attaches a client supplied key
func (t *Transaction) WithIdempotencyKey(key string) *Transaction {
	t.IdempotencyKey = strings.TrimSpace(key)
	return t
}

// PurchaseIdempotencyKey derives the idempotency key of a purchase from its payment reference
func PurchaseIdempotencyKey(paymentRef string) string {
	return "purchase:" + strings.TrimSpace(paymentRef)
}

// TransferIdempotencyKey scopes a client supplied key to the sending account
func TransferIdempotencyKey(fromID uuid.UUID, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return "transfer:" + fromID.String() + ":" + key
}

// ReferralIdempotencyKey derives the idempotency key of a signup payout
func ReferralIdempotencyKey(newAccountID uuid.UUID) string {
	return "referral:" + newAccountID.String()
}

// TransactionFilter narrows a transaction listing for one account
type TransactionFilter struct {
	Currency *Currency
	Kind     *TransactionKind
	DateFrom *time.Time
	DateTo   *time.Time
	shared.Filter
}
