package ledger

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/logger"
	"github.com/memberhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LedgerService moves points and credits between accounts. Every mutation
// locks the involved account rows in ascending id order and commits the
// balance change together with its Transaction row.
type LedgerService struct {
	accounts        member.AccountRepository
	transactions    ledger.TransactionRepository
	dailyRewards    ledger.DailyRewardRepository
	txManager       shared.TxManager
	publisher       shared.EventPublisher
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
	now             func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	accounts member.AccountRepository,
	transactions ledger.TransactionRepository,
	dailyRewards ledger.DailyRewardRepository,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		accounts:     accounts,
		transactions: transactions,
		dailyRewards: dailyRewards,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// SetBusinessMetrics enables ledger counters
func (s *LedgerService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetClock replaces the clock used to decide the current UTC day
func (s *LedgerService) SetClock(now func() time.Time) {
	s.now = now
}

// Transfer moves Amount of Currency from FromID to ToID. A repeated
// IdempotencyKey from the same sender returns the original transaction.
func (s *LedgerService) Transfer(ctx context.Context, in TransferInput) (*TransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "transfer",
		telemetry.WithAttribute(telemetry.SpanAttrFromID, in.FromID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrToID, in.ToID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, in.Amount),
	)
	defer span.End()

	currency, err := ledger.ParseCurrency(string(in.Currency))
	if err != nil {
		return nil, s.reject(ctx, ledger.KindTransfer, err)
	}
	tx, err := ledger.NewTransfer(in.FromID, in.ToID, currency, in.Amount, in.Description)
	if err != nil {
		return nil, s.reject(ctx, ledger.KindTransfer, err)
	}
	tx.WithIdempotencyKey(ledger.TransferIdempotencyKey(in.FromID, in.IdempotencyKey))

	committed, err := s.apply(ctx, tx, in.FromID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToTransactionResponse(committed)
	return &resp, nil
}

// PayReferralReward moves amount points from the agency to a new signup.
// The payout is keyed on the new account, so it is made at most once.
func (s *LedgerService) PayReferralReward(ctx context.Context, agencyID, newAccountID uuid.UUID, amount int64) (*ledger.Transaction, error) {
	tx, err := ledger.NewReferralReward(agencyID, newAccountID, amount)
	if err != nil {
		return nil, s.reject(ctx, ledger.KindReferralReward, err)
	}
	tx.WithIdempotencyKey(ledger.ReferralIdempotencyKey(newAccountID))
	return s.apply(ctx, tx, agencyID)
}

// ExchangeCreditsToPoints converts credits into credits*rate points on the same account
func (s *LedgerService) ExchangeCreditsToPoints(ctx context.Context, accountID uuid.UUID, credits, rate int64) (*TransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "exchange",
		telemetry.WithAttribute(telemetry.SpanAttrAmount, credits))
	defer span.End()

	if credits <= 0 {
		return nil, s.reject(ctx, ledger.KindExchange, shared.InvalidArgument("Amount must be positive"))
	}
	if rate <= 0 {
		return nil, s.reject(ctx, ledger.KindExchange, shared.InvalidArgument("Exchange rate must be positive"))
	}
	if credits > math.MaxInt64/rate {
		return nil, s.reject(ctx, ledger.KindExchange, shared.InvalidArgument("Amount is too large to exchange"))
	}

	tx, err := ledger.NewExchange(accountID, credits, credits*rate, rate)
	if err != nil {
		return nil, s.reject(ctx, ledger.KindExchange, err)
	}
	committed, err := s.apply(ctx, tx, accountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToTransactionResponse(committed)
	return &resp, nil
}

// PurchasePoints credits points bought with a confirmed external payment.
// The payment reference is the idempotency key: a repeated reference returns
// the transaction recorded the first time.
func (s *LedgerService) PurchasePoints(ctx context.Context, accountID uuid.UUID, points int64, paymentRef string) (*TransactionResponse, error) {
	tx, err := ledger.NewPurchase(accountID, points, paymentRef)
	if err != nil {
		return nil, s.reject(ctx, ledger.KindPurchase, err)
	}
	committed, err := s.apply(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(committed)
	return &resp, nil
}

// ClaimDailyReward grants reward points once per UTC day. Claiming on the day
// after the previous claim extends the streak; any other gap resets it to 1.
func (s *LedgerService) ClaimDailyReward(ctx context.Context, accountID uuid.UUID, reward int64) (*DailyClaimResult, error) {
	if reward <= 0 {
		return nil, s.reject(ctx, ledger.KindDailyReward, shared.InvalidArgument("Reward must be positive"))
	}
	now := s.now()

	var (
		state *ledger.DailyRewardState
		tx    *ledger.Transaction
	)
	err := s.txManager.Execute(ctx, func(ctx context.Context) error {
		state, tx = nil, nil

		locked, err := s.accounts.FindForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		account := locked[accountID]
		if account.IsBlocked {
			return shared.ErrBlockedAccount
		}

		state, err = s.dailyRewards.FindByAccountID(ctx, accountID)
		if errors.Is(err, shared.ErrNotFound) {
			state = ledger.NewDailyRewardState(accountID)
		} else if err != nil {
			return err
		}

		previous := state.LastClaimDate
		if err := state.Claim(now); err != nil {
			return err
		}
		if previous.IsZero() {
			if err := s.dailyRewards.Insert(ctx, state); err != nil {
				if errors.Is(err, shared.ErrAlreadyExists) {
					return shared.ErrAlreadyClaimedToday
				}
				return err
			}
		} else {
			swapped, err := s.dailyRewards.CompareAndSwap(ctx, state, previous)
			if err != nil {
				return err
			}
			if !swapped {
				return shared.ErrAlreadyClaimedToday
			}
		}

		tx, err = ledger.NewDailyReward(accountID, reward, state.Streak)
		if err != nil {
			return err
		}
		if err := ledger.Credit(account, ledger.CurrencyPoints, reward); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalances(ctx, account); err != nil {
			return err
		}
		return s.transactions.Create(ctx, tx)
	})
	if err != nil {
		return nil, s.reject(ctx, ledger.KindDailyReward, err)
	}

	s.committed(ctx, tx, accountID)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordDailyClaim(ctx, state.Streak)
	}
	s.publish(ctx, ledger.NewDailyRewardClaimedEvent(accountID, reward, state.Streak))

	return &DailyClaimResult{
		Streak:      state.Streak,
		Reward:      reward,
		Transaction: ToTransactionResponse(tx),
	}, nil
}

// GetBalance returns both balances of an account
func (s *LedgerService) GetBalance(ctx context.Context, accountID uuid.UUID) (*BalanceResponse, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		AccountID: account.ID,
		Points:    account.PointsBalance,
		Credits:   account.CreditsBalance,
	}, nil
}

// ListTransactions lists transactions touching accountID, newest first
func (s *LedgerService) ListTransactions(ctx context.Context, accountID uuid.UUID, filter ledger.TransactionFilter) (*shared.Paginated[TransactionResponse], error) {
	filter.Filter = filter.Filter.Normalize()
	if filter.Currency != nil && !filter.Currency.IsValid() {
		return nil, shared.InvalidArgument("Unknown currency: " + string(*filter.Currency))
	}
	if filter.Kind != nil && !filter.Kind.IsValid() {
		return nil, shared.InvalidArgument("Unknown transaction kind: " + string(*filter.Kind))
	}
	txs, total, err := s.transactions.FindByAccount(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToTransactionResponses(txs), total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetDailyRewardState reports the claim state of an account
func (s *LedgerService) GetDailyRewardState(ctx context.Context, accountID uuid.UUID) (*DailyRewardStateResponse, error) {
	state, err := s.dailyRewards.FindByAccountID(ctx, accountID)
	if errors.Is(err, shared.ErrNotFound) {
		return &DailyRewardStateResponse{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &DailyRewardStateResponse{
		LastClaimDate: string(state.LastClaimDate),
		Streak:        state.Streak,
		ClaimedToday:  state.LastClaimDate == ledger.DateOf(s.now()),
	}, nil
}

// apply commits tx: it locks every involved account, refuses blocked
// parties (purchases excepted), debits the source, credits the destination
// and stores tx. With an idempotency key already on record the stored
// transaction is returned and nothing moves.
func (s *LedgerService) apply(ctx context.Context, tx *ledger.Transaction, actorID uuid.UUID) (*ledger.Transaction, error) {
	if tx.IdempotencyKey != "" {
		existing, err := s.transactions.FindByIdempotencyKey(ctx, tx.IdempotencyKey)
		if err == nil {
			logger.Enrich(ctx, s.logger).Info("Idempotent ledger replay",
				zap.String("idempotency_key", tx.IdempotencyKey),
				zap.String("transaction_id", existing.ID.String()),
			)
			return existing, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	err := s.txManager.Execute(ctx, func(ctx context.Context) error {
		var ids []uuid.UUID
		if tx.FromAccountID != nil {
			ids = append(ids, *tx.FromAccountID)
		}
		if tx.ToAccountID != nil {
			ids = append(ids, *tx.ToAccountID)
		}
		locked, err := s.accounts.FindForUpdate(ctx, ids...)
		if err != nil {
			return err
		}

		if tx.Kind != ledger.KindPurchase {
			for _, id := range ids {
				if locked[id].IsBlocked {
					return shared.ErrBlockedAccount
				}
			}
		}

		if tx.FromAccountID != nil {
			if err := ledger.Debit(locked[*tx.FromAccountID], tx.Currency, tx.Amount); err != nil {
				return err
			}
		}
		if tx.ToAccountID != nil {
			if err := ledger.Credit(locked[*tx.ToAccountID], tx.CreditedCurrency(), tx.CreditedAmount); err != nil {
				return err
			}
		}
		for _, id := range member.LockOrder(ids...) {
			if err := s.accounts.UpdateBalances(ctx, locked[id]); err != nil {
				return err
			}
		}
		return s.transactions.Create(ctx, tx)
	})
	if err != nil {
		// a concurrent request with the same key won the insert
		if tx.IdempotencyKey != "" && errors.Is(err, shared.ErrAlreadyExists) {
			return s.transactions.FindByIdempotencyKey(ctx, tx.IdempotencyKey)
		}
		return nil, s.reject(ctx, tx.Kind, err)
	}

	s.committed(ctx, tx, actorID)
	s.publish(ctx, ledger.NewTransferCompletedEvent(tx, actorID))
	return tx, nil
}

func (s *LedgerService) committed(ctx context.Context, tx *ledger.Transaction, actorID uuid.UUID) {
	logger.Enrich(ctx, s.logger).Info("Ledger transaction committed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("kind", string(tx.Kind)),
		zap.String("currency", string(tx.Currency)),
		zap.Int64("amount", tx.Amount),
		zap.String("actor_id", actorID.String()),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordLedgerTransaction(ctx, string(tx.Kind), string(tx.Currency), tx.Amount)
	}
}

// reject logs and counts a refused operation, then returns err unchanged
func (s *LedgerService) reject(ctx context.Context, kind ledger.TransactionKind, err error) error {
	code := shared.CodeOf(err)
	log := logger.Enrich(ctx, s.logger).With(zap.String("kind", string(kind)))
	if code == "" {
		log.Error("Ledger operation failed", zap.Error(err))
		return err
	}
	log.Info("Ledger operation rejected", zap.String("code", code), zap.String("reason", err.Error()))
	if s.businessMetrics != nil {
		s.businessMetrics.RecordLedgerRejection(ctx, string(kind), code)
	}
	return err
}

func (s *LedgerService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.Enrich(ctx, s.logger).Error("Failed to publish ledger events", zap.Error(err))
	}
}
