package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a nil meter is passed to a constructor
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// BusinessMetrics counts block actions, ledger movements and referral payouts
type BusinessMetrics struct {
	blockActions     *Counter
	ledgerTxTotal    *Counter
	ledgerAmount     *Counter
	ledgerRejections *Counter
	dailyStreak      *Histogram
	referralPayouts  *Counter
}

// NewBusinessMetrics registers the business instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BusinessMetrics{}
	var err error
	if bm.blockActions, err = NewCounter(meter, "memberhub_block_actions_total",
		"Authorized block and unblock requests", "{requests}"); err != nil {
		return nil, err
	}
	if bm.ledgerTxTotal, err = NewCounter(meter, "memberhub_ledger_transactions_total",
		"Committed ledger transactions", "{transactions}"); err != nil {
		return nil, err
	}
	if bm.ledgerAmount, err = NewCounter(meter, "memberhub_ledger_amount_total",
		"Sum of committed ledger amounts in the source currency", "{units}"); err != nil {
		return nil, err
	}
	if bm.ledgerRejections, err = NewCounter(meter, "memberhub_ledger_rejections_total",
		"Ledger operations rejected with a domain error", "{operations}"); err != nil {
		return nil, err
	}
	if bm.dailyStreak, err = NewHistogram(meter, "memberhub_daily_reward_streak",
		"Streak length reached by successful daily claims", "{days}",
		1, 2, 3, 5, 7, 14, 30, 60, 100); err != nil {
		return nil, err
	}
	if bm.referralPayouts, err = NewCounter(meter, "memberhub_referral_payouts_total",
		"Referral payout attempts by outcome", "{payouts}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordBlockAction counts an authorized block or unblock
func (bm *BusinessMetrics) RecordBlockAction(ctx context.Context, action string, changed bool) {
	bm.blockActions.Inc(ctx, AttrAction.String(action), AttrChanged.Bool(changed))
}

// RecordLedgerTransaction counts a committed movement
func (bm *BusinessMetrics) RecordLedgerTransaction(ctx context.Context, kind, currency string, amount int64) {
	bm.ledgerTxTotal.Inc(ctx, AttrKind.String(kind), AttrCurrency.String(currency))
	bm.ledgerAmount.Add(ctx, amount, AttrKind.String(kind), AttrCurrency.String(currency))
}

// RecordLedgerRejection counts an operation refused with code
func (bm *BusinessMetrics) RecordLedgerRejection(ctx context.Context, kind, code string) {
	bm.ledgerRejections.Inc(ctx, AttrKind.String(kind), AttrCode.String(code))
}

// RecordDailyClaim records the streak reached by a claim
func (bm *BusinessMetrics) RecordDailyClaim(ctx context.Context, streak int) {
	bm.dailyStreak.Record(ctx, int64(streak))
}

// RecordReferralPayout counts a payout attempt
func (bm *BusinessMetrics) RecordReferralPayout(ctx context.Context, status string) {
	bm.referralPayouts.Inc(ctx, AttrStatus.String(status))
}
