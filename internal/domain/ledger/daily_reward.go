package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// CalendarDate is a UTC calendar day in YYYY-MM-DD form
type CalendarDate string

const calendarLayout = "2006-01-02"

// DateOf returns the UTC calendar day containing t
func DateOf(t time.Time) CalendarDate {
	return CalendarDate(t.UTC().Format(calendarLayout))
}

// AddDays shifts the date by n days. An unparsable date is returned unchanged.
func (d CalendarDate) AddDays(n int) CalendarDate {
	t, err := time.Parse(calendarLayout, string(d))
	if err != nil {
		return d
	}
	return CalendarDate(t.AddDate(0, 0, n).Format(calendarLayout))
}

// IsZero reports whether the date was never set
func (d CalendarDate) IsZero() bool {
	return d == ""
}

// DailyRewardState tracks an account's last daily claim and its consecutive-day streak
type DailyRewardState struct {
	AccountID     uuid.UUID
	LastClaimDate CalendarDate
	Streak        int
	UpdatedAt     time.Time
}

// NewDailyRewardState returns the state of an account that never claimed
func NewDailyRewardState(accountID uuid.UUID) *DailyRewardState {
	return &DailyRewardState{AccountID: accountID}
}

// IsNew reports whether this account has never claimed
func (s *DailyRewardState) IsNew() bool {
	return s.LastClaimDate.IsZero()
}

// Claim registers a claim at now. A claim on the day right after the previous
// one extends the streak; any longer gap restarts it at 1. A second claim on
// the same UTC day fails with ErrAlreadyClaimedToday and leaves s untouched.
func (s *DailyRewardState) Claim(now time.Time) error {
	today := DateOf(now)
	if s.LastClaimDate == today {
		return shared.ErrAlreadyClaimedToday
	}
	if !s.LastClaimDate.IsZero() && s.LastClaimDate.AddDays(1) == today {
		s.Streak++
	} else {
		s.Streak = 1
	}
	s.LastClaimDate = today
	s.UpdatedAt = now.UTC()
	return nil
}

// DailyRewardClaimedEvent is published after a successful daily claim
type DailyRewardClaimedEvent struct {
	shared.BaseDomainEvent
	Reward int64 `json:"reward"`
	Streak int   `json:"streak"`
}

// NewDailyRewardClaimedEvent creates a new DailyRewardClaimedEvent
func NewDailyRewardClaimedEvent(accountID uuid.UUID, reward int64, streak int) *DailyRewardClaimedEvent {
	return &DailyRewardClaimedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDailyRewardClaimed, AggregateTypeLedger, accountID, accountID),
		Reward:          reward,
		Streak:          streak,
	}
}
