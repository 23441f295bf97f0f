package usecase

import (
	"context"
	"time"

	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ LimitsUseCase = (*limitsUC)(nil)

// Availability is the outcome of the message-count gate. Message carries the
// user-facing denial reason and Kind the sentinel of the ceiling that
// tripped; both are empty when OK.
type Availability struct {
	OK      bool
	Message string
	Kind    error
}

type LimitsUseCase interface {
	CheckAvailability(ctx context.Context, userID string, tier model.Tier, modelName string) (Availability, error)
	IncrementCount(ctx context.Context, userID, modelName string) error
}

type limitsUC struct {
	counters repository.MessageCounterRepository
	now      func() time.Time
}

func NewLimitsUseCase(counters repository.MessageCounterRepository) *limitsUC {
	return &limitsUC{counters: counters, now: time.Now}
}

const (
	msgTotalLimit   = "Dosegnut je mjesečni limit poruka."
	msgPremiumLimit = "Dosegnut je mjesečni limit poruka za premium modele."
)

func (l *limitsUC) CheckAvailability(ctx context.Context, userID string, tier model.Tier, modelName string) (Availability, error) {
	limits := model.LimitsFor(tier)
	total, premium, err := l.counters.Counts(ctx, userID, model.BillingPeriod(l.now()))
	if err != nil {
		return Availability{}, err
	}
	if model.IsPremiumModel(modelName) && premium >= int64(limits.PremiumModelMessages) {
		return Availability{OK: false, Message: msgPremiumLimit, Kind: domain.ErrPremiumLimitReached}, nil
	}
	if total >= int64(limits.TotalMessages) {
		return Availability{OK: false, Message: msgTotalLimit, Kind: domain.ErrTotalLimitReached}, nil
	}
	return Availability{OK: true}, nil
}

// IncrementCount runs once per completed model turn, after the stream ends.
func (l *limitsUC) IncrementCount(ctx context.Context, userID, modelName string) error {
	return l.counters.Increment(ctx, userID, model.BillingPeriod(l.now()), model.IsPremiumModel(modelName))
}
