package subscription

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manatomanato/line-uranai-bot/pkg/logger"
)

// Config selects the store backend and the free-trial allowance.
type Config struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"file"` // "file" or "mongo"
	FilePath   string `env:"STORE_FILE" envDefault:"paidUsers.json"`
	Collection string `env:"STORE_COLLECTION" envDefault:"subscribers"`

	// FreeMessageLimit is the number of messages an unpaid user may send
	// before being gated. Zero disables the free trial entirely.
	FreeMessageLimit int64 `env:"FREE_MESSAGE_LIMIT" envDefault:"0"`
}

// Verdict is the gating decision for one inbound message.
type Verdict int

const (
	// VerdictPaid grants a generated reply to a paid subscriber.
	VerdictPaid Verdict = iota
	// VerdictTrial grants a generated reply within the free-trial quota;
	// the user's message counter has already been incremented.
	VerdictTrial
	// VerdictExhausted denies a generated reply; the user gets the payment prompt.
	VerdictExhausted
)

// Service makes the per-message gating decision on top of a Store.
type Service struct {
	store     Store
	freeLimit int64
	log       *slog.Logger
}

// NewService creates a gating service. Panics on a nil store to fail fast
// during process wiring.
func NewService(store Store, freeLimit int64, log *slog.Logger) *Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, freeLimit: freeLimit, log: log}
}

// Admit decides whether the user gets a generated reply. The decision never
// fails: a store read error degrades to a default unpaid record, and a
// counter-increment error grants the reply anyway, because delivering to the
// user outweighs trial bookkeeping.
func (s *Service) Admit(ctx context.Context, userID string) Verdict {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.log.ErrorContext(ctx, "subscriber lookup failed, treating as unpaid",
				logger.UserID(userID), logger.Error(err))
		}
		rec = &Record{UserID: userID}
	}

	if rec.Paid {
		return VerdictPaid
	}

	if s.freeLimit <= 0 || rec.MessageCount >= s.freeLimit {
		return VerdictExhausted
	}

	count, err := s.store.IncrementMessageCount(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "trial counter increment failed, granting reply",
			logger.UserID(userID), logger.Error(err))
		return VerdictTrial
	}

	// Concurrent deliveries can race past the limit between the read and
	// the increment; deny the overshoot instead of replying.
	if count > s.freeLimit {
		return VerdictExhausted
	}
	return VerdictTrial
}

// TrialEnabled reports whether a free-trial quota is configured. The relay
// uses it to pick between the trial-exhausted and plain subscribe prompts.
func (s *Service) TrialEnabled() bool {
	return s.freeLimit > 0
}
