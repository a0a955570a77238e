package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vastralabs/photoshoot/internal/config"
	"github.com/vastralabs/photoshoot/internal/models"
)

// UserService creates accounts on first authentication and exposes the
// ledger-derived account overview.
type UserService struct {
	cfg    config.Config
	log    *slog.Logger
	users  UserStore
	ledger LedgerStore
}

type AccountOverview struct {
	UserID  string
	Plan    models.PlanTier
	Credits int
	History []models.LedgerTransaction
}

func NewUserService(cfg config.Config, log *slog.Logger, users UserStore, ledger LedgerStore) *UserService {
	return &UserService{cfg: cfg, log: log, users: users, ledger: ledger}
}

// Ensure returns the account for an authenticated user id, creating it
// with the free plan and the signup bonus on first sight. The bonus lands
// through the ledger so the transaction log stays the source of truth.
func (s *UserService) Ensure(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id cannot be empty")
	}
	user, created, err := s.users.Ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	if created && s.cfg.SignupBonusCredits > 0 {
		balance, err := s.ledger.Credit(ctx, userID, s.cfg.SignupBonusCredits, models.ReasonAdjustment, "signup:"+userID)
		if err != nil {
			return nil, fmt.Errorf("grant signup bonus: %w", err)
		}
		user.Credits = balance
		s.log.Info("user created", "user", userID, "signup_credits", s.cfg.SignupBonusCredits)
	}
	return user, nil
}

func (s *UserService) Overview(ctx context.Context, userID string) (*AccountOverview, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.ledger.History(ctx, userID, 50)
	if err != nil {
		return nil, err
	}
	return &AccountOverview{
		UserID:  userID,
		Plan:    user.Plan,
		Credits: balance,
		History: history,
	}, nil
}

// Adjust applies a manual signed credit adjustment, for support and
// goodwill flows. Positive deltas credit, negative deltas debit through
// the same insufficient-credits check as any other debit.
func (s *UserService) Adjust(ctx context.Context, userID string, delta int, note string) (int, error) {
	if delta == 0 {
		return 0, fmt.Errorf("adjustment delta cannot be zero")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("user %s not found", userID)
	}

	var balance int
	if delta > 0 {
		balance, err = s.ledger.Credit(ctx, userID, delta, models.ReasonAdjustment, note)
	} else {
		balance, err = s.ledger.Debit(ctx, userID, -delta, models.ReasonAdjustment, note)
	}
	if err != nil {
		return 0, err
	}
	s.log.Info("manual adjustment applied", "user", userID, "delta", delta, "note", note, "balance", balance)
	return balance, nil
}
