package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/vastralabs/photoshoot/internal/config"
	"github.com/vastralabs/photoshoot/internal/gateway"
	"github.com/vastralabs/photoshoot/internal/models"
)

// PaymentService reconciles asynchronous gateway callbacks against locally
// created pending orders. Double delivery of a callback is expected; the
// order state machine plus the ledger's correlation-id dedupe make the
// credit happen exactly once.
type PaymentService struct {
	cfg     config.Config
	log     *slog.Logger
	orders  OrderStore
	ledger  LedgerStore
	gateway PaymentGateway
}

type CreateOrderResult struct {
	OrderID        string
	GatewayOrderID string
	Amount         int
	Currency       string
	Receipt        string
}

func NewPaymentService(cfg config.Config, log *slog.Logger, orders OrderStore, ledger LedgerStore, gw PaymentGateway) *PaymentService {
	return &PaymentService{
		cfg:     cfg,
		log:     log,
		orders:  orders,
		ledger:  ledger,
		gateway: gw,
	}
}

// CreateOrder registers the purchase with the gateway and records a local
// Pending order linked to the gateway's order id. The returned handle is
// what the client-side checkout needs.
func (s *PaymentService) CreateOrder(ctx context.Context, userID string, amountMinorUnits, credits int) (*CreateOrderResult, error) {
	if amountMinorUnits <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if credits <= 0 {
		return nil, fmt.Errorf("credits must be positive")
	}

	receipt := "receipt_" + uuid.NewString()
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amountMinorUnits, s.cfg.PaymentCurrency, receipt, map[string]string{
		"user_id": userID,
		"credits": strconv.Itoa(credits),
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	order := &models.PurchaseOrder{
		ID:             uuid.NewString(),
		UserID:         userID,
		Amount:         amountMinorUnits,
		Credits:        credits,
		GatewayOrderID: gatewayOrderID,
	}
	if err := s.orders.CreatePending(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("purchase order created", "order_id", order.ID, "gateway_order_id", gatewayOrderID, "user", userID, "credits", credits)

	return &CreateOrderResult{
		OrderID:        order.ID,
		GatewayOrderID: gatewayOrderID,
		Amount:         amountMinorUnits,
		Currency:       s.cfg.PaymentCurrency,
		Receipt:        receipt,
	}, nil
}

// ConfirmPayment verifies a payment against the gateway and credits the
// ledger exactly once for the order. Safe to call repeatedly for the same
// order: a second confirmation of a Credited order succeeds without
// re-crediting. Returns the user's balance after crediting.
func (s *PaymentService) ConfirmPayment(ctx context.Context, orderID, gatewayPaymentID string) (int, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return 0, err
	}

	switch order.Status {
	case models.OrderCredited:
		// Gateway retried its callback after we settled; idempotent success.
		return s.ledger.Balance(ctx, order.UserID)
	case models.OrderFailed:
		return 0, fmt.Errorf("%w: order already failed", models.ErrInvalidTransition)
	}

	payment, err := s.gateway.FetchPayment(ctx, gatewayPaymentID)
	if err != nil {
		return 0, fmt.Errorf("fetch gateway payment: %w", err)
	}
	if payment.Status != gateway.StatusCaptured || payment.OrderID != order.GatewayOrderID {
		s.log.Warn("payment verification failed",
			"order_id", orderID, "payment_id", gatewayPaymentID,
			"gateway_status", payment.Status, "gateway_order_id", payment.OrderID)
		return 0, models.ErrVerificationFailed
	}

	if order.Status == models.OrderPending {
		if err := s.orders.MarkCaptured(ctx, orderID); err != nil && !errors.Is(err, models.ErrInvalidTransition) {
			return 0, err
		}
		// An InvalidTransition here means a concurrent confirmation moved
		// the order past Pending already; MarkCredited below settles who
		// credits.
	}

	if err := s.orders.MarkCredited(ctx, orderID); err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			current, getErr := s.orders.GetByID(ctx, orderID)
			if getErr == nil && current.Status == models.OrderCredited {
				// A concurrent confirmation won the CAS. Its ledger credit
				// may not have committed yet, so this balance can lag by one
				// credit for a moment; the ledger itself is exact.
				return s.ledger.Balance(ctx, order.UserID)
			}
		}
		return 0, err
	}

	balance, err := s.ledger.Credit(ctx, order.UserID, order.Credits, models.ReasonPurchaseCredit, orderID)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateCredit) {
			// The ledger's own guard caught a replay the state machine let
			// through. Surfacing it as success is correct; log it loudly
			// because it indicates the gate was bypassed.
			s.log.Error("duplicate credit blocked by ledger", "order_id", orderID, "user", order.UserID)
			return s.ledger.Balance(ctx, order.UserID)
		}
		return 0, fmt.Errorf("credit ledger for order %s: %w", orderID, err)
	}

	s.log.Info("payment credited", "order_id", orderID, "user", order.UserID, "credits", order.Credits, "balance", balance)
	return balance, nil
}
