package service

import (
	"context"

	"github.com/vastralabs/photoshoot/internal/gateway"
	"github.com/vastralabs/photoshoot/internal/models"
)

// Storage and collaborator ports consumed by the services. The repository
// and client packages implement them against MySQL, S3 and the external
// HTTP APIs; tests swap in in-memory fakes.

type LedgerStore interface {
	Debit(ctx context.Context, userID string, amount int, reason models.TxReason, correlationID string) (int, error)
	Credit(ctx context.Context, userID string, amount int, reason models.TxReason, correlationID string) (int, error)
	Balance(ctx context.Context, userID string) (int, error)
	History(ctx context.Context, userID string, limit int) ([]models.LedgerTransaction, error)
}

type OrderStore interface {
	CreatePending(ctx context.Context, order *models.PurchaseOrder) error
	GetByID(ctx context.Context, orderID string) (*models.PurchaseOrder, error)
	MarkCaptured(ctx context.Context, orderID string) error
	MarkCredited(ctx context.Context, orderID string) error
	MarkFailed(ctx context.Context, orderID, reason string) error
}

type GenerationStore interface {
	Record(ctx context.Context, gen *models.Generation, images []models.GenerationImage) error
}

type UserStore interface {
	Ensure(ctx context.Context, userID string) (*models.User, bool, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
}

// Synthesizer is the external image synthesis service.
type Synthesizer interface {
	Generate(ctx context.Context, prompt, size string) ([]byte, error)
}

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinorUnits int, currency, receipt string, notes map[string]string) (string, error)
	FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
}

// ImageStore holds generated images and serves them back for export.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
}
