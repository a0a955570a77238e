package models

import "time"

type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPremium PlanTier = "premium"
	PlanPro     PlanTier = "pro"
)

// TxReason tags every ledger transaction with the billable event that
// produced it.
type TxReason string

const (
	ReasonGenerationDebit TxReason = "generation-debit"
	ReasonPurchaseCredit  TxReason = "purchase-credit"
	ReasonAdjustment      TxReason = "adjustment"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderCaptured OrderStatus = "captured"
	OrderCredited OrderStatus = "credited"
	OrderFailed   OrderStatus = "failed"
)

type SlotStatus string

const (
	SlotPending   SlotStatus = "pending"
	SlotSucceeded SlotStatus = "succeeded"
	SlotFailed    SlotStatus = "failed"
)

type User struct {
	ID        string
	Plan      PlanTier
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerTransaction is an immutable balance-affecting record. The user's
// credit balance is always the sum of these deltas; the cached column on
// the users row is a projection, not the source of truth.
type LedgerTransaction struct {
	ID            int64
	UserID        string
	Delta         int
	Reason        TxReason
	CorrelationID string
	CreatedAt     time.Time
}

type PurchaseOrder struct {
	ID             string
	UserID         string
	Amount         int // currency minor units
	Credits        int
	Status         OrderStatus
	GatewayOrderID string
	FailReason     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Generation struct {
	ID             string
	UserID         string
	ProductRef     string
	ModelID        string
	PoseID         string
	SceneID        string
	Prompt         string
	Requested      int
	Succeeded      int
	CreditsCharged int
	CreatedAt      time.Time
}

// GenerationImage is the per-slot outcome of one synthesis call within a
// batch.
type GenerationImage struct {
	ID           int64
	GenerationID string
	Slot         int
	Status       SlotStatus
	ImageURL     string
	Error        string
	CreatedAt    time.Time
}
