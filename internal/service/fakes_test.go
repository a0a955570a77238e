package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/vastralabs/photoshoot/internal/gateway"
	"github.com/vastralabs/photoshoot/internal/models"
)

// In-memory fakes implementing the storage and collaborator ports with the
// same invariants as the MySQL-backed repositories.

type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int
	txs      []models.LedgerTransaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int)}
}

func (f *fakeLedger) Debit(ctx context.Context, userID string, amount int, reason models.TxReason, correlationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < amount {
		return 0, models.ErrInsufficientCredits
	}
	f.balances[userID] -= amount
	f.txs = append(f.txs, models.LedgerTransaction{
		UserID: userID, Delta: -amount, Reason: reason, CorrelationID: correlationID,
	})
	return f.balances[userID], nil
}

func (f *fakeLedger) Credit(ctx context.Context, userID string, amount int, reason models.TxReason, correlationID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reason == models.ReasonPurchaseCredit && correlationID != "" {
		for _, tx := range f.txs {
			if tx.Reason == reason && tx.CorrelationID == correlationID {
				return 0, models.ErrDuplicateCredit
			}
		}
	}
	f.balances[userID] += amount
	f.txs = append(f.txs, models.LedgerTransaction{
		UserID: userID, Delta: amount, Reason: reason, CorrelationID: correlationID,
	})
	return f.balances[userID], nil
}

func (f *fakeLedger) Balance(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeLedger) History(ctx context.Context, userID string, limit int) ([]models.LedgerTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerTransaction
	for i := len(f.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.txs[i].UserID == userID {
			out = append(out, f.txs[i])
		}
	}
	return out, nil
}

// sumDeltas verifies the ledger invariant: the log always sums to the
// cached balance.
func (f *fakeLedger) sumDeltas(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, tx := range f.txs {
		if tx.UserID == userID {
			sum += tx.Delta
		}
	}
	return sum
}

func (f *fakeLedger) transactions(userID string, reason models.TxReason) []models.LedgerTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerTransaction
	for _, tx := range f.txs {
		if tx.UserID == userID && tx.Reason == reason {
			out = append(out, tx)
		}
	}
	return out
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]*models.PurchaseOrder
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[string]*models.PurchaseOrder)}
}

func (f *fakeOrders) CreatePending(ctx context.Context, order *models.PurchaseOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.orders[order.ID]; exists {
		return models.ErrDuplicateOrder
	}
	order.Status = models.OrderPending
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrders) GetByID(ctx context.Context, orderID string) (*models.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) MarkCaptured(ctx context.Context, orderID string) error {
	return f.transition(orderID, models.OrderCaptured, models.OrderPending)
}

func (f *fakeOrders) MarkCredited(ctx context.Context, orderID string) error {
	return f.transition(orderID, models.OrderCredited, models.OrderCaptured)
}

func (f *fakeOrders) MarkFailed(ctx context.Context, orderID, reason string) error {
	err := f.transition(orderID, models.OrderFailed, models.OrderPending, models.OrderCaptured)
	if err == nil {
		f.mu.Lock()
		f.orders[orderID].FailReason = reason
		f.mu.Unlock()
	}
	return err
}

func (f *fakeOrders) transition(orderID string, to models.OrderStatus, from ...models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrOrderNotFound
	}
	for _, s := range from {
		if o.Status == s {
			o.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, o.Status, to)
}

type fakeGenerations struct {
	mu       sync.Mutex
	recorded []*models.Generation
	images   [][]models.GenerationImage
}

func (f *fakeGenerations) Record(ctx context.Context, gen *models.Generation, images []models.GenerationImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, gen)
	f.images = append(f.images, images)
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*models.User)}
}

func (f *fakeUsers) Ensure(ctx context.Context, userID string) (*models.User, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		cp := *u
		return &cp, false, nil
	}
	u := &models.User{ID: userID, Plan: models.PlanFree}
	f.users[userID] = u
	cp := *u
	return &cp, true, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// fakeSynth answers each slot from a script of per-call errors; a nil
// entry succeeds.
type fakeSynth struct {
	mu      sync.Mutex
	errs    map[int]error
	calls   int
	prompts []string
}

func (f *fakeSynth) Generate(ctx context.Context, prompt, size string) ([]byte, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	err := f.errs[call]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []byte("png-bytes-" + prompt), nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	n       int
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: make(map[string][]byte)}
}

func (f *fakeImages) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	url := fmt.Sprintf("https://cdn.test/generated/img-%d.png", f.n)
	f.objects[url] = data
	return url, nil
}

func (f *fakeImages) Fetch(ctx context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[ref]
	if !ok {
		return nil, fmt.Errorf("object %s not found", ref)
	}
	return data, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	orders    int
	payments  map[string]*gateway.Payment
	createErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*gateway.Payment)}
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinorUnits int, currency, receipt string, notes map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.orders++
	return fmt.Sprintf("order_gw%d", f.orders), nil
}

func (f *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGateway) setPayment(id, status, orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[id] = &gateway.Payment{ID: id, Status: status, OrderID: orderID}
}
