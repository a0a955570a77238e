package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastralabs/photoshoot/internal/config"
	"github.com/vastralabs/photoshoot/internal/models"
)

func testConfig() config.Config {
	return config.Config{
		GenerationPriceCredits: 99,
		GenerationImageCount:   3,
		GenerationTimeout:      5 * time.Second,
		SignupBonusCredits:     999,
		PaymentCurrency:        "INR",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRequest() GenerateRequest {
	return GenerateRequest{
		ProductRef: "https://cdn.test/uploads/saree.jpg",
		ModelID:    "model1",
		PoseID:     "standing",
		SceneID:    "studio",
	}
}

func TestGenerateHappyPath(t *testing.T) {
	ledger := newFakeLedger()
	_, err := ledger.Credit(context.Background(), "u1", 500, models.ReasonAdjustment, "signup:u1")
	require.NoError(t, err)
	synth := &fakeSynth{}
	gens := &fakeGenerations{}
	images := newFakeImages()

	svc := NewGenerationService(testConfig(), testLogger(), ledger, gens, synth, images)

	result, err := svc.Generate(context.Background(), "u1", validRequest())
	require.NoError(t, err)

	assert.Len(t, result.Images, 3)
	assert.Len(t, images.objects, 3)
	assert.Equal(t, 3, result.Succeeded)
	assert.False(t, result.Partial)
	assert.Equal(t, 99, result.CreditsCharged)
	assert.Equal(t, "Priya", result.ModelName)
	assert.Equal(t, "Standing", result.PoseName)
	assert.Equal(t, "Studio", result.SceneName)
	assert.Contains(t, result.Prompt, "female model")

	balance, _ := ledger.Balance(context.Background(), "u1")
	assert.Equal(t, 401, balance)
	assert.Equal(t, balance, ledger.sumDeltas("u1"), "log must sum to balance")

	debits := ledger.transactions("u1", models.ReasonGenerationDebit)
	require.Len(t, debits, 1)
	assert.Equal(t, -99, debits[0].Delta)
	assert.Equal(t, result.GenerationID, debits[0].CorrelationID)
}

func TestGeneratePartialFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 200
	// Call #2 (slot index 1) fails; #1 and #3 succeed.
	synth := &fakeSynth{errs: map[int]error{1: errors.New("upstream 500")}}
	gens := &fakeGenerations{}

	svc := NewGenerationService(testConfig(), testLogger(), ledger, gens, synth, newFakeImages())

	result, err := svc.Generate(context.Background(), "u1", validRequest())
	require.NoError(t, err, "partial failure is not an overall failure")

	assert.Len(t, result.Images, 2)
	assert.Equal(t, 2, result.Succeeded)
	assert.True(t, result.Partial)

	debits := ledger.transactions("u1", models.ReasonGenerationDebit)
	assert.Len(t, debits, 1, "one flat debit for the whole batch")

	require.Len(t, gens.images, 1)
	failed := 0
	for _, slot := range gens.images[0] {
		if slot.Status == models.SlotFailed {
			failed++
			assert.NotEmpty(t, slot.Error)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestGenerateAllSlotsFail(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 200
	synth := &fakeSynth{errs: map[int]error{
		0: errors.New("boom"),
		1: errors.New("boom"),
		2: errors.New("boom"),
	}}
	gens := &fakeGenerations{}

	svc := NewGenerationService(testConfig(), testLogger(), ledger, gens, synth, newFakeImages())

	_, err := svc.Generate(context.Background(), "u1", validRequest())
	assert.ErrorIs(t, err, models.ErrGenerationFailed)

	// Charge-then-attempt: the debit stands even though nothing succeeded.
	debits := ledger.transactions("u1", models.ReasonGenerationDebit)
	assert.Len(t, debits, 1)
	balance, _ := ledger.Balance(context.Background(), "u1")
	assert.Equal(t, 101, balance)
}

func TestGenerateInsufficientCredits(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 50
	synth := &fakeSynth{}

	svc := NewGenerationService(testConfig(), testLogger(), ledger, &fakeGenerations{}, synth, newFakeImages())

	_, err := svc.Generate(context.Background(), "u1", validRequest())
	assert.ErrorIs(t, err, models.ErrInsufficientCredits)

	assert.Equal(t, 0, synth.callCount(), "no synthesis calls after a failed debit")
	balance, _ := ledger.Balance(context.Background(), "u1")
	assert.Equal(t, 50, balance, "failed debit leaves balance unchanged")
}

func TestGenerateVariationMarkers(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 200
	synth := &fakeSynth{}

	svc := NewGenerationService(testConfig(), testLogger(), ledger, &fakeGenerations{}, synth, newFakeImages())

	_, err := svc.Generate(context.Background(), "u1", validRequest())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range synth.prompts {
		seen[p] = true
	}
	assert.Len(t, seen, 3, "each slot must get a distinct prompt")
}

func TestGenerateUnknownSceneFallsBackToStudio(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 200

	svc := NewGenerationService(testConfig(), testLogger(), ledger, &fakeGenerations{}, &fakeSynth{}, newFakeImages())

	req := validRequest()
	req.SceneID = "underwater"
	result, err := svc.Generate(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "Studio", result.SceneName)
	assert.Contains(t, result.Prompt, "minimalist studio background")
}

func TestGenerateRejectsUnknownModel(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 200
	synth := &fakeSynth{}

	svc := NewGenerationService(testConfig(), testLogger(), ledger, &fakeGenerations{}, synth, newFakeImages())

	req := validRequest()
	req.ModelID = "model99"
	_, err := svc.Generate(context.Background(), "u1", req)
	require.Error(t, err)
	assert.Equal(t, 0, synth.callCount())
	balance, _ := ledger.Balance(context.Background(), "u1")
	assert.Equal(t, 200, balance, "no debit for a rejected request")
}

func TestGenerateSlowSlotRecordedAsTimeout(t *testing.T) {
	ledger := newFakeLedger()
	ledger.balances["u1"] = 200
	gens := &fakeGenerations{}

	cfg := testConfig()
	cfg.GenerationTimeout = 50 * time.Millisecond

	svc := NewGenerationService(cfg, testLogger(), ledger, gens, slowSynth{delay: 5 * time.Second}, newFakeImages())

	_, err := svc.Generate(context.Background(), "u1", validRequest())
	assert.ErrorIs(t, err, models.ErrGenerationFailed)

	require.Len(t, gens.images, 1)
	for _, slot := range gens.images[0] {
		assert.Equal(t, models.SlotFailed, slot.Status)
		assert.Contains(t, slot.Error, "timed out")
	}
}

type slowSynth struct {
	delay time.Duration
}

func (s slowSynth) Generate(ctx context.Context, prompt, size string) ([]byte, error) {
	select {
	case <-time.After(s.delay):
		return []byte("late"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
