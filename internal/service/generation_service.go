package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vastralabs/photoshoot/internal/catalog"
	"github.com/vastralabs/photoshoot/internal/config"
	"github.com/vastralabs/photoshoot/internal/models"
	"github.com/vastralabs/photoshoot/internal/prompt"
)

const synthesisSize = "1024x1024"

// GenerationService orchestrates one batch of image synthesis calls: a
// single flat-price debit up front, N concurrent synthesis calls with
// per-slot outcomes, and a bounded wait at the join point.
type GenerationService struct {
	cfg         config.Config
	log         *slog.Logger
	ledger      LedgerStore
	generations GenerationStore
	synth       Synthesizer
	images      ImageStore
}

type GenerateRequest struct {
	ProductRef string
	ModelID    string
	PoseID     string
	SceneID    string
}

type GenerateResult struct {
	GenerationID   string
	Images         []string
	Prompt         string
	ModelName      string
	PoseName       string
	SceneName      string
	Requested      int
	Succeeded      int
	CreditsCharged int
	// Partial reports that some but not all slots failed. It is
	// informational, not a failure.
	Partial bool
}

func NewGenerationService(cfg config.Config, log *slog.Logger, ledger LedgerStore, generations GenerationStore, synth Synthesizer, images ImageStore) *GenerationService {
	return &GenerationService{
		cfg:         cfg,
		log:         log,
		ledger:      ledger,
		generations: generations,
		synth:       synth,
		images:      images,
	}
}

func (s *GenerationService) Generate(ctx context.Context, userID string, req GenerateRequest) (*GenerateResult, error) {
	if req.ProductRef == "" {
		return nil, fmt.Errorf("product reference cannot be empty")
	}
	model, ok := catalog.FindModel(req.ModelID)
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", req.ModelID)
	}
	pose, ok := catalog.FindPose(req.PoseID)
	if !ok {
		return nil, fmt.Errorf("unknown pose: %s", req.PoseID)
	}
	scene, ok := catalog.FindScene(req.SceneID)
	if !ok {
		// Prompt building falls back to the studio clause for unknown
		// scenes; keep the same lenience here.
		scene, _ = catalog.FindScene("studio")
	}

	generationID := uuid.NewString()
	basePrompt := prompt.Build(model, pose, scene.ID)
	cost := s.cfg.GenerationPriceCredits
	n := s.cfg.GenerationImageCount

	// One flat debit covers the whole batch. On insufficient credits the
	// request fails before any synthesis call is issued.
	if _, err := s.ledger.Debit(ctx, userID, cost, models.ReasonGenerationDebit, generationID); err != nil {
		return nil, err
	}

	slots := s.fanOut(ctx, basePrompt, n)

	succeeded := 0
	var urls []string
	for i := range slots {
		slots[i].GenerationID = generationID
		if slots[i].Status == models.SlotSucceeded {
			succeeded++
			urls = append(urls, slots[i].ImageURL)
		}
	}

	gen := &models.Generation{
		ID:             generationID,
		UserID:         userID,
		ProductRef:     req.ProductRef,
		ModelID:        model.ID,
		PoseID:         pose.ID,
		SceneID:        scene.ID,
		Prompt:         basePrompt,
		Requested:      n,
		Succeeded:      succeeded,
		CreditsCharged: cost,
	}
	if err := s.generations.Record(ctx, gen, slots); err != nil {
		s.log.Error("failed to record generation", "generation_id", generationID, "err", err)
	}

	if succeeded == 0 {
		// The debit stands; refunds are a product decision made outside
		// this component.
		s.log.Error("generation batch failed", "generation_id", generationID, "user", userID, "requested", n)
		return nil, models.ErrGenerationFailed
	}

	return &GenerateResult{
		GenerationID:   generationID,
		Images:         urls,
		Prompt:         basePrompt,
		ModelName:      model.Name,
		PoseName:       pose.Name,
		SceneName:      scene.Name,
		Requested:      n,
		Succeeded:      succeeded,
		CreditsCharged: cost,
		Partial:        succeeded < n,
	}, nil
}

type slotOutcome struct {
	slot int
	url  string
	err  error
}

// fanOut issues n concurrent synthesis calls and joins on all of them or
// the configured timeout, whichever comes first. A slot still pending at
// the timeout is recorded as failed; its in-flight call is not cancelled
// and a late result is simply discarded.
func (s *GenerationService) fanOut(ctx context.Context, basePrompt string, n int) []models.GenerationImage {
	slots := make([]models.GenerationImage, n)
	for i := range slots {
		slots[i] = models.GenerationImage{Slot: i, Status: models.SlotPending}
	}

	results := make(chan slotOutcome, n)
	for i := 0; i < n; i++ {
		go func(slot int) {
			data, err := s.synth.Generate(ctx, prompt.Variation(basePrompt, slot), synthesisSize)
			if err != nil {
				results <- slotOutcome{slot: slot, err: err}
				return
			}
			url, err := s.images.Upload(ctx, data, "image/png")
			results <- slotOutcome{slot: slot, url: url, err: err}
		}(i)
	}

	timeout := s.cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	settled := 0
join:
	for settled < n {
		select {
		case res := <-results:
			settled++
			if res.err != nil {
				s.log.Error("generation slot failed", "slot", res.slot, "err", res.err)
				slots[res.slot].Status = models.SlotFailed
				slots[res.slot].Error = res.err.Error()
				continue
			}
			slots[res.slot].Status = models.SlotSucceeded
			slots[res.slot].ImageURL = res.url
		case <-timer.C:
			break join
		}
	}

	for i := range slots {
		if slots[i].Status == models.SlotPending {
			slots[i].Status = models.SlotFailed
			slots[i].Error = fmt.Sprintf("timed out after %s", timeout)
		}
	}
	return slots
}
