package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vastralabs/photoshoot/internal/models"
)

type GenerationRepository struct {
	db *sql.DB
}

func NewGenerationRepository(db *sql.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Record persists a settled generation batch together with its per-slot
// outcomes in one transaction.
func (r *GenerationRepository) Record(ctx context.Context, gen *models.Generation, images []models.GenerationImage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin generation tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO generations (id, user_id, product_ref, model_id, pose_id, scene_id, prompt, requested, succeeded, credits_charged)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gen.ID, gen.UserID, gen.ProductRef, gen.ModelID, gen.PoseID, gen.SceneID, gen.Prompt, gen.Requested, gen.Succeeded, gen.CreditsCharged); err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}

	for _, img := range images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO generation_images (generation_id, slot, status, image_url, error)
VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
			gen.ID, img.Slot, img.Status, img.ImageURL, img.Error); err != nil {
			return fmt.Errorf("insert generation image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit generation: %w", err)
	}
	return nil
}

func (r *GenerationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count generations: %w", err)
	}
	return n, nil
}

func (r *GenerationRepository) CountImages(ctx context.Context, status models.SlotStatus) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM generation_images WHERE status = ?`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count generation images: %w", err)
	}
	return n, nil
}
