package service

import (
	"context"

	"github.com/vastralabs/photoshoot/internal/models"
)

type userCounter interface {
	Count(ctx context.Context) (int, error)
}

type generationCounter interface {
	Count(ctx context.Context) (int, error)
	CountImages(ctx context.Context, status models.SlotStatus) (int, error)
}

type orderCounter interface {
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int, error)
}

// StatsService aggregates usage counts for the admin surface.
type StatsService struct {
	users       userCounter
	generations generationCounter
	orders      orderCounter
}

type Stats struct {
	Users           int                        `json:"users"`
	Generations     int                        `json:"generations"`
	ImagesSucceeded int                        `json:"images_succeeded"`
	ImagesFailed    int                        `json:"images_failed"`
	Orders          map[models.OrderStatus]int `json:"orders"`
}

func NewStatsService(users userCounter, generations generationCounter, orders orderCounter) *StatsService {
	return &StatsService{users: users, generations: generations, orders: orders}
}

func (s *StatsService) Collect(ctx context.Context) (*Stats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	generations, err := s.generations.Count(ctx)
	if err != nil {
		return nil, err
	}
	succeeded, err := s.generations.CountImages(ctx, models.SlotSucceeded)
	if err != nil {
		return nil, err
	}
	failed, err := s.generations.CountImages(ctx, models.SlotFailed)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Users:           users,
		Generations:     generations,
		ImagesSucceeded: succeeded,
		ImagesFailed:    failed,
		Orders:          orders,
	}, nil
}
