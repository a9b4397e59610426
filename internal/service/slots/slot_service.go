package slots

import (
	"context"
	"time"

	"github.com/mouryay/slotbooking/internal/domain"
	"github.com/mouryay/slotbooking/internal/repository"
)

type SlotUseCase interface {
	ListAvailable(ctx context.Context, responderID string, from, to time.Time) ([]domain.Slot, error)
	GetByID(ctx context.Context, id string) (*domain.Slot, error)
}

type Cache interface {
	GetAvailableSlots(ctx context.Context, responderID string, from, to time.Time) ([]domain.Slot, error)
	SetAvailableSlots(ctx context.Context, responderID string, from, to time.Time, slots []domain.Slot) error
	InvalidateSlots(ctx context.Context, responderID string) error
}

type SlotService struct {
	repo  repository.SlotRepository
	cache Cache
}

func NewSlotService(repo repository.SlotRepository, cache Cache) *SlotService {
	return &SlotService{repo: repo, cache: cache}
}

func (s *SlotService) ListAvailable(ctx context.Context, responderID string, from, to time.Time) ([]domain.Slot, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetAvailableSlots(ctx, responderID, from, to); err == nil && cached != nil {
			return cached, nil
		}
	}

	slots, err := s.repo.ListAvailable(ctx, responderID, from, to)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetAvailableSlots(ctx, responderID, from, to, slots)
	}
	return slots, nil
}

func (s *SlotService) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	return s.repo.GetByID(ctx, id)
}

var _ SlotUseCase = (*SlotService)(nil)
