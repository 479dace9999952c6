package service

import (
	"context"

	"peeps/internal/models"
	"peeps/internal/repository"
	"peeps/internal/validation"

	"github.com/google/uuid"
)

// Page size bounds for ListByUser.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PeepService provides peep publishing business logic.
type PeepService struct {
	peeps repository.PeepRepository
}

// NewPeepService returns a new PeepService.
func NewPeepService(peeps repository.PeepRepository) *PeepService {
	return &PeepService{peeps: peeps}
}

// Create publishes content as a peep by authorID.
func (s *PeepService) Create(ctx context.Context, authorID uuid.UUID, content string) (*models.Peep, error) {
	content, err := validation.NormalizePeepContent(content)
	if err != nil {
		return nil, err
	}
	peep := &models.Peep{UserID: authorID, Content: content}
	if err := s.peeps.Create(ctx, peep); err != nil {
		return nil, err
	}
	return peep, nil
}

// Get returns the peep with id.
func (s *PeepService) Get(ctx context.Context, id uuid.UUID) (*models.Peep, error) {
	return s.peeps.GetByID(ctx, id)
}

// Delete removes the peep with id.
func (s *PeepService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.peeps.Delete(ctx, id)
}

// ListByUser returns a page of userID's peeps, newest first. A non-positive
// limit selects DefaultPageSize and larger limits are capped at MaxPageSize.
func (s *PeepService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Peep, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.peeps.ListByUser(ctx, userID, limit, offset)
}
