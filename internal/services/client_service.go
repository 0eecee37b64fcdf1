package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/portalops/ledger-backend/internal/models"
	repo "github.com/portalops/ledger-backend/internal/repository"
)

type ClientService struct {
	r repo.Clients
}

func NewClientService(r repo.Clients) *ClientService { return &ClientService{r: r} }

func (s *ClientService) Create(ctx context.Context, name, email string) (models.Client, error) {
	c := models.Client{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := c.Validate(); err != nil {
		return models.Client{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return s.r.Create(ctx, c)
}

func (s *ClientService) Get(ctx context.Context, id string) (models.Client, error) {
	return s.r.GetByID(ctx, id)
}

func (s *ClientService) List(ctx context.Context) ([]models.Client, error) {
	return s.r.List(ctx)
}
