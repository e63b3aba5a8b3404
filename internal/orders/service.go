package orders

import (
	"context"
	"fmt"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service exposes read access to a user's order history.
type Service interface {
	ListForUser(ctx context.Context, userID uint) (*ListOrdersResponse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uint) (*ListOrdersResponse, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return &ListOrdersResponse{Orders: out}, nil
}
