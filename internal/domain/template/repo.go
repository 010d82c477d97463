package template

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for form templates.
type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	GetByCode(ctx context.Context, code string) (*Template, error)
	Update(ctx context.Context, t *Template) error
	UpdateStatus(ctx context.Context, id uuid.UUID, enabled bool, modifiedBy string) error
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Template, int, error)
	Stats(ctx context.Context) (*Stats, error)
}
