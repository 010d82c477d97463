package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for patients. All queries
// exclude soft-deleted rows.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPatientNo(ctx context.Context, patientNo string) (*Patient, error)
	GetByIDCard(ctx context.Context, idCard string) (*Patient, error)
	FindByPhone(ctx context.Context, phone string) ([]*Patient, error)
	FindByName(ctx context.Context, name string) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Patient, int, error)
	Stats(ctx context.Context) (*Stats, error)
}
