package record

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for medical records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByRecordNo(ctx context.Context, recordNo string) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error)
	Stats(ctx context.Context, doctorID string) (*Stats, error)
}
