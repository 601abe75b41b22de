package patient

import (
	"context"
)

// Repository is the durable registry of patients keyed by CPF. Get returns
// an apperr.NotFoundError for unknown patients. Put stores the patient and
// any exam results not yet stored; recorded exams are never removed.
type Repository interface {
	Get(ctx context.Context, cpf string) (*Patient, error)
	Put(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
