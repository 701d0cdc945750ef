package repository

import (
	"context"

	"civic-complaints/internal/domain"
)

// ComplaintRepository is the complaint ledger.
type ComplaintRepository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, complaint *domain.Complaint) (int64, error)
	// ListAll returns every complaint, newest first.
	ListAll(ctx context.Context) ([]domain.Complaint, error)
	// Resolve moves a submitted complaint to resolved and returns the number of rows changed.
	Resolve(ctx context.Context, id int64, resolution domain.Resolution) (int64, error)
	// SetResolvedEvidenceLocation records where a resolved complaint's evidence was archived.
	SetResolvedEvidenceLocation(ctx context.Context, id int64, location string) error
}
