package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"civic-complaints/internal/classifier"
	"civic-complaints/internal/domain"
	"civic-complaints/internal/evidence"
	"civic-complaints/internal/metrics"
	"civic-complaints/internal/repository"
)

// TokenVerifier turns a bearer token into the identity it asserts.
type TokenVerifier interface {
	Verify(token string) (*domain.Identity, error)
}

// Categorizer decides category and department for a complaint.
type Categorizer interface {
	Classify(description, evidence string) classifier.Result
}

// EvidenceArchiver copies evidence to object storage.
type EvidenceArchiver interface {
	Store(ctx context.Context, kind evidence.Kind, payload string) (string, error)
}

type SubmitInput struct {
	Description string
	ImageBase64 string
	Location    json.RawMessage
}

type SubmitResult struct {
	ID         int64
	Category   domain.Category
	Department domain.Department
	Status     domain.ComplaintStatus
}

type ResolveResult struct {
	Changed int64
}

// ComplaintService accepts, lists and resolves complaints on behalf of a token holder.
type ComplaintService interface {
	Submit(ctx context.Context, token string, in SubmitInput) (*SubmitResult, error)
	List(ctx context.Context, token string) ([]domain.Complaint, error)
	Resolve(ctx context.Context, token string, id int64, resolvedImage string) (*ResolveResult, error)
}

type ComplaintConfig struct {
	// Archive is optional; nil keeps evidence inline only.
	Archive EvidenceArchiver
	Logger  logrus.FieldLogger
	Now     func() time.Time
}

type complaintService struct {
	complaints  repository.ComplaintRepository
	verifier    TokenVerifier
	categorizer Categorizer
	archive     EvidenceArchiver
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewComplaintService(complaints repository.ComplaintRepository, verifier TokenVerifier, categorizer Categorizer, cfg ComplaintConfig) ComplaintService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &complaintService{
		complaints:  complaints,
		verifier:    verifier,
		categorizer: categorizer,
		archive:     cfg.Archive,
		log:         cfg.Logger,
		now:         cfg.Now,
	}
}

func (s *complaintService) Submit(ctx context.Context, token string, in SubmitInput) (*SubmitResult, error) {
	actor, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.ImageBase64) == "" {
		return nil, domain.NewValidationError("Description and Image required")
	}

	location := domain.ParseLocation(in.Location)
	result := s.categorizer.Classify(in.Description, in.ImageBase64)
	if !result.Determined {
		s.log.WithFields(logrus.Fields{
			"category": result.Category,
			"user":     actor.Username,
		}).Warn("no category keyword matched, category guessed")
	}

	complaint := &domain.Complaint{
		Description: in.Description,
		ImageBase64: in.ImageBase64,
		Location:    location,
		Category:    result.Category,
		Department:  result.Department,
		Status:      domain.ComplaintStatusSubmitted,
		UserID:      actor.UserID,
	}
	complaint.EvidenceLocation = s.archiveEvidence(ctx, evidence.KindSubmission, in.ImageBase64)

	if _, err := s.complaints.Insert(ctx, complaint); err != nil {
		return nil, domain.NewStorageError("insert complaint", err)
	}

	metrics.ComplaintsSubmittedTotal.WithLabelValues(
		string(complaint.Category),
		string(complaint.Department),
		strconv.FormatBool(result.Determined),
	).Inc()
	s.log.WithFields(logrus.Fields{
		"id":         complaint.ID,
		"category":   complaint.Category,
		"department": complaint.Department,
		"user":       actor.Username,
	}).Info("complaint submitted")

	return &SubmitResult{
		ID:         complaint.ID,
		Category:   complaint.Category,
		Department: complaint.Department,
		Status:     complaint.Status,
	}, nil
}

// List returns every complaint to any authenticated caller, newest first.
func (s *complaintService) List(ctx context.Context, token string) ([]domain.Complaint, error) {
	if _, err := s.verifier.Verify(token); err != nil {
		return nil, err
	}

	complaints, err := s.complaints.ListAll(ctx)
	if err != nil {
		return nil, domain.NewStorageError("list complaints", err)
	}
	return complaints, nil
}

// Resolve marks a submitted complaint as resolved. Unknown or already
// resolved ids are not errors: they report zero changes.
func (s *complaintService) Resolve(ctx context.Context, token string, id int64, resolvedImage string) (*ResolveResult, error) {
	actor, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}

	resolution := domain.Resolution{
		ImageBase64: resolvedImage,
		ResolvedAt:  s.now(),
	}

	changed, err := s.complaints.Resolve(ctx, id, resolution)
	if err != nil {
		return nil, domain.NewStorageError("resolve complaint", err)
	}

	// Archive only once the row has actually moved to Resolved.
	if changed > 0 && resolvedImage != "" {
		if location := s.archiveEvidence(ctx, evidence.KindResolution, resolvedImage); location != "" {
			if err := s.complaints.SetResolvedEvidenceLocation(ctx, id, location); err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{"id": id, "location": location}).
					Warn("record resolution evidence location failed")
			}
		}
	}

	entry := s.log.WithFields(logrus.Fields{"id": id, "admin": actor.Username, "changes": changed})
	if changed == 0 {
		metrics.ResolveNoopTotal.Inc()
		entry.Warn("resolve matched no submitted complaint")
	} else {
		metrics.ComplaintsResolvedTotal.Add(float64(changed))
		entry.Info("complaint resolved")
	}

	return &ResolveResult{Changed: changed}, nil
}

func (s *complaintService) archiveEvidence(ctx context.Context, kind evidence.Kind, payload string) string {
	if s.archive == nil {
		return ""
	}
	location, err := s.archive.Store(ctx, kind, payload)
	if err != nil {
		metrics.EvidenceArchiveErrorsTotal.WithLabelValues(string(kind)).Inc()
		s.log.WithError(err).WithField("kind", kind).Warn("evidence archive failed")
		return ""
	}
	return location
}
