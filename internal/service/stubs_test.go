package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"civic-complaints/internal/domain"
	"civic-complaints/internal/evidence"
	"civic-complaints/internal/repository"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int64
	err    error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Init(context.Context) (bool, error) { return true, nil }

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	if _, exists := r.users[user.Username]; exists {
		return 0, repository.ErrAlreadyExists
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	clone := *user
	r.users[user.Username] = &clone
	return user.ID, nil
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

type stubComplaintRepo struct {
	mu         sync.Mutex
	complaints []domain.Complaint
	insertErr  error
	clock      time.Time
}

func (r *stubComplaintRepo) Init(context.Context) error { return nil }

func (r *stubComplaintRepo) Insert(_ context.Context, c *domain.Complaint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.clock = r.clock.Add(time.Second)
	c.ID = int64(len(r.complaints) + 1)
	c.CreatedAt = r.clock
	r.complaints = append(r.complaints, *c)
	return c.ID, nil
}

func (r *stubComplaintRepo) ListAll(context.Context) ([]domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Complaint, 0, len(r.complaints))
	for i := len(r.complaints) - 1; i >= 0; i-- {
		out = append(out, r.complaints[i])
	}
	return out, nil
}

func (r *stubComplaintRepo) Resolve(_ context.Context, id int64, res domain.Resolution) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.complaints {
		c := &r.complaints[i]
		if c.ID == id && domain.CanTransition(c.Status, domain.ComplaintStatusResolved) {
			c.Status = domain.ComplaintStatusResolved
			resolution := res
			c.Resolution = &resolution
			return 1, nil
		}
	}
	return 0, nil
}

func (r *stubComplaintRepo) SetResolvedEvidenceLocation(_ context.Context, id int64, location string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.complaints {
		c := &r.complaints[i]
		if c.ID == id && c.Resolution != nil {
			c.Resolution.EvidenceLocation = location
			return nil
		}
	}
	return repository.ErrNotFound
}

type stubArchive struct {
	calls []evidence.Kind
	err   error
}

func (a *stubArchive) Store(_ context.Context, kind evidence.Kind, _ string) (string, error) {
	a.calls = append(a.calls, kind)
	if a.err != nil {
		return "", a.err
	}
	return "s3://bucket/" + string(kind), nil
}

var errBoom = errors.New("boom")
