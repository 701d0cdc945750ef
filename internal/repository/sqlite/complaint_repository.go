package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"civic-complaints/internal/domain"
	"civic-complaints/internal/repository"
)

const createComplaintsTable = `
CREATE TABLE IF NOT EXISTS complaints (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	description TEXT NOT NULL,
	image_base64 TEXT NOT NULL,
	latitude REAL NOT NULL DEFAULT 0,
	longitude REAL NOT NULL DEFAULT 0,
	category TEXT NOT NULL,
	department TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	resolved_image_base64 TEXT NULL,
	resolved_at DATETIME NULL,
	evidence_location TEXT NOT NULL DEFAULT '',
	resolved_evidence_location TEXT NOT NULL DEFAULT '',
	user_id INTEGER NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints(created_at);
`

const selectComplaintColumns = `
SELECT id, description, image_base64, latitude, longitude, category, department, status, created_at,
	resolved_image_base64, resolved_at, evidence_location, resolved_evidence_location, user_id
FROM complaints`

type ComplaintRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewComplaintRepository(db *sql.DB) repository.ComplaintRepository {
	return &ComplaintRepository{db: db, now: time.Now}
}

func (r *ComplaintRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createComplaintsTable); err != nil {
		return fmt.Errorf("create complaints table: %w", err)
	}
	return nil
}

// Insert stores a complaint and assigns its creation time. The timestamp never
// precedes the newest existing row, so created_at order matches insert order.
func (r *ComplaintRepository) Insert(ctx context.Context, complaint *domain.Complaint) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	createdAt := r.now().UTC()
	var latest sql.NullTime
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM complaints ORDER BY id DESC LIMIT 1`).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read latest complaint time: %w", err)
	}
	if latest.Valid && createdAt.Before(latest.Time) {
		createdAt = latest.Time.UTC()
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO complaints (description, image_base64, latitude, longitude, category, department, status, created_at, evidence_location, user_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		complaint.Description,
		complaint.ImageBase64,
		complaint.Location.Latitude,
		complaint.Location.Longitude,
		string(complaint.Category),
		string(complaint.Department),
		string(complaint.Status),
		createdAt,
		complaint.EvidenceLocation,
		complaint.UserID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert complaint: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("complaint last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit complaint insert: %w", err)
	}

	complaint.ID = id
	complaint.CreatedAt = createdAt
	return id, nil
}

func (r *ComplaintRepository) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	rows, err := r.db.QueryContext(ctx, selectComplaintColumns+`
ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	complaints := []domain.Complaint{}
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *complaint)
	}

	return complaints, rows.Err()
}

// Resolve only touches rows still in the Submitted state; a missing id or an
// already resolved complaint yields zero changes.
func (r *ComplaintRepository) Resolve(ctx context.Context, id int64, resolution domain.Resolution) (int64, error) {
	resolvedAt := resolution.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = r.now()
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE complaints
SET status=?, resolved_image_base64=?, resolved_at=?, resolved_evidence_location=?
WHERE id=? AND status=?`,
		string(domain.ComplaintStatusResolved),
		resolution.ImageBase64,
		resolvedAt.UTC(),
		resolution.EvidenceLocation,
		id,
		string(domain.ComplaintStatusSubmitted),
	)
	if err != nil {
		return 0, fmt.Errorf("resolve complaint: %w", err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("resolve rows affected: %w", err)
	}
	return changed, nil
}

func (r *ComplaintRepository) SetResolvedEvidenceLocation(ctx context.Context, id int64, location string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE complaints SET resolved_evidence_location=? WHERE id=? AND status=?`,
		location,
		id,
		string(domain.ComplaintStatusResolved),
	)
	if err != nil {
		return fmt.Errorf("set resolved evidence location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set resolved evidence rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("complaint %d is not resolved: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanComplaint(scanner interface {
	Scan(dest ...any) error
}) (*domain.Complaint, error) {
	var (
		complaint        domain.Complaint
		category         string
		department       string
		status           string
		resolvedImage    sql.NullString
		resolvedAt       sql.NullTime
		resolvedLocation string
	)

	if err := scanner.Scan(
		&complaint.ID,
		&complaint.Description,
		&complaint.ImageBase64,
		&complaint.Location.Latitude,
		&complaint.Location.Longitude,
		&category,
		&department,
		&status,
		&complaint.CreatedAt,
		&resolvedImage,
		&resolvedAt,
		&complaint.EvidenceLocation,
		&resolvedLocation,
		&complaint.UserID,
	); err != nil {
		return nil, fmt.Errorf("scan complaint: %w", err)
	}

	complaint.Category = domain.Category(category)
	complaint.Department = domain.Department(department)
	complaint.Status = domain.ComplaintStatus(status)
	complaint.CreatedAt = complaint.CreatedAt.UTC()
	if resolvedAt.Valid {
		complaint.Resolution = &domain.Resolution{
			ImageBase64:      resolvedImage.String,
			ResolvedAt:       resolvedAt.Time.UTC(),
			EvidenceLocation: resolvedLocation,
		}
	}

	return &complaint, nil
}
