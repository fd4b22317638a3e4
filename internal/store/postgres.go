package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/roster/internal/core"
)

// Postgres stores the roster in PostgreSQL.
type Postgres struct {
	db DBTX
}

// NewPostgres returns a store running its queries on db, usually a pool.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

const selectStudents = `
SELECT s.id, s.name, s.registration, s.created_at,
       c.id, c.publication_date, c.publication_page, c.certificate_number,
       c.second_issue, c.book, c.book_page, c.enrollment_start,
       c.enrollment_end, c.process_number
FROM students s
JOIN certificates c ON c.id = s.certificate_id
WHERE ($1 = '' OR btrim(s.name) = $1)
  AND ($2 = '' OR btrim(s.registration) = $2)`

// FindStudents returns matching students with their certificates.
func (p *Postgres) FindStudents(ctx context.Context, filter core.StudentFilter) ([]core.Student, error) {
	var q strings.Builder
	q.WriteString(selectStudents)
	if filter.OrderByName {
		q.WriteString("\nORDER BY s.name ASC, s.id")
	} else {
		q.WriteString("\nORDER BY s.created_at, s.id")
	}

	rows, err := p.db.Query(ctx, q.String(),
		strings.TrimSpace(filter.Name),
		strings.TrimSpace(filter.Registration),
	)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}

	students, err := pgx.CollectRows(rows, scanStudent)
	if err != nil {
		return nil, fmt.Errorf("scan students: %w", err)
	}
	return students, nil
}

func scanStudent(row pgx.CollectableRow) (core.Student, error) {
	var s core.Student
	c := &core.Certificate{}
	err := row.Scan(
		&s.ID, &s.Name, &s.Registration, &s.CreatedAt,
		&c.ID, &c.PublicationDate, &c.PublicationPage, &c.CertificateNumber,
		&c.SecondIssue, &c.Book, &c.BookPage, &c.EnrollmentStart,
		&c.EnrollmentEnd, &c.ProcessNumber,
	)
	s.Certificate = c
	return s, err
}

const insertCertificate = `
INSERT INTO certificates (
    id, publication_date, publication_page, certificate_number, second_issue,
    book, book_page, enrollment_start, enrollment_end, process_number
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// CreateCertificate inserts a certificate under a new ID.
func (p *Postgres) CreateCertificate(ctx context.Context, params core.CertificateParams) (*core.Certificate, error) {
	c := &core.Certificate{
		ID:                uuid.New(),
		PublicationDate:   params.PublicationDate,
		PublicationPage:   params.PublicationPage,
		CertificateNumber: params.CertificateNumber,
		SecondIssue:       params.SecondIssue,
		Book:              params.Book,
		BookPage:          params.BookPage,
		EnrollmentStart:   params.EnrollmentStart,
		EnrollmentEnd:     params.EnrollmentEnd,
		ProcessNumber:     params.ProcessNumber,
	}

	_, err := p.db.Exec(ctx, insertCertificate,
		c.ID, c.PublicationDate, c.PublicationPage, c.CertificateNumber, c.SecondIssue,
		c.Book, c.BookPage, c.EnrollmentStart, c.EnrollmentEnd, c.ProcessNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("insert certificate: %w", err)
	}
	return c, nil
}

const insertStudent = `
INSERT INTO students (id, name, registration, certificate_id)
VALUES ($1, $2, $3, $4)
RETURNING created_at`

// SaveStudent inserts a student. Its certificate must already be stored.
func (p *Postgres) SaveStudent(ctx context.Context, student *core.Student) error {
	if student.Certificate == nil || student.Certificate.ID == uuid.Nil {
		return core.ErrMissingCertificate
	}
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}

	err := p.db.QueryRow(ctx, insertStudent,
		student.ID, student.Name, student.Registration, student.Certificate.ID,
	).Scan(&student.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, identityConstraint) {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentity, student.Key())
		}
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// WithinTx runs fn in a transaction, or in a savepoint when p is already
// transactional. fn's error rolls everything back.
func (p *Postgres) WithinTx(ctx context.Context, fn func(core.Store) error) error {
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		return fn(&Postgres{db: tx})
	})
}

// Reset deletes every student and certificate.
func (p *Postgres) Reset(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, "TRUNCATE students, certificates"); err != nil {
		return fmt.Errorf("reset roster: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	_, err := p.db.Exec(ctx, "SELECT 1")
	return err
}

var _ core.Store = (*Postgres)(nil)
