package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/roster/internal/sheet"
)

// Column positions of the import spreadsheet (0-indexed).
const (
	ColName = iota
	ColRegistration
	ColPublicationDate
	ColPublicationPage
	ColCertificateNumber
	ColSecondIssue
	ColBook
	ColBookPage
	ColEnrollmentStart
	ColEnrollmentEnd
	ColProcessNumber

	// ColumnCount is the number of columns in both the import and export layouts.
	ColumnCount
)

// HeaderRows is the number of leading header rows in import and export sheets.
const HeaderRows = 2

// NameHeaderLabel is the first-column label of the header row. Rows starting
// with it are treated as repeated headers wherever they appear.
const NameHeaderLabel = "Nome do Aluno"

// IdentityKey identifies a student for duplicate detection.
// Both parts are trimmed; comparison is exact.
type IdentityKey struct {
	Name         string
	Registration string
}

// NewIdentityKey builds a key from raw values, trimming both parts.
func NewIdentityKey(name, registration string) IdentityKey {
	return IdentityKey{
		Name:         strings.TrimSpace(name),
		Registration: strings.TrimSpace(registration),
	}
}

func (k IdentityKey) String() string {
	return fmt.Sprintf("%s (matrícula %q)", k.Name, k.Registration)
}

// ConflictKey is the (book, book page) pair recorded on a certificate.
type ConflictKey struct {
	Book     string
	BookPage string
}

// IsZero reports whether the key claims no book position.
func (k ConflictKey) IsZero() bool {
	return k.Book == "" && k.BookPage == ""
}

func (k ConflictKey) String() string {
	return fmt.Sprintf("livro %q, página %q", k.Book, k.BookPage)
}

// Candidate is an unpersisted row extracted from an import sheet.
type Candidate struct {
	Line         int // 1-based spreadsheet line
	Name         string
	Registration string
	Row          sheet.Row
}

// Key returns the candidate's identity key.
func (c Candidate) Key() IdentityKey {
	return NewIdentityKey(c.Name, c.Registration)
}

// ConflictKey returns the trimmed book/page pair from the candidate's row.
func (c Candidate) ConflictKey() ConflictKey {
	return ConflictKey{
		Book:     c.Row.At(ColBook).String(),
		BookPage: c.Row.At(ColBookPage).String(),
	}
}

// Certificate is the record owned by exactly one Student.
type Certificate struct {
	ID                uuid.UUID   `json:"id"`
	PublicationDate   pgtype.Date `json:"publication_date"`
	PublicationPage   string      `json:"publication_page"`
	CertificateNumber string      `json:"certificate_number"`
	SecondIssue       string      `json:"second_issue"`
	Book              string      `json:"book"`
	BookPage          string      `json:"book_page"`
	EnrollmentStart   pgtype.Date `json:"enrollment_start"`
	EnrollmentEnd     pgtype.Date `json:"enrollment_end"`
	ProcessNumber     string      `json:"process_number"`
}

// ConflictKey returns the certificate's trimmed book/page pair.
func (c *Certificate) ConflictKey() ConflictKey {
	if c == nil {
		return ConflictKey{}
	}
	return ConflictKey{
		Book:     strings.TrimSpace(c.Book),
		BookPage: strings.TrimSpace(c.BookPage),
	}
}

// CertificateParams carries the nine auxiliary fields of a row, dates resolved.
type CertificateParams struct {
	PublicationDate   pgtype.Date
	PublicationPage   string
	CertificateNumber string
	SecondIssue       string
	Book              string
	BookPage          string
	EnrollmentStart   pgtype.Date
	EnrollmentEnd     pgtype.Date
	ProcessNumber     string
}

// Student is a persisted roster entry.
type Student struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Registration string       `json:"registration"`
	Certificate  *Certificate `json:"certificate"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Key returns the student's identity key.
func (s Student) Key() IdentityKey {
	return NewIdentityKey(s.Name, s.Registration)
}

// StudentFilter narrows FindStudents.
type StudentFilter struct {
	Name         string // exact trimmed match when non-empty
	Registration string // exact trimmed match when non-empty
	OrderByName  bool   // ascending by name
}

// Store is the roster record store.
type Store interface {
	// FindStudents returns students with their certificates loaded.
	FindStudents(ctx context.Context, filter StudentFilter) ([]Student, error)

	// CreateCertificate persists a certificate and returns it with its ID.
	CreateCertificate(ctx context.Context, params CertificateParams) (*Certificate, error)

	// SaveStudent persists a student whose certificate was already created.
	SaveStudent(ctx context.Context, student *Student) error

	// WithinTx runs fn against a store bound to a single transaction.
	// Nothing fn wrote survives if it returns an error.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// Locker serializes imports against the same roster.
type Locker interface {
	// Acquire blocks until the lock is held or fails. The returned release
	// function must be called exactly once.
	Acquire(ctx context.Context) (release func(), err error)
}

// ImportReport is the outcome of one import run.
type ImportReport struct {
	ImportID     string        `json:"importId"`
	FileName     string        `json:"fileName"`
	RowsRead     int           `json:"rowsRead"`
	Errors       []string      `json:"errors"`
	SuccessCount int           `json:"successCount"`
	Duration     time.Duration `json:"duration"`
}

// Clean reports whether every row was admitted.
func (r ImportReport) Clean() bool {
	return len(r.Errors) == 0
}

// Partial reports whether some rows were admitted and some rejected.
func (r ImportReport) Partial() bool {
	return len(r.Errors) > 0 && r.SuccessCount > 0
}
