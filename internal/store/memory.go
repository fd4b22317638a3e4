package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/roster/internal/core"
)

// Memory is an in-process roster store used by tests. It enforces
// the same identity uniqueness as the database.
type Memory struct {
	mu           sync.RWMutex
	certificates map[uuid.UUID]core.Certificate
	students     []core.Student
	owners       map[uuid.UUID]uuid.UUID // certificate -> student

	// txMu serializes WithinTx so a rollback cannot discard another
	// transaction's writes.
	txMu sync.Mutex
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		certificates: make(map[uuid.UUID]core.Certificate),
		owners:       make(map[uuid.UUID]uuid.UUID),
	}
}

// FindStudents returns copies of the matching students.
func (m *Memory) FindStudents(_ context.Context, filter core.StudentFilter) ([]core.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := core.NewIdentityKey(filter.Name, filter.Registration)
	out := make([]core.Student, 0, len(m.students))
	for _, s := range m.students {
		key := s.Key()
		if want.Name != "" && key.Name != want.Name {
			continue
		}
		if want.Registration != "" && key.Registration != want.Registration {
			continue
		}
		out = append(out, m.withCertificate(s))
	}

	if filter.OrderByName {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	return out, nil
}

func (m *Memory) withCertificate(s core.Student) core.Student {
	if s.Certificate != nil {
		if c, ok := m.certificates[s.Certificate.ID]; ok {
			s.Certificate = &c
		}
	}
	return s
}

// CreateCertificate stores a certificate under a new ID.
func (m *Memory) CreateCertificate(_ context.Context, params core.CertificateParams) (*core.Certificate, error) {
	c := core.Certificate{
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

	m.mu.Lock()
	m.certificates[c.ID] = c
	m.mu.Unlock()

	return &c, nil
}

// SaveStudent stores a student whose certificate was created in this store.
func (m *Memory) SaveStudent(_ context.Context, student *core.Student) error {
	if student.Certificate == nil || student.Certificate.ID == uuid.Nil {
		return core.ErrMissingCertificate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	certID := student.Certificate.ID
	if _, ok := m.certificates[certID]; !ok {
		return fmt.Errorf("%w: certificate %s not found", core.ErrMissingCertificate, certID)
	}
	if owner, taken := m.owners[certID]; taken {
		return fmt.Errorf("certificate %s already belongs to student %s", certID, owner)
	}

	key := student.Key()
	for _, s := range m.students {
		if s.Key() == key {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentity, key)
		}
	}

	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	student.CreatedAt = time.Now()

	stored := *student
	stored.Certificate = &core.Certificate{ID: certID}
	m.students = append(m.students, stored)
	m.owners[certID] = student.ID
	return nil
}

// WithinTx runs fn against m and restores the previous contents if fn fails.
// Calls do not nest.
func (m *Memory) WithinTx(_ context.Context, fn func(core.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	certificates map[uuid.UUID]core.Certificate
	students     []core.Student
	owners       map[uuid.UUID]uuid.UUID
}

func (m *Memory) snapshot() memorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := memorySnapshot{
		certificates: make(map[uuid.UUID]core.Certificate, len(m.certificates)),
		students:     append([]core.Student(nil), m.students...),
		owners:       make(map[uuid.UUID]uuid.UUID, len(m.owners)),
	}
	for k, v := range m.certificates {
		snap.certificates[k] = v
	}
	for k, v := range m.owners {
		snap.owners[k] = v
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.certificates = snap.certificates
	m.students = snap.students
	m.owners = snap.owners
}

// Reset deletes every student and certificate.
func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.certificates = make(map[uuid.UUID]core.Certificate)
	m.students = nil
	m.owners = make(map[uuid.UUID]uuid.UUID)
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Count returns the number of stored students and certificates.
func (m *Memory) Count() (students, certificates int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), len(m.certificates)
}

var _ core.Store = (*Memory)(nil)
