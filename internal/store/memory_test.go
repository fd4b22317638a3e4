package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/JonMunkholm/roster/internal/core"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Memory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) admit(name, registration, book, page string) core.Student {
	cert, err := s.store.CreateCertificate(s.ctx, core.CertificateParams{Book: book, BookPage: page})
	s.Require().NoError(err)
	st := core.Student{Name: name, Registration: registration, Certificate: cert}
	s.Require().NoError(s.store.SaveStudent(s.ctx, &st))
	return st
}

func (s *MemoryStoreSuite) TestSaveAndFind() {
	s.Run("loads certificate with student", func() {
		saved := s.admit("Ana", "001", "L1", "10")
		s.NotEqual(uuid.Nil, saved.ID)
		s.False(saved.CreatedAt.IsZero())

		found, err := s.store.FindStudents(s.ctx, core.StudentFilter{})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal("Ana", found[0].Name)
		s.Require().NotNil(found[0].Certificate)
		s.Equal("L1", found[0].Certificate.Book)
		s.Equal("10", found[0].Certificate.BookPage)
	})

	s.Run("filters by trimmed identity", func() {
		s.admit("Bia", "002", "", "")

		found, err := s.store.FindStudents(s.ctx, core.StudentFilter{Name: " Bia "})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal("002", found[0].Registration)

		found, err = s.store.FindStudents(s.ctx, core.StudentFilter{Registration: "999"})
		s.Require().NoError(err)
		s.Empty(found)
	})
}

func (s *MemoryStoreSuite) TestOrderByName() {
	s.admit("Carla", "3", "", "")
	s.admit("Ana", "1", "", "")
	s.admit("Bruno", "2", "", "")

	found, err := s.store.FindStudents(s.ctx, core.StudentFilter{OrderByName: true})
	s.Require().NoError(err)
	s.Require().Len(found, 3)
	s.Equal([]string{"Ana", "Bruno", "Carla"}, []string{found[0].Name, found[1].Name, found[2].Name})

	found, err = s.store.FindStudents(s.ctx, core.StudentFilter{})
	s.Require().NoError(err)
	s.Equal("Carla", found[0].Name, "unordered results keep insertion order")
}

func (s *MemoryStoreSuite) TestSaveStudentGuards() {
	s.Run("rejects missing certificate", func() {
		err := s.store.SaveStudent(s.ctx, &core.Student{Name: "Ana"})
		s.Require().ErrorIs(err, core.ErrMissingCertificate)
	})

	s.Run("rejects unknown certificate", func() {
		err := s.store.SaveStudent(s.ctx, &core.Student{
			Name:        "Ana",
			Certificate: &core.Certificate{ID: uuid.New()},
		})
		s.Require().ErrorIs(err, core.ErrMissingCertificate)
	})

	s.Run("rejects duplicate trimmed identity", func() {
		s.admit("Ana", "001", "", "")

		cert, err := s.store.CreateCertificate(s.ctx, core.CertificateParams{})
		s.Require().NoError(err)
		err = s.store.SaveStudent(s.ctx, &core.Student{Name: " Ana", Registration: "001 ", Certificate: cert})
		s.Require().ErrorIs(err, ErrDuplicateIdentity)
	})

	s.Run("rejects shared certificate", func() {
		cert, err := s.store.CreateCertificate(s.ctx, core.CertificateParams{})
		s.Require().NoError(err)
		s.Require().NoError(s.store.SaveStudent(s.ctx, &core.Student{Name: "X", Certificate: cert}))

		err = s.store.SaveStudent(s.ctx, &core.Student{Name: "Y", Certificate: cert})
		s.Require().Error(err)
	})
}

func (s *MemoryStoreSuite) TestWithinTxRollsBack() {
	s.admit("Ana", "001", "", "")
	boom := errors.New("boom")

	err := s.store.WithinTx(s.ctx, func(tx core.Store) error {
		cert, err := tx.CreateCertificate(s.ctx, core.CertificateParams{Book: "L9"})
		s.Require().NoError(err)
		s.Require().NoError(tx.SaveStudent(s.ctx, &core.Student{Name: "Bia", Certificate: cert}))
		return boom
	})
	s.Require().ErrorIs(err, boom)

	students, certs := s.store.Count()
	s.Equal(1, students)
	s.Equal(1, certs, "certificate created in the failed transaction must not survive")
}

func (s *MemoryStoreSuite) TestWithinTxCommits() {
	err := s.store.WithinTx(s.ctx, func(tx core.Store) error {
		cert, err := tx.CreateCertificate(s.ctx, core.CertificateParams{})
		if err != nil {
			return err
		}
		return tx.SaveStudent(s.ctx, &core.Student{Name: "Ana", Certificate: cert})
	})
	s.Require().NoError(err)

	students, certs := s.store.Count()
	s.Equal(1, students)
	s.Equal(1, certs)
}

func (s *MemoryStoreSuite) TestReset() {
	s.admit("Ana", "001", "", "")
	s.Require().NoError(s.store.Reset(s.ctx))

	students, certs := s.store.Count()
	s.Zero(students)
	s.Zero(certs)
}

func (s *MemoryStoreSuite) TestReturnedStudentsAreCopies() {
	s.admit("Ana", "001", "L1", "1")

	found, err := s.store.FindStudents(s.ctx, core.StudentFilter{})
	s.Require().NoError(err)
	found[0].Name = "changed"
	found[0].Certificate.Book = "changed"

	again, err := s.store.FindStudents(s.ctx, core.StudentFilter{})
	s.Require().NoError(err)
	s.Equal("Ana", again[0].Name)
	s.Equal("L1", again[0].Certificate.Book)
}
