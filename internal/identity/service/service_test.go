package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vozsegura/internal/identity/models"
	"vozsegura/internal/identity/pseudonym"
	"vozsegura/internal/identity/store/handle"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/platform/audit/recorder"
	auditmemory "vozsegura/pkg/platform/audit/store/memory"
	txcontext "vozsegura/pkg/platform/tx"
	"vozsegura/pkg/requestcontext"
)

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Event) error {
	return errors.New("audit store down")
}

type IdentityServiceSuite struct {
	suite.Suite
	handles    *handle.InMemoryHandleStore
	auditStore *auditmemory.InMemoryStore
	service    *Service
	ctx        context.Context
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handles = handle.NewInMemoryHandleStore()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.service = New(s.handles, recorder.New(s.auditStore, recorder.WithLogger(logger)), txcontext.NewMemoryRunner(s.handles, s.auditStore), WithLogger(logger))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func approved(doc string) models.VerificationResult {
	return models.VerificationResult{DocumentNumber: doc, Approved: true, LivenessPassed: true, Provider: "registro-civil"}
}

func (s *IdentityServiceSuite) TestRegisterVerified() {
	s.Run("stores the handle and audits with the handle as actor", func() {
		handleValue, err := s.service.RegisterVerified(s.ctx, approved("0102030405"))
		s.Require().NoError(err)

		expected, _ := pseudonym.Hash("0102030405")
		s.Equal(expected, handleValue)

		rec, err := s.handles.FindByHandle(s.ctx, handleValue)
		s.Require().NoError(err)
		s.Equal(requestcontext.Now(s.ctx), rec.FirstVerifiedAt)

		events, _ := s.auditStore.ListAll(s.ctx)
		s.Require().Len(events, 1)
		s.Equal(audit.EventIdentityVerified, events[0].Type)
		s.Equal(handleValue.String(), events[0].Actor)
		s.NotContains(events[0].Details, "0102030405")
	})

	s.Run("repeat verification returns the same handle", func() {
		first, err := s.service.RegisterVerified(s.ctx, approved("0999999999"))
		s.Require().NoError(err)
		later := requestcontext.WithTime(s.ctx, requestcontext.Now(s.ctx).Add(24*time.Hour))
		second, err := s.service.RegisterVerified(later, approved("0999999999"))
		s.Require().NoError(err)
		s.Equal(first, second)

		rec, _ := s.handles.FindByHandle(s.ctx, first)
		s.Equal(requestcontext.Now(s.ctx), rec.FirstVerifiedAt)
	})

	s.Run("rejected verification", func() {
		result := approved("0102030405")
		result.LivenessPassed = false
		_, err := s.service.RegisterVerified(s.ctx, result)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("blank document number", func() {
		_, err := s.service.RegisterVerified(s.ctx, approved("   "))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *IdentityServiceSuite) TestRegisterVerified_AuditFailureAborts() {
	svc := New(s.handles, recorder.New(failingAuditStore{}), txcontext.NewMemoryRunner(s.handles))

	_, err := svc.RegisterVerified(s.ctx, approved("1111111111"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAuditFailure))

	expected, _ := pseudonym.Hash("1111111111")
	_, err = s.handles.FindByHandle(s.ctx, expected)
	s.ErrorIs(err, handle.ErrNotFound, "the handle is not kept when its audit fails")
}

func (s *IdentityServiceSuite) TestStaffHandle() {
	h, err := s.service.StaffHandle("admin")
	s.Require().NoError(err)
	expected, _ := pseudonym.Hash("staff:admin")
	s.Equal(expected, h)
}
