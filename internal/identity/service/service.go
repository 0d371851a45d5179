// Package service registers verified citizens under their pseudonymous handle.
package service

import (
	"context"
	"log/slog"
	"time"

	"vozsegura/internal/identity/models"
	"vozsegura/internal/identity/pseudonym"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	txcontext "vozsegura/pkg/platform/tx"
	"vozsegura/pkg/requestcontext"
)

// HandleStore persists identity handles.
type HandleStore interface {
	EnsureHandle(ctx context.Context, handle id.IdentityHandle, verifiedAt time.Time) (*models.HandleRecord, bool, error)
}

// AuditRecorder records audit events in the requested mode.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event, mode audit.Mode) error
}

type Service struct {
	handles HandleStore
	auditor AuditRecorder
	tx      txcontext.Runner
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(handles HandleStore, auditor AuditRecorder, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		handles: handles,
		auditor: auditor,
		tx:      tx,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterVerified pseudonymizes an approved verification result and records
// the handle. The handle insert and its audit event commit together.
func (s *Service) RegisterVerified(ctx context.Context, result models.VerificationResult) (id.IdentityHandle, error) {
	if !result.Approved || !result.LivenessPassed {
		s.logger.WarnContext(ctx, "identity verification not approved",
			"provider", result.Provider,
			"request_id", requestcontext.RequestID(ctx),
		)
		return "", dErrors.New(dErrors.CodeForbidden, "identity verification was not approved")
	}

	handle, err := pseudonym.Hash(result.DocumentNumber)
	if err != nil {
		return "", err
	}
	result.DocumentNumber = ""

	now := requestcontext.Now(ctx)
	var created bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		_, created, txErr = s.handles.EnsureHandle(ctx, handle, now)
		if txErr != nil {
			return dErrors.Wrap(txErr, dErrors.CodeInternal, "failed to register identity")
		}
		details := "first_verification=false"
		if created {
			details = "first_verification=true"
		}
		return s.auditor.Record(ctx, audit.Event{
			Type:    audit.EventIdentityVerified,
			Outcome: audit.OutcomeSuccess,
			Actor:   handle.String(),
			Details: details,
		}, audit.FailClosed)
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "identity registered",
		"first_verification", created,
		"request_id", requestcontext.RequestID(ctx),
	)
	return handle, nil
}

// StaffHandle returns the pseudonymous audit actor for a staff username.
func (s *Service) StaffHandle(username string) (id.IdentityHandle, error) {
	return pseudonym.StaffHandle(username)
}
