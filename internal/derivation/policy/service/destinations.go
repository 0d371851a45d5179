package service

import (
	"context"
	"errors"
	"fmt"

	"vozsegura/internal/derivation/models"
	policystore "vozsegura/internal/derivation/policy/store"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/requestcontext"
)

func (s *Service) CreateDestination(ctx context.Context, req models.CreateDestinationRequest, actor models.Actor) (*models.Destination, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	d := &models.Destination{
		Name:      req.Name,
		Code:      req.Code,
		Endpoint:  req.Endpoint,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.mutate(ctx, audit.EventDestinationCreated, actor, func(ctx context.Context) (string, error) {
		if err := s.store.CreateDestination(ctx, d); err != nil {
			return "", translate(err, "destination")
		}
		return fmt.Sprintf("destination_id=%s code=%s", d.ID, d.Code), nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDestination changes the display name and endpoint. The code is immutable.
func (s *Service) UpdateDestination(ctx context.Context, req models.UpdateDestinationRequest, actor models.Actor) (*models.Destination, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var updated *models.Destination
	err := s.mutate(ctx, audit.EventDestinationUpdated, actor, func(ctx context.Context) (string, error) {
		d, err := s.store.GetDestination(ctx, req.DestinationID)
		if err != nil {
			return "", translate(err, "destination")
		}
		endpointChanged := d.Endpoint != req.Endpoint
		d.Name = req.Name
		d.Endpoint = req.Endpoint
		d.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateDestination(ctx, d); err != nil {
			return "", translate(err, "destination")
		}
		updated = d
		return fmt.Sprintf("destination_id=%s endpoint_changed=%t", d.ID, endpointChanged), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateDestination stops new derivations to the destination. Rules that
// still point at it fail with DESTINATION_INACTIVE until an administrator
// repoints them.
func (s *Service) DeactivateDestination(ctx context.Context, destID id.DestinationID, actor models.Actor) (*models.Destination, error) {
	var deactivated *models.Destination
	err := s.mutate(ctx, audit.EventDestinationDeactivated, actor, func(ctx context.Context) (string, error) {
		d, err := s.store.GetDestination(ctx, destID)
		if err != nil {
			return "", translate(err, "destination")
		}
		if !d.IsActive() {
			return "", dErrors.New(dErrors.CodeConflict, "destination is already inactive")
		}
		d.Deactivate(requestcontext.Now(ctx))
		if err := s.store.UpdateDestination(ctx, d); err != nil {
			return "", translate(err, "destination")
		}
		deactivated = d
		return fmt.Sprintf("destination_id=%s active=true->false", d.ID), nil
	})
	if err != nil {
		return nil, err
	}
	return deactivated, nil
}

func (s *Service) GetDestination(ctx context.Context, destID id.DestinationID) (*models.Destination, error) {
	d, err := s.store.GetDestination(ctx, destID)
	if err != nil {
		return nil, translate(err, "destination")
	}
	return d, nil
}

// FindDestinationByCode returns nil, nil when no destination has the code.
func (s *Service) FindDestinationByCode(ctx context.Context, code string) (*models.Destination, error) {
	d, err := s.store.FindDestinationByCode(ctx, code)
	if errors.Is(err, policystore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "destination")
	}
	return d, nil
}

func (s *Service) ListDestinations(ctx context.Context) ([]*models.Destination, error) {
	ds, err := s.store.ListDestinations(ctx)
	if err != nil {
		return nil, translate(err, "destinations")
	}
	return ds, nil
}
