package handler

import (
	"time"

	"vozsegura/internal/complaint"
	"vozsegura/internal/derivation/orchestrator"
	id "vozsegura/pkg/domain"
)

// DeriveResponse is returned by POST /admin/complaints/{trackingID}/derive.
type DeriveResponse struct {
	TrackingID      id.TrackingID    `json:"tracking_id"`
	Status          complaint.Status `json:"status"`
	DestinationID   id.DestinationID `json:"destination_id"`
	DestinationCode string           `json:"destination_code"`
	DestinationName string           `json:"destination_name"`
	DerivedAt       *time.Time       `json:"derived_at,omitempty"`
	AlreadyDerived  bool             `json:"already_derived"`
}

func FromResult(res *orchestrator.Result) DeriveResponse {
	resp := DeriveResponse{
		TrackingID:      res.TrackingID,
		Status:          res.Status,
		DestinationID:   res.DestinationID,
		DestinationCode: res.DestinationCode,
		DestinationName: res.DestinationName,
		AlreadyDerived:  res.AlreadyDerived,
	}
	if !res.DerivedAt.IsZero() {
		at := res.DerivedAt
		resp.DerivedAt = &at
	}
	return resp
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}
