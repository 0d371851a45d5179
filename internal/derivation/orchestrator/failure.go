package orchestrator

import (
	"fmt"

	dErrors "vozsegura/pkg/domain-errors"
)

// Reason is the stable code of a derivation outcome other than success.
type Reason string

const (
	ReasonNoEffectivePolicy     Reason = "NO_EFFECTIVE_POLICY"
	ReasonNoMatchingRule        Reason = "NO_MATCHING_RULE"
	ReasonDestinationInactive   Reason = "DESTINATION_INACTIVE"
	ReasonKeyUnavailable        Reason = "KEY_UNAVAILABLE"
	ReasonDeliveryTimeout       Reason = "DELIVERY_TIMEOUT"
	ReasonDeliveryServerError   Reason = "DELIVERY_SERVER_ERROR"
	ReasonDeliveryNetworkError  Reason = "DELIVERY_NETWORK_ERROR"
	ReasonDeliveryRejected      Reason = "DELIVERY_REJECTED"
	ReasonDeliveryMisconfigured Reason = "DELIVERY_MISCONFIGURED"
	ReasonDeliveryCircuitOpen   Reason = "DELIVERY_CIRCUIT_OPEN"
	ReasonAuditFailure          Reason = "AUDIT_FAILURE"
	ReasonInProgress            Reason = "IN_PROGRESS"
	ReasonInternal              Reason = "INTERNAL_ERROR"
)

var reasonCodes = map[Reason]dErrors.Code{
	ReasonNoEffectivePolicy:     dErrors.CodeConflict,
	ReasonNoMatchingRule:        dErrors.CodeConflict,
	ReasonDestinationInactive:   dErrors.CodeConflict,
	ReasonKeyUnavailable:        dErrors.CodeUnavailable,
	ReasonDeliveryTimeout:       dErrors.CodeTimeout,
	ReasonDeliveryServerError:   dErrors.CodeUnavailable,
	ReasonDeliveryNetworkError:  dErrors.CodeUnavailable,
	ReasonDeliveryRejected:      dErrors.CodeConflict,
	ReasonDeliveryMisconfigured: dErrors.CodeConflict,
	ReasonDeliveryCircuitOpen:   dErrors.CodeUnavailable,
	ReasonAuditFailure:          dErrors.CodeAuditFailure,
	ReasonInProgress:            dErrors.CodeConflict,
	ReasonInternal:              dErrors.CodeInternal,
}

// Failure is returned by Derive for every attempt that did not end in DERIVED.
// It unwraps to a domain error carrying the matching code, and to its cause.
type Failure struct {
	Reason    Reason
	Retryable bool
	Err       error
}

func newFailure(reason Reason, retryable bool, cause error) *Failure {
	return &Failure{Reason: reason, Retryable: retryable, Err: cause}
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("derivation failed: %s: %v", f.Reason, f.Err)
	}
	return "derivation failed: " + string(f.Reason)
}

func (f *Failure) ReasonCode() string {
	return string(f.Reason)
}

func (f *Failure) Unwrap() []error {
	code, ok := reasonCodes[f.Reason]
	if !ok {
		code = dErrors.CodeInternal
	}
	errs := []error{dErrors.New(code, "derivation "+string(f.Reason))}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}
