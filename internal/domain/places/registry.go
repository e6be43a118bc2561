package places

import (
	"context"
	"errors"
	"fmt"

	"github.com/openbites/bitefinder/internal/domain/geo"
)

// ErrIdentifierRetired marks registry responses saying the external id is no
// longer recognised. Clients wrap it so callers can trigger re-resolution.
var ErrIdentifierRetired = errors.New("place identifier retired")

// Registry is the upstream place-registry contract.
type Registry interface {
	TextSearch(ctx context.Context, query string, bias *geo.Coordinates) ([]Candidate, error)
	FetchDetails(ctx context.Context, externalID string, fields []string) (Details, error)
	ResolvePhotoURL(ctx context.Context, photoRef string, maxWidthPx int) (string, error)
}

// StaleIdentifierError is returned when a retired identifier could not be
// re-resolved, or the retried operation failed again.
type StaleIdentifierError struct {
	ExternalID string
	Err        error
}

func (e *StaleIdentifierError) Error() string {
	return fmt.Sprintf("stale place identifier %q: %v", e.ExternalID, e.Err)
}

func (e *StaleIdentifierError) Unwrap() error {
	return e.Err
}
