package ports

import (
	"context"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

// AccountSource supplies the configured account list. Load fails fast on
// malformed configuration so no network activity happens for a bad config.
type AccountSource interface {
	Load(ctx context.Context) ([]domain.Account, error)
}
