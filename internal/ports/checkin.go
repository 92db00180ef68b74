package ports

import (
	"context"

	"github.com/qirune/anyrouter-checkin/internal/domain"
)

// CheckinSession talks to the check-in API on behalf of one account. Each
// session owns a private cookie jar seeded with the account cookies and the
// harvested anti-bot cookies.
type CheckinSession interface {
	// FetchUserInfo reads the account balance. A nil error guarantees a
	// usable snapshot.
	FetchUserInfo(ctx context.Context) (domain.BalanceSnapshot, error)
	// SignIn performs the check-in request. The returned error covers
	// transport failures only; an API-level rejection comes back as a
	// verdict with Success false and a diagnostic message.
	SignIn(ctx context.Context) (domain.APIVerdict, error)
}

// CheckinGateway builds per-account sessions against the check-in API.
type CheckinGateway interface {
	NewSession(account domain.Account, waf domain.WafCookies) (CheckinSession, error)
}
