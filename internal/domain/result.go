package domain

// Outcome classifies one account's check-in run.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
	OutcomeFailed           Outcome = "failed"
)

// AlreadyCheckedInMessage is the error text attached to the skip outcome. The
// service grants one check-in per calendar day; a zero balance delta with an
// API-reported success means today's was already claimed.
const AlreadyCheckedInMessage = "already checked in today"

// APIVerdict is the service's own claim about a sign-in call, before balance
// verification. Message is set only on failure.
type APIVerdict struct {
	Success bool
	Message string
}

// CheckinResult is the terminal record of one account's pipeline run. Exactly
// one is produced per configured account, index-aligned with the input list.
type CheckinResult struct {
	AccountIndex  int
	Label         string
	Outcome       Outcome
	UserInfo      string
	Error         string
	BalanceBefore *BalanceSnapshot
	BalanceAfter  *BalanceSnapshot
}

// Success reports true success: a verified balance increase, or an
// unverifiable API-reported success.
func (r CheckinResult) Success() bool {
	return r.Outcome == OutcomeSuccess
}

// BalanceDelta returns the rounded quota change when both snapshots exist.
func (r CheckinResult) BalanceDelta() (float64, bool) {
	if r.BalanceBefore == nil || r.BalanceAfter == nil {
		return 0, false
	}
	return round2(r.BalanceAfter.Quota - r.BalanceBefore.Quota), true
}

// ClassifyOutcome decides the true outcome of a check-in from the API's own
// verdict and the balance probes around the call.
//
// With both snapshots available the balance is authoritative: a positive
// delta is a success no matter what the API said, while an API success with
// no increase means the account was already checked in today. Without both
// snapshots the raw API flag is the best available verdict.
func ClassifyOutcome(verdict APIVerdict, before, after *BalanceSnapshot) (Outcome, string) {
	if before != nil && after != nil {
		delta := round2(after.Quota - before.Quota)
		switch {
		case delta > 0:
			return OutcomeSuccess, ""
		case verdict.Success:
			return OutcomeAlreadyCheckedIn, AlreadyCheckedInMessage
		default:
			return OutcomeFailed, failureMessage(verdict)
		}
	}

	if verdict.Success {
		return OutcomeSuccess, ""
	}
	return OutcomeFailed, failureMessage(verdict)
}

func failureMessage(verdict APIVerdict) string {
	if verdict.Message == "" {
		return "Unknown error"
	}
	return verdict.Message
}
