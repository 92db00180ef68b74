package domain

import "math"

// BalanceSnapshot captures the account balance in display units at one point
// in time. The service reports raw integers; NewBalanceSnapshot converts them.
type BalanceSnapshot struct {
	Quota     float64
	UsedQuota float64
}

// NewBalanceSnapshot scales raw quota values down by scale and rounds to two
// decimal places.
func NewBalanceSnapshot(rawQuota, rawUsedQuota, scale float64) BalanceSnapshot {
	return BalanceSnapshot{
		Quota:     round2(rawQuota / scale),
		UsedQuota: round2(rawUsedQuota / scale),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
