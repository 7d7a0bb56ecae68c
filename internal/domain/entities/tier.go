package entities

// Tier identifies a subscription tier.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// ParseTier maps a stored tier label to a Tier, falling back to basic.
func ParseTier(s string) Tier {
	if Tier(s) == TierPremium {
		return TierPremium
	}
	return TierBasic
}

// TierPolicy describes how a tier's daily batch is composed: how many cards
// in total and which fraction of them must be never-seen content.
type TierPolicy struct {
	Tier            Tier
	TargetCount     int
	NewContentRatio float64
}

// Normalize clamps the policy to valid bounds. A malformed policy degrades
// to a smaller or less fresh batch, never to an error.
func (p TierPolicy) Normalize() TierPolicy {
	if p.TargetCount < 0 {
		p.TargetCount = 0
	}
	if p.NewContentRatio < 0 {
		p.NewContentRatio = 0
	}
	if p.NewContentRatio > 1 {
		p.NewContentRatio = 1
	}
	return p
}

// Per-kind shares of the ratio-sampled part of a batch, in percent.
// Math takes whatever remains so the shares always sum to the quota.
const (
	factShare     = 40
	activityShare = 20
	riddleShare   = 20
)

// KindQuotas splits the batch across content kinds. Games are not sampled:
// the whole game catalog ships every day, so gameCount is subtracted up
// front and only the remainder is divided between the ratio-driven kinds.
func (p TierPolicy) KindQuotas(gameCount int) map[Kind]int {
	p = p.Normalize()

	if gameCount > p.TargetCount {
		gameCount = p.TargetCount
	}
	remainder := p.TargetCount - gameCount

	fact := remainder * factShare / 100
	activity := remainder * activityShare / 100
	riddle := remainder * riddleShare / 100
	math := remainder - fact - activity - riddle

	return map[Kind]int{
		KindFact:     fact,
		KindActivity: activity,
		KindRiddle:   riddle,
		KindMath:     math,
		KindGame:     gameCount,
	}
}

// CeilDiv returns the ceiling of a/b; used to spread a kind quota across its
// categories.
func CeilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
