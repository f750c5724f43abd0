// internal/domain/machine/reliability.go
package machine

// breakdownChance maps post-decay reliability to the percent chance of a
// breakdown this tick. Step thresholds, not a continuous curve.
func breakdownChance(reliability float64) int {
	switch {
	case reliability < 0.1:
		return 75
	case reliability < 0.2:
		return 50
	case reliability < 0.3:
		return 25
	case reliability < 0.4:
		return 10
	default:
		return 0
	}
}

// decayReliability applies one tick of wear, floored at zero
func decayReliability(reliability, decay float64) float64 {
	next := reliability - decay
	if next < 0 {
		return 0
	}
	return next
}

// recoverReliability applies the maintenance gain, capped at full reliability.
// The gain is proportional to the current value so a badly worn machine
// recovers less in absolute terms.
func recoverReliability(reliability, gainFactor float64) float64 {
	next := reliability + reliability*gainFactor
	if next > 1 {
		return 1
	}
	return next
}
