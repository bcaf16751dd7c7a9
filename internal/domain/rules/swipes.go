package rules

import "time"

// SkipActive reports whether a skip recorded at skippedAt still hides the
// candidate at now. A nil skippedAt is never active.
func SkipActive(skippedAt *time.Time, now time.Time, timeout time.Duration) bool {
	if skippedAt == nil {
		return false
	}
	return now.Sub(*skippedAt) < timeout
}

// SkipCutoff is the oldest skippedAt that still counts as active at now.
func SkipCutoff(now time.Time, timeout time.Duration) time.Time {
	return now.Add(-timeout)
}

// SwipeBlocksReswipe applies the replace-on-expiry rule to an existing record:
// liked or matched records are permanent, skips block only while active.
func SwipeBlocksReswipe(liked, isMatch bool, skippedAt *time.Time, now time.Time, timeout time.Duration) bool {
	if liked || isMatch {
		return true
	}
	if skippedAt == nil {
		return true
	}
	return SkipActive(skippedAt, now, timeout)
}
