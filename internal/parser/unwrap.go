package parser

// hoursPerDay is added once to the suffix that follows a midnight rollover.
const hoursPerDay = 24.0

// unwrapRollover corrects a single midnight rollover in place.
// The first index t where hours[t] drops below hours[t-1] (or equals it when
// inclusive is set) starts a suffix that is shifted by 24h; scanning stops there.
// It returns the index where the correction started, or -1.
func unwrapRollover(hours []float64, inclusive bool) int {
	for t := 1; t < len(hours); t++ {
		wrapped := hours[t] < hours[t-1]
		if inclusive {
			wrapped = hours[t] <= hours[t-1]
		}
		if !wrapped {
			continue
		}
		for i := t; i < len(hours); i++ {
			hours[i] += hoursPerDay
		}
		return t
	}
	return -1
}
