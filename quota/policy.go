package quota

import (
	"fmt"
	"math"
	"strconv"
)

// warnThresholdPercent is the usage percentage at which a user with headroom
// left still gets an early warning.
const warnThresholdPercent = 80

// Evaluate derives the status of a quota record. Pure: no I/O, no clock.
// Warning precedence is hard limit, then soft limit, then the approaching
// threshold; the first match wins.
func Evaluate(r Record) Status {
	st := Status{Username: r.Username, HasQuota: r.HardLimitMB > 0}
	if !st.HasQuota {
		return st
	}

	st.Percentage = percentage(r.UsedMB, r.HardLimitMB)
	st.OverSoft = r.UsedMB >= r.SoftLimitMB
	st.OverHard = r.UsedMB >= r.HardLimitMB

	switch {
	case st.OverHard:
		st.Warning = "hard limit exceeded - no further writes allowed"
	case st.OverSoft:
		grace := r.Grace
		if grace == "" {
			grace = "N/A"
		}
		st.Warning = "soft limit exceeded - grace period: " + grace
	case st.Percentage >= warnThresholdPercent:
		st.Warning = fmt.Sprintf("approaching quota limit (%s%%)", formatPercent(st.Percentage))
	}
	return st
}

// percentage returns used/limit*100 rounded to two decimals.
func percentage(used, limit int64) float64 {
	if limit == 0 {
		return 0
	}
	return math.Round(float64(used)/float64(limit)*10000) / 100
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
