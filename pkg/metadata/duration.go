package metadata

import (
	"fmt"
	"strings"
)

// ParseISODuration converts the provider's ISO-8601 duration encoding
// (e.g. "PT1H2M3S", "P1DT2H") into whole seconds. Unknown input yields zero
// seconds with an error rather than failing the whole resolution.
func ParseISODuration(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("not an ISO-8601 duration: %q", s)
	}

	var total int64
	var num int64
	inTime := false
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int64(r-'0')
		case r == 'T':
			inTime = true
			num = 0
		case r == 'D':
			total += num * 86400
			num = 0
		case r == 'H' && inTime:
			total += num * 3600
			num = 0
		case r == 'M' && inTime:
			total += num * 60
			num = 0
		case r == 'S' && inTime:
			total += num
			num = 0
		default:
			return 0, fmt.Errorf("unexpected designator %q in %q", r, s)
		}
	}
	return total, nil
}
