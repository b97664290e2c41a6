package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseInterval parses an "HH:MM:SS" period. Exactly three numeric components are required.
func ParseInterval(raw string) (time.Duration, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, raw)
	}

	units := [3]time.Duration{time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, raw)
		}
		if int64(n) > (math.MaxInt64-int64(total))/int64(units[i]) {
			return 0, fmt.Errorf("%w: %q is too long", ErrInvalidInterval, raw)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}
