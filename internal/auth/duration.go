package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var expireRe = regexp.MustCompile(`^(\d+)([dwh])$`)

// ParseExpirationDuration turns a token expiry spec into an absolute time.
// Accepted forms: "never" or empty (no expiry), any Go duration ("30m",
// "2h30m"), day/week shorthand ("30d", "2w"), or a calendar date
// ("01/02/2006", optionally with " 15:04").
func ParseExpirationDuration(expiresIn string) (*time.Time, error) {
	if expiresIn == "" || expiresIn == "never" {
		return nil, nil
	}

	if dur, err := time.ParseDuration(expiresIn); err == nil {
		t := time.Now().Add(dur)
		return &t, nil
	}

	for _, format := range []string{"01/02/2006 15:04", "01/02/2006"} {
		if t, err := time.Parse(format, expiresIn); err == nil {
			if t.Before(time.Now()) {
				return nil, fmt.Errorf("expiration date must be in the future: %s", expiresIn)
			}
			return &t, nil
		}
	}

	matches := expireRe.FindStringSubmatch(expiresIn)
	if len(matches) != 3 {
		return nil, fmt.Errorf("invalid expiration format: %s (use 'never', '30d', '24h', a date, or a Go duration)", expiresIn)
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid number in expiration: %s", expiresIn)
	}

	var dur time.Duration
	switch matches[2] {
	case "d":
		dur = time.Duration(num) * 24 * time.Hour
	case "w":
		dur = time.Duration(num) * 7 * 24 * time.Hour
	case "h":
		dur = time.Duration(num) * time.Hour
	}

	t := time.Now().Add(dur)
	return &t, nil
}
