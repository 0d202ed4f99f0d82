package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// timezoneURL returns an IANA timezone identifier for the caller's IP.
var timezoneURL = "https://ipapi.co/timezone"

// timezoneLookupTimeout bounds the only network call the installer makes.
const timezoneLookupTimeout = 3 * time.Second

// timezoneFromIP guesses the timezone from the machine's public address.
// Purely best-effort: any failure falls back to the static default.
func timezoneFromIP(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timezoneLookupTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, timezoneURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("timezone lookup returned %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	tz := strings.TrimSpace(string(body))
	if tz == "" || strings.ContainsAny(tz, " \t") {
		return "", fmt.Errorf("unusable timezone response: %q", tz)
	}
	return tz, nil
}
