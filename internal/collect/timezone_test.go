package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTimezoneURL(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	prev := timezoneURL
	timezoneURL = srv.URL
	t.Cleanup(func() {
		timezoneURL = prev
		srv.Close()
	})
}

func TestTimezoneFromIP(t *testing.T) {
	setTimezoneURL(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("Europe/Berlin\n"))
	})

	tz, err := timezoneFromIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", tz)
}

func TestTimezoneFromIPRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"whitespace only", "  \n"},
		{"prose instead of identifier", "rate limit exceeded try again"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTimezoneURL(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := timezoneFromIP(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestTimezoneFromIPErrorStatus(t *testing.T) {
	setTimezoneURL(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := timezoneFromIP(context.Background())
	assert.Error(t, err)
}
