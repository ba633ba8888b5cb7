package federation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("redirect_uri") != "http://127.0.0.1:8000/api/auth/spotify_callback" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
			return
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "spotify-token", "token_type": "Bearer", "expires_in": 3600})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProfileServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer spotify-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSpotify(tokenURL, profileURL string, timeout time.Duration) *Spotify {
	return NewSpotify("client-id", "client-secret", "http://127.0.0.1:8000/api/auth/spotify_callback", timeout,
		WithEndpoint("https://accounts.example/authorize", tokenURL),
		WithProfileURL(profileURL))
}

func TestSpotify_Exchange(t *testing.T) {
	tokenSrv := newTokenServer(t, 0)
	s := newTestSpotify(tokenSrv.URL, "", time.Second)

	tok, err := s.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "spotify-token", tok)

	tok, err = s.Exchange(context.Background(), "bad-code")
	require.NoError(t, err, "a provider rejection is not an error")
	assert.Empty(t, tok)
}

func TestSpotify_Exchange_Timeout(t *testing.T) {
	tokenSrv := newTokenServer(t, 300*time.Millisecond)
	s := newTestSpotify(tokenSrv.URL, "", 50*time.Millisecond)

	start := time.Now()
	_, err := s.Exchange(context.Background(), "good-code")
	require.ErrorIs(t, err, common.ErrUpstream)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestSpotify_Exchange_Unreachable(t *testing.T) {
	s := newTestSpotify("http://127.0.0.1:1/token", "", time.Second)

	_, err := s.Exchange(context.Background(), "good-code")
	require.ErrorIs(t, err, common.ErrUpstream)
}

func TestSpotify_FetchEmail(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"id":"x","email":"fan@x.com"}`, want: "fan@x.com"},
		{name: "no email", status: http.StatusOK, body: `{"id":"x"}`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: true},
		{name: "provider error", status: http.StatusForbidden, body: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProfileServer(t, tt.status, tt.body)
			s := newTestSpotify("", srv.URL, time.Second)

			got, err := s.FetchEmail(context.Background(), "spotify-token")
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrUpstream)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpotify_AuthCodeURL(t *testing.T) {
	s := NewSpotify("client-id", "secret", "http://127.0.0.1:8000/api/auth/spotify_callback", 0)

	u := s.AuthCodeURL("state-1")
	assert.True(t, strings.HasPrefix(u, "https://accounts.spotify.com/authorize?"), u)
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "state=state-1")
	assert.Contains(t, u, "scope=user-read-email")
	assert.Equal(t, "client-id", s.ClientID())
}

func TestRegistry(t *testing.T) {
	s := NewSpotify("id", "secret", "http://cb", 0)
	r := NewRegistry(s)

	got, err := r.Get("spotify")
	require.NoError(t, err)
	assert.Equal(t, "Spotify", got.DisplayName())

	_, err = r.Get("google")
	require.Error(t, err)
}
