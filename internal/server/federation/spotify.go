package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

const (
	SpotifyName       = "spotify"
	SpotifyProfileURL = "https://api.spotify.com/v1/me"

	DefaultTimeout = 10 * time.Second

	maxProfileBytes = 1 << 20
)

// Spotify implements Provider against the Spotify accounts service.
// Each call is a single attempt bounded by the configured timeout.
type Spotify struct {
	conf       *oauth2.Config
	profileURL string
	client     *http.Client
	timeout    time.Duration
}

type SpotifyOption func(*Spotify)

// WithEndpoint overrides the authorize and token URLs.
func WithEndpoint(authURL, tokenURL string) SpotifyOption {
	return func(s *Spotify) {
		s.conf.Endpoint.AuthURL = authURL
		s.conf.Endpoint.TokenURL = tokenURL
	}
}

// WithProfileURL overrides the profile endpoint.
func WithProfileURL(u string) SpotifyOption {
	return func(s *Spotify) { s.profileURL = u }
}

// WithHTTPClient sets the client used for both round-trips.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *Spotify) { s.client = c }
}

func NewSpotify(clientID, clientSecret, redirectURL string, timeout time.Duration, opts ...SpotifyOption) *Spotify {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	endpoint := spotify.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	s := &Spotify{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"user-read-email"},
		},
		profileURL: SpotifyProfileURL,
		client:     &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Spotify) Name() string        { return SpotifyName }
func (s *Spotify) DisplayName() string { return "Spotify" }

// ClientID is exposed for the login page.
func (s *Spotify) ClientID() string { return s.conf.ClientID }

func (s *Spotify) AuthCodeURL(state string) string {
	return s.conf.AuthCodeURL(state)
}

func (s *Spotify) Exchange(ctx context.Context, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)

	tok, err := s.conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return "", nil
		}
		return "", fmt.Errorf("%w: spotify token exchange: %v", common.ErrUpstream, err)
	}

	return tok.AccessToken, nil
}

func (s *Spotify) FetchEmail(ctx context.Context, accessToken string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)

	client := s.conf.Client(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.profileURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: spotify profile request: %v", common.ErrUpstream, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: spotify profile: %v", common.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: spotify profile: status %d", common.ErrUpstream, resp.StatusCode)
	}

	var profile struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(&profile); err != nil {
		return "", fmt.Errorf("%w: spotify profile decode: %v", common.ErrUpstream, err)
	}
	if profile.Email == "" {
		return "", fmt.Errorf("%w: spotify profile has no email", common.ErrUpstream)
	}

	return profile.Email, nil
}
