package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/soundhub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func newCodec() *TokenCodec {
	return NewTokenCodec([]byte("access-secret"), []byte("refresh-secret"))
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	c := newCodec()
	now := time.Now()

	for _, kind := range []TokenKind{AccessToken, RefreshToken} {
		tok, err := c.Issue(kind, "user-123", now)
		if err != nil {
			t.Fatalf("%s: Issue error: %v", kind, err)
		}

		got, err := c.Verify(kind, tok, now.Add(time.Minute))
		if err != nil {
			t.Fatalf("%s: Verify error: %v", kind, err)
		}
		if got != "user-123" {
			t.Fatalf("%s: userID mismatch: got %q", kind, got)
		}
	}
}

func TestIssue_ClaimsShape(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	tok, err := newCodec().Issue(AccessToken, "u1", now)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		t.Fatalf("ParseUnverified error: %v", err)
	}
	if claims["user_id"] != "u1" {
		t.Fatalf("user_id claim: %v", claims["user_id"])
	}
	if claims["iat"].(float64) != float64(now.Unix()) {
		t.Fatalf("iat claim: %v", claims["iat"])
	}
	if claims["exp"].(float64) != float64(now.Add(AccessTokenTTL).Unix()) {
		t.Fatalf("exp claim: %v", claims["exp"])
	}
}

func TestVerify_ExpiredAccessToken(t *testing.T) {
	t.Parallel()

	c := newCodec()
	issued := time.Now()
	tok, err := c.Issue(AccessToken, "u1", issued)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = c.Verify(AccessToken, tok, issued.Add(AccessTokenTTL+time.Second))
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerify_RefreshTTL(t *testing.T) {
	t.Parallel()

	c := newCodec()
	issued := time.Now()
	tok, _ := c.Issue(RefreshToken, "u1", issued)

	if _, err := c.Verify(RefreshToken, tok, issued.Add(RefreshTokenTTL-time.Minute)); err != nil {
		t.Fatalf("refresh token should still be valid: %v", err)
	}
	if _, err := c.Verify(RefreshToken, tok, issued.Add(RefreshTokenTTL+time.Second)); !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerify_CrossKindIsMalformed(t *testing.T) {
	t.Parallel()

	c := newCodec()
	now := time.Now()
	refresh, _ := c.Issue(RefreshToken, "u1", now)
	access, _ := c.Issue(AccessToken, "u1", now)

	if _, err := c.Verify(AccessToken, refresh, now); !errors.Is(err, common.ErrTokenMalformed) {
		t.Fatalf("refresh verified as access: want ErrTokenMalformed, got %v", err)
	}
	if _, err := c.Verify(RefreshToken, access, now); !errors.Is(err, common.ErrTokenMalformed) {
		t.Fatalf("access verified as refresh: want ErrTokenMalformed, got %v", err)
	}
}

func TestVerify_WrongSecretWinsOverExpiry(t *testing.T) {
	t.Parallel()

	issued := time.Now()
	tok, _ := NewTokenCodec([]byte("other"), []byte("other-refresh")).Issue(AccessToken, "u1", issued)

	_, err := newCodec().Verify(AccessToken, tok, issued.Add(time.Hour))
	if !errors.Is(err, common.ErrTokenMalformed) {
		t.Fatalf("expected common.ErrTokenMalformed, got %v", err)
	}
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "not.a.jwt", "abc"} {
		if _, err := newCodec().Verify(AccessToken, in, time.Now()); !errors.Is(err, common.ErrTokenMalformed) {
			t.Fatalf("%q: expected common.ErrTokenMalformed, got %v", in, err)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	if _, err := newCodec().Verify(AccessToken, s, now); !errors.Is(err, common.ErrTokenMalformed) {
		t.Fatalf("expected common.ErrTokenMalformed, got %v", err)
	}
}
