package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// FlowPurpose scopes a single-use flow token. Tokens minted for one purpose
// never validate for another.
type FlowPurpose string

const (
	PurposeActivation    FlowPurpose = "account-activation"
	PurposePasswordReset FlowPurpose = "password-reset"
)

const (
	DefaultFlowBucket        = 24 * time.Hour
	DefaultFlowMaxAgeBuckets = 3
)

var flowEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// FlowSubject is the snapshot of user state a flow token is bound to.
type FlowSubject struct {
	ID           string
	IsActive     bool
	PasswordHash string
}

// FlowTokenPolicy mints and checks "<bucket>-<mac>" tokens. The MAC covers
// the subject id, the time bucket and the state bound by the purpose:
// activation binds IsActive, password reset binds PasswordHash. Once that
// state changes the token stops validating.
type FlowTokenPolicy struct {
	secret        []byte
	bucket        time.Duration
	maxAgeBuckets int64
}

type FlowTokenOption func(*FlowTokenPolicy)

// WithBucket sets the width of one time bucket.
func WithBucket(d time.Duration) FlowTokenOption {
	return func(p *FlowTokenPolicy) {
		if d > 0 {
			p.bucket = d
		}
	}
}

// WithMaxAgeBuckets sets how many buckets before the current one are still
// accepted.
func WithMaxAgeBuckets(n int) FlowTokenOption {
	return func(p *FlowTokenPolicy) {
		if n >= 0 {
			p.maxAgeBuckets = int64(n)
		}
	}
}

func NewFlowTokenPolicy(secret []byte, opts ...FlowTokenOption) *FlowTokenPolicy {
	p := &FlowTokenPolicy{
		secret:        secret,
		bucket:        DefaultFlowBucket,
		maxAgeBuckets: DefaultFlowMaxAgeBuckets,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Make returns a token for subject valid from the bucket containing now.
func (p *FlowTokenPolicy) Make(purpose FlowPurpose, subject FlowSubject, now time.Time) string {
	b := p.bucketOf(now)
	return strconv.FormatInt(b, 36) + "-" + p.mac(purpose, subject, b)
}

// Check reports whether token is currently valid for subject.
func (p *FlowTokenPolicy) Check(purpose FlowPurpose, subject FlowSubject, token string, now time.Time) bool {
	if subject.ID == "" || token == "" {
		return false
	}

	bucketPart, macPart, ok := strings.Cut(token, "-")
	if !ok || bucketPart == "" || macPart == "" {
		return false
	}

	b, err := strconv.ParseInt(bucketPart, 36, 64)
	if err != nil || b < 0 {
		return false
	}

	current := p.bucketOf(now)
	if b > current || current-b > p.maxAgeBuckets {
		return false
	}

	return hmac.Equal([]byte(p.mac(purpose, subject, b)), []byte(macPart))
}

func (p *FlowTokenPolicy) bucketOf(t time.Time) int64 {
	return int64(t.Sub(flowEpoch) / p.bucket)
}

func (p *FlowTokenPolicy) mac(purpose FlowPurpose, subject FlowSubject, bucket int64) string {
	key := sha256.Sum256(append([]byte("soundhub.flowtoken."+string(purpose)), p.secret...))

	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(subject.ID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(bucket, 10)))
	h.Write([]byte{0})
	h.Write([]byte(boundState(purpose, subject)))

	return hex.EncodeToString(h.Sum(nil))
}

func boundState(purpose FlowPurpose, subject FlowSubject) string {
	switch purpose {
	case PurposePasswordReset:
		return subject.PasswordHash
	default:
		return strconv.FormatBool(subject.IsActive)
	}
}
