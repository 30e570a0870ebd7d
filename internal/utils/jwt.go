package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // sentinel errors and error inspection
	"fmt"    // error formatting
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// TokenKind selects which of the two independently keyed token variants a
// Signer operation applies to.  Access and refresh tokens are signed with
// distinct secrets; a token of one kind never verifies against the other's key.
type TokenKind int

const (
	// AccessToken is the short-lived credential authorizing a single request window.
	AccessToken TokenKind = iota
	// RefreshToken is the longer-lived credential used solely to mint new access tokens.
	RefreshToken
)

// ErrTokenExpired is returned by Verify when the signature is valid but the
// token's expiry has passed.  The session middleware treats this differently
// from ErrTokenInvalid: an expired access token triggers a refresh attempt,
// an invalid one is rejected outright.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid is returned by Verify for any failure other than expiry:
// bad signature, wrong key, malformed payload, unexpected algorithm.
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the decoded claim set carried by access and refresh tokens.
type Claims struct {
	UserID    uint64    // subject user id
	FirstName string    // carried for display purposes, echoed into rotated tokens
	Exp       time.Time // expiry instant
}

// Signer issues and verifies the two token kinds.  It is pure computation:
// no I/O, safe for concurrent use.
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	method        *jwt.SigningMethodHMAC
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewSigner builds a Signer from configuration.  The algorithm name must be
// one of the HMAC family (HS256, HS384, HS512); anything else is a
// configuration error and is rejected up front rather than at first use.
func NewSigner(accessSecret, refreshSecret, algorithm string, accessTTLMin, refreshTTLMin int) (*Signer, error) {
	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &Signer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		method:        method,
		accessTTL:     time.Duration(accessTTLMin) * time.Minute,
		refreshTTL:    time.Duration(refreshTTLMin) * time.Minute,
	}, nil
}

// TTL returns the configured lifetime for a token kind.  Cookie Max-Age is
// derived from this so the cookie and the claim expire together.
func (s *Signer) TTL(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Issue signs a token of the given kind for a user.  The expiry is computed
// from the kind's configured TTL; callers never supply it.
func (s *Signer) Issue(userID uint64, firstName string, kind TokenKind) (string, time.Time, error) {
	exp := time.Now().UTC().Add(s.TTL(kind))
	claims := jwt.MapClaims{
		"user_id":    userID,
		"first_name": firstName,
		"exp":        exp.Unix(),
	}
	t := jwt.NewWithClaims(s.method, claims)
	signed, err := t.SignedString(s.key(kind))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature and expiry of a token against the matching key and
// returns its claims.  Expired and invalid are distinguished outcomes.
func (s *Signer) Verify(raw string, kind TokenKind) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Enforce the configured algorithm; tokens signed any other way are
		// invalid even if a key would match.
		if t.Method.Alg() != s.method.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.key(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	out := Claims{}
	// JSON numbers decode as float64; user_id must be present and positive.
	if v, ok := mc["user_id"].(float64); ok {
		out.UserID = uint64(v)
	}
	if out.UserID == 0 {
		return Claims{}, ErrTokenInvalid
	}
	if v, ok := mc["first_name"].(string); ok {
		out.FirstName = v
	}
	if v, ok := mc["exp"].(float64); ok {
		out.Exp = time.Unix(int64(v), 0).UTC()
	}
	return out, nil
}

func (s *Signer) key(kind TokenKind) []byte {
	if kind == RefreshToken {
		return s.refreshSecret
	}
	return s.accessSecret
}
