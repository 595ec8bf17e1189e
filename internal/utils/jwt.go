package utils // package utils provides helper functions for session tokens, hashing and ids

import (
    "crypto/sha256" // SHA‑256 hashing for revoked tokens
    "encoding/hex"  // hex encoding of digests
    "errors"
    "time" // expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned for malformed, badly signed or expired
// session tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// SessionClaims is the payload of a session token.  It carries the
// same fields the login response returns so that a token alone is
// enough to identify the caller.
type SessionClaims struct {
    UserID string `json:"userId"` // users.userID
    Email  string `json:"email"`  // users.email
    Role   string `json:"role"`   // STUDENT or ADMIN
    jwt.RegisteredClaims
}

// SessionToken is a signed token along with its expiry.
type SessionToken struct {
    Token     string    // the serialized JWT string
    ExpiresAt time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The
// token expires ttl after now.  Each token gets a random jti so two
// logins in the same second still yield distinct tokens.
func NewSessionToken(secret, userID, email, role string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := SessionClaims{
        UserID: userID,
        Email:  email,
        Role:   role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   userID,
            ID:        NewID("jti"),
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, ExpiresAt: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and
// returns its claims.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
    claims := &SessionClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    if claims.UserID == "" {
        return nil, ErrInvalidToken
    }
    return claims, nil
}

// HashToken returns the SHA‑256 hash of a raw token as a hex string.
// Only hashes of revoked tokens are stored.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// ParseSessionTokenIgnoringExpiry verifies the signature of raw but
// accepts an expired token.  It is used only for refresh.
func ParseSessionTokenIgnoringExpiry(secret, raw string) (*SessionClaims, error) {
    claims := &SessionClaims{}
    _, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
    if err != nil || claims.UserID == "" {
        return nil, ErrInvalidToken
    }
    return claims, nil
}
