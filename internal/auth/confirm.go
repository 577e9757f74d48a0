package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// ConfirmAction names what a confirmation token allows. It is carried in the
// token's "aud" claim, so a token minted for one action is useless for another.
type ConfirmAction string

const (
	ActionDeleteUser     ConfirmAction = "delete-user"
	ActionDeleteFeedback ConfirmAction = "delete-feedback"
)

const confirmIssuer = "feedback"

// ErrInvalidConfirmation covers every way a confirmation token can be
// unusable: missing, expired, tampered, or minted for another user, action
// or resource.
var ErrInvalidConfirmation = errors.New("auth: invalid confirmation token")

// ConfirmTokens issues and checks the short-lived tokens embedded in delete
// forms (the hidden csrf_token field).
//
// A token is an HS256 JWT:
//
//	{"iss":"feedback","sub":"42","aud":["delete-feedback"],"target":7,
//	 "jti":"cv37rs3pp9olc6atsptg","iat":...,"exp":...}
//
// Verifying it proves the POST came from a form this server rendered for
// that exact user and resource, which is what stops cross-site deletes.
type ConfirmTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewConfirmTokens creates a ConfirmTokens signing with secret. Tokens expire
// after ttl.
func NewConfirmTokens(secret string, ttl time.Duration) (*ConfirmTokens, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: confirmation token TTL must be positive")
	}
	return &ConfirmTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

type confirmClaims struct {
	jwt.RegisteredClaims
	Target int64 `json:"target"`
}

// Issue mints a token allowing userID to perform action on target.
func (c *ConfirmTokens) Issue(userID int64, action ConfirmAction, target int64) (string, error) {
	now := c.now()

	claims := confirmClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    confirmIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{string(action)},
			ID:        xid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Target: target,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing confirmation token: %w", err)
	}
	return signed, nil
}

// Verify checks that tokenStr was issued by Issue(userID, action, target)
// and has not expired. Any failure wraps ErrInvalidConfirmation.
func (c *ConfirmTokens) Verify(tokenStr string, userID int64, action ConfirmAction, target int64) error {
	if tokenStr == "" {
		return fmt.Errorf("%w: missing", ErrInvalidConfirmation)
	}

	var claims confirmClaims
	_, err := jwt.ParseWithClaims(
		tokenStr,
		&claims,
		func(token *jwt.Token) (any, error) {
			return c.secret, nil
		},
		// Pinning the algorithm rejects "alg":"none" and RSA/HMAC confusion.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(confirmIssuer),
		jwt.WithSubject(strconv.FormatInt(userID, 10)),
		jwt.WithAudience(string(action)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: expired", ErrInvalidConfirmation)
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfirmation, err)
	}

	if claims.Target != target {
		return fmt.Errorf("%w: issued for %s %d, not %d", ErrInvalidConfirmation, action, claims.Target, target)
	}
	return nil
}
