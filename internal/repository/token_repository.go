package repository

import (
	"context"
	"time"
)

// RevokedToken is one row of `revoked_tokens`.  Only the SHA‑256 of
// the session token is stored.
type RevokedToken struct {
	TokenHash string    `json:"tokenHash"`
	UserID    string    `json:"userID"`
	ExpiresAt time.Time `json:"expiresAt"`
	RevokedAt time.Time `json:"revokedAt"`
}

// TokenRepo persists logged-out session tokens so they stop
// validating before they expire.
type TokenRepo struct{ repo *Repository }

func NewTokenRepo(r *Repository) *TokenRepo { return &TokenRepo{repo: r} }

// Revoke records tokenHash as revoked.  Revoking twice is a no-op.
func (r *TokenRepo) Revoke(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	revoked, err := r.IsRevoked(ctx, tokenHash)
	if err != nil || revoked {
		return err
	}
	return r.repo.Save(ctx, RevokedToken{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: exp.UTC(),
		RevokedAt: time.Now().UTC(),
	}, TableRevokedTokens)
}

// IsRevoked reports whether tokenHash was revoked.
func (r *TokenRepo) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	_, ok, err := r.repo.FindByID(ctx, tokenHash, TableRevokedTokens, IDRevokedToken)
	return ok, err
}

// PurgeExpired drops rows whose token would have expired anyway and
// returns how many were removed.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	rows, err := List[RevokedToken](ctx, r.repo, TableRevokedTokens)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, t := range rows {
		if t.ExpiresAt.After(now) {
			continue
		}
		n, err := r.repo.Delete(ctx, t.TokenHash, TableRevokedTokens, IDRevokedToken)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}
