package port

import "github.com/rl1809/shop-api/internal/core/domain"

type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)

	// Verify returns domain.ErrUnauthenticated for any malformed, forged or expired token
	Verify(token string) (domain.Identity, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
