package clientaccess

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tradeportal-backend/internal/applications"
)

func TestIssuerTokenShape(t *testing.T) {
	issuer := NewIssuer()
	issuer.Cost = bcrypt.MinCost

	token, password, hash, err := issuer.Issue()
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	assert.Len(t, token, 64)
	_, err = hex.DecodeString(token)
	assert.NoError(t, err)

	assert.Len(t, password, passwordLength)
	assert.NotEqual(t, password, hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)))

	// Two issues never collide.
	token2, password2, _, err := issuer.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.NotEqual(t, password, password2)
}

func seedApplication(t *testing.T, repo *applications.MemoryRepo, token, password string) applications.Application {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	app := applications.Application{
		ID:           "app-1",
		SalesmanID:   "sales-1",
		ClientName:   "Acme Trading",
		CompanyName:  "Acme Trading LLC",
		LinkToken:    token,
		PasswordHash: string(hash),
		Status:       applications.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), app))
	return app
}

func TestVerify(t *testing.T) {
	repo := applications.NewMemoryRepo()
	seedApplication(t, repo, "token-1", "horse2staple")
	svc := NewService(repo)
	ctx := context.Background()

	app, err := svc.Verify(ctx, "token-1", "horse2staple")
	require.NoError(t, err)
	assert.Equal(t, "app-1", app.ID)

	// Wrong password and unknown token are the same error, so callers
	// cannot probe which tokens exist.
	_, errWrong := svc.Verify(ctx, "token-1", "wrong")
	_, errUnknown := svc.Verify(ctx, "no-such-token", "horse2staple")
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())

	_, errEmpty := svc.Verify(ctx, "", "")
	assert.ErrorIs(t, errEmpty, ErrInvalidCredentials)
}
