package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/finsight-be/repository"
	"github.com/tieubaoca/finsight-be/types"
	"golang.org/x/oauth2"
)

type fakeOAuth struct {
	token    *oauth2.Token
	err      error
	codes    []string
	authURLs []string
}

func (f *fakeOAuth) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	f.authURLs = append(f.authURLs, state)
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (f *fakeOAuth) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	return f.token, f.err
}

type fakeVerifier struct {
	identity *Identity
	err      error
	tokens   []string
}

func (v *fakeVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	v.tokens = append(v.tokens, raw)
	return v.identity, v.err
}

func tokenWithIDToken(idToken string) *oauth2.Token {
	return (&oauth2.Token{AccessToken: "at"}).WithExtra(map[string]interface{}{"id_token": idToken})
}

func newAuthFixture(oauth *fakeOAuth, verifier *fakeVerifier) (*AuthService, repository.UserRepo) {
	repo := repository.NewMemoryUserRepo()
	return NewAuthService(oauth, verifier, NewUserService(repo)), repo
}

func TestAuthService_LoginCreatesUserOnce(t *testing.T) {
	oauth := &fakeOAuth{token: tokenWithIDToken("raw-id-token")}
	verifier := &fakeVerifier{identity: &Identity{Subject: "sub-1", Email: "a@example.com", Name: "Ada"}}
	svc, repo := newAuthFixture(oauth, verifier)
	ctx := context.Background()

	user, err := svc.Login(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.NotZero(t, user.CreatedAt)
	assert.Equal(t, []string{"raw-id-token"}, verifier.tokens)

	again, err := svc.Login(ctx, "code-2")
	require.NoError(t, err)
	assert.Equal(t, user.CreatedAt, again.CreatedAt)

	stored, err := repo.GetUser(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", stored.Email)
}

func TestAuthService_DefaultName(t *testing.T) {
	oauth := &fakeOAuth{token: tokenWithIDToken("t")}
	verifier := &fakeVerifier{identity: &Identity{Subject: "sub-2"}}
	svc, _ := newAuthFixture(oauth, verifier)

	user, err := svc.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "Unknown User", user.Name)
}

func TestAuthService_MissingCode(t *testing.T) {
	oauth := &fakeOAuth{}
	svc, repo := newAuthFixture(oauth, &fakeVerifier{})

	_, err := svc.Login(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Empty(t, oauth.codes)

	_, err = repo.GetUser(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAuthService_NoIDToken(t *testing.T) {
	oauth := &fakeOAuth{token: &oauth2.Token{AccessToken: "at"}}
	verifier := &fakeVerifier{}
	svc, _ := newAuthFixture(oauth, verifier)

	_, err := svc.Login(context.Background(), "code")
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Contains(t, err.Error(), "Failed to obtain ID token")
	assert.Empty(t, verifier.tokens)
}

func TestAuthService_ExchangeAndVerifyFailures(t *testing.T) {
	svc, _ := newAuthFixture(&fakeOAuth{err: errBoom}, &fakeVerifier{})
	_, err := svc.Login(context.Background(), "code")
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.ErrorIs(t, err, errBoom)

	svc, repo := newAuthFixture(&fakeOAuth{token: tokenWithIDToken("t")}, &fakeVerifier{err: errBoom})
	_, err = svc.Login(context.Background(), "code")
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = repo.GetUser(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNewGoogleOAuthConfig(t *testing.T) {
	cfg := NewGoogleOAuthConfig("client", "secret", "http://localhost:8080/login/callback")

	u, err := url.Parse(cfg.AuthCodeURL("state-1"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/login/callback", q.Get("redirect_uri"))
}
