package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignerRoundTrip(t *testing.T) {
	signer, err := NewSigner("secret")
	require.NoError(t, err)

	value, err := signer.Sign("tok-123", time.Now().Add(time.Hour))
	require.NoError(t, err)

	token, err := signer.Verify(value)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestSignerRejectsForeignSecret(t *testing.T) {
	a, _ := NewSigner("secret-a")
	b, _ := NewSigner("secret-b")

	value, err := a.Sign("tok", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = b.Verify(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestSignerRejectsExpiredAndGarbage(t *testing.T) {
	signer, _ := NewSigner("secret")
	fakeNow := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	signer.nowFunc = func() time.Time { return fakeNow }

	value, err := signer.Sign("tok", fakeNow.Add(time.Minute))
	require.NoError(t, err)

	signer.nowFunc = func() time.Time { return fakeNow.Add(time.Hour) }
	_, err = signer.Verify(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)

	_, err = signer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)
}

func TestSetAndClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "v", time.Now().Add(time.Hour), CookieOptions{Secure: true})
	ClearCookie(rec, CookieOptions{})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, -1, cookies[1].MaxAge)
}

func TestNewTokenIsUnique(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
