package jwttoken

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "market/pkg/domain"
)

const testKey = "test-signing-key"

var (
	baseTime  = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	accountID = id.NewAccountID()
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newService(now time.Time) *Service {
	return New(testKey, "market", time.Hour, WithClock(fixedClock(now)))
}

func Test_IssueAndVerify(t *testing.T) {
	svc := newService(baseTime)

	token, expiresAt, err := svc.Issue(accountID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, baseTime.Add(time.Hour), expiresAt)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, accountID, got)
}

func Test_Verify_Expired(t *testing.T) {
	token, _, err := newService(baseTime).Issue(accountID)
	require.NoError(t, err)

	_, err = newService(baseTime.Add(2 * time.Hour)).Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func Test_Verify_Garbage(t *testing.T) {
	for _, tok := range []string{"", "invalid-token-string", "a.b.c", "a.b"} {
		_, err := newService(baseTime).Verify(tok)
		require.ErrorIs(t, err, ErrMalformed, "token %q", tok)
	}
}

func Test_Verify_TamperedSignature(t *testing.T) {
	svc := newService(baseTime)
	token, _, err := svc.Issue(accountID)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	parts[2] = string(sig)

	_, err = svc.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrMalformed)
}

func Test_Verify_TamperedPayload(t *testing.T) {
	svc := newService(baseTime)
	token, _, err := svc.Issue(accountID)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	payload["sub"] = id.NewAccountID().String()
	raw, err = json.Marshal(payload)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(raw)

	_, err = svc.Verify(strings.Join(parts, "."))
	require.ErrorIs(t, err, ErrMalformed)
}

func Test_Verify_SignatureCheckedBeforeExpiry(t *testing.T) {
	other := New("another-key", "market", time.Hour, WithClock(fixedClock(baseTime)))
	token, _, err := other.Issue(accountID)
	require.NoError(t, err)

	// expired AND wrongly signed: the signature failure wins
	_, err = newService(baseTime.Add(2 * time.Hour)).Verify(token)
	require.ErrorIs(t, err, ErrMalformed)
}

func Test_Verify_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   accountID.String(),
		Issuer:    "market",
		ExpiresAt: jwt.NewNumericDate(baseTime.Add(time.Hour)),
	}}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testKey))
	require.NoError(t, err)
	_, err = newService(baseTime).Verify(hs512)
	require.ErrorIs(t, err, ErrMalformed)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newService(baseTime).Verify(none)
	require.ErrorIs(t, err, ErrMalformed)
}

func Test_Verify_RequiresUsableSubjectAndExpiry(t *testing.T) {
	sign := func(c Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testKey))
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(baseTime.Add(time.Hour))

	noExp := sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String(), Issuer: "market"}})
	_, err := newService(baseTime).Verify(noExp)
	require.ErrorIs(t, err, ErrMalformed)

	badSub := sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin", Issuer: "market", ExpiresAt: exp}})
	_, err = newService(baseTime).Verify(badSub)
	require.ErrorIs(t, err, ErrMalformed)

	wrongIssuer := sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String(), Issuer: "elsewhere", ExpiresAt: exp}})
	_, err = newService(baseTime).Verify(wrongIssuer)
	require.ErrorIs(t, err, ErrMalformed)
}

func Test_New_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(testKey, "", 0).TTL())
}
