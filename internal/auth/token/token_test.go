package token

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/membership/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{
	Secret:   "test-secret",
	Issuer:   "membership",
	Audience: "membership-api",
	TTL:      time.Hour,
}

func newTestIssuer(t *testing.T) (*Issuer, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	issuer, err := NewIssuer(testCfg, clk)
	require.NoError(t, err)
	return issuer, clk
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer(Config{Secret: "   "}, nil)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestNewIssuerDefaultsTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	issuer, err := NewIssuer(Config{Secret: "s", Issuer: "i", Audience: "a"}, clk)
	require.NoError(t, err)

	_, exp, err := issuer.Issue(snowflake.ID(1), "n", "e@x.com", "Admin")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(DefaultTTL), exp)
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	issuer, clk := newTestIssuer(t)

	signed, exp, err := issuer.Issue(snowflake.ID(42), "Ana", "ana@x.com", "BusinessOwner")
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), exp)
	assert.True(t, issuer.Validate(signed))

	claims, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "ana@x.com", claims.Email)
	assert.Equal(t, "BusinessOwner", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, exp, claims.ExpiresAt.Time)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), id)
}

func TestTokenIDsAreUnique(t *testing.T) {
	issuer, _ := newTestIssuer(t)

	first, _, err := issuer.Issue(snowflake.ID(1), "a", "a@x.com", "Admin")
	require.NoError(t, err)
	second, _, err := issuer.Issue(snowflake.ID(1), "a", "a@x.com", "Admin")
	require.NoError(t, err)

	c1, err := issuer.Parse(first)
	require.NoError(t, err)
	c2, err := issuer.Parse(second)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestValidateRejects(t *testing.T) {
	issuer, clk := newTestIssuer(t)
	signed, _, err := issuer.Issue(snowflake.ID(7), "Bob", "bob@x.com", "Admin")
	require.NoError(t, err)

	otherKey, err := NewIssuer(Config{Secret: "other", Issuer: testCfg.Issuer, Audience: testCfg.Audience, TTL: time.Hour}, clk)
	require.NoError(t, err)
	otherIssuer, err := NewIssuer(Config{Secret: testCfg.Secret, Issuer: "someone-else", Audience: testCfg.Audience}, clk)
	require.NoError(t, err)
	otherAudience, err := NewIssuer(Config{Secret: testCfg.Secret, Issuer: testCfg.Issuer, Audience: "web"}, clk)
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "7",
		"iss": testCfg.Issuer,
		"aud": testCfg.Audience,
		"exp": clk.Now().Add(time.Hour).Unix(),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *Issuer
		token  string
	}{
		{name: "malformed", issuer: issuer, token: "not.a.jwt"},
		{name: "empty", issuer: issuer, token: ""},
		{name: "tampered payload", issuer: issuer, token: tampered},
		{name: "wrong secret", issuer: otherKey, token: signed},
		{name: "wrong issuer", issuer: otherIssuer, token: signed},
		{name: "wrong audience", issuer: otherAudience, token: signed},
		{name: "alg none", issuer: issuer, token: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.issuer.Validate(tt.token))
			_, err := tt.issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidateExpiresWithoutLeeway(t *testing.T) {
	issuer, clk := newTestIssuer(t)
	signed, _, err := issuer.Issue(snowflake.ID(7), "Bob", "bob@x.com", "Admin")
	require.NoError(t, err)

	clk.Advance(time.Hour - time.Second)
	assert.True(t, issuer.Validate(signed))

	clk.Advance(time.Second)
	assert.False(t, issuer.Validate(signed))
}

func TestExtractUserID(t *testing.T) {
	issuer, _ := newTestIssuer(t)
	signed, _, err := issuer.Issue(snowflake.ID(99), "C", "c@x.com", "Admin")
	require.NoError(t, err)

	id, ok := ExtractUserID(signed)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(99), id)

	_, ok = ExtractUserID("garbage")
	assert.False(t, ok)

	// Signature is not checked.
	other, err := NewIssuer(Config{Secret: "other"}, nil)
	require.NoError(t, err)
	foreign, _, err := other.Issue(snowflake.ID(5), "D", "d@x.com", "Admin")
	require.NoError(t, err)
	id, ok = ExtractUserID(foreign)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(5), id)
}
