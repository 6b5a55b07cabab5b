package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "unit-test-secret", Issuer: "productivity-tracker"}

func signToken(t *testing.T, cfg Config, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["iss"]; !ok {
		claims["iss"] = cfg.Issuer
	}
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	return token
}

func TestParseRoundTrip(t *testing.T) {
	token := signToken(t, testConfig, jwt.MapClaims{
		"sub":      "dana.reyes",
		"actor_id": 42,
		"unit_id":  3,
		"admin":    true,
		"scopes":   []string{ScopeRecordsWrite, ScopeReportsRead},
	})

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "dana.reyes", claims.Subject)
	// Numeric claims travel through JSON as float64.
	require.Equal(t, int64(42), claims.ActorID)
	require.Equal(t, int64(3), claims.UnitID)
	require.True(t, claims.Admin)
	require.True(t, claims.HasScope(ScopeRecordsWrite))
	require.True(t, claims.HasScope(ScopeReportsRead))
	require.False(t, claims.HasScope(ScopeSchemaAdmin))
}

func TestParseScopeStringForm(t *testing.T) {
	token := signToken(t, testConfig, jwt.MapClaims{
		"sub":      "ben.cho",
		"actor_id": 7,
		"scopes":   "records:read  reports:read",
	})

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.True(t, claims.HasScope(ScopeRecordsRead))
	require.True(t, claims.HasScope(ScopeReportsRead))
	require.Len(t, claims.Scopes, 2)
}

func TestParseRejectsBadTokens(t *testing.T) {
	_, err := Parse("", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)

	_, err = Parse("not-a-jwt", testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := signToken(t, testConfig, jwt.MapClaims{"sub": "x", "actor_id": 1, "iss": "someone-else"})
	_, err = Parse(wrongIssuer, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	otherSecret := Config{Secret: "different", Issuer: testConfig.Issuer}
	forged := signToken(t, otherSecret, jwt.MapClaims{"sub": "x", "actor_id": 1})
	_, err = Parse(forged, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := signToken(t, testConfig, jwt.MapClaims{"sub": "x", "actor_id": 1, "exp": time.Now().Add(-time.Minute).Unix()})
	_, err = Parse(expired, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRequiresSubjectAndActor(t *testing.T) {
	noSubject := signToken(t, testConfig, jwt.MapClaims{"actor_id": 5})
	_, err := Parse(noSubject, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	noActor := signToken(t, testConfig, jwt.MapClaims{"sub": "ghost"})
	_, err = Parse(noActor, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareAttachesClaims(t *testing.T) {
	mw := NewMiddleware(testConfig)

	var got *Claims
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token := signToken(t, testConfig, jwt.MapClaims{"sub": "dana.reyes", "actor_id": 42})
	req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	require.Equal(t, int64(42), got.ActorID)
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	mw := NewMiddleware(testConfig)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareSkipsHealthAndMetrics(t *testing.T) {
	mw := NewMiddleware(testConfig)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
