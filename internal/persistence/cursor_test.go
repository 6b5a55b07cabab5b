package persistence

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	original := &domain.Cursor{
		LoggedAt: time.Date(2026, 8, 3, 9, 30, 0, 123456789, time.UTC),
		ID:       "4b4d3c6e-1111-2222-3333-444455556666",
	}

	token := EncodeCursor(original)
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	require.True(t, decoded.LoggedAt.Equal(original.LoggedAt))
	require.Equal(t, original.ID, decoded.ID)
}

func TestCursorEmptyToken(t *testing.T) {
	require.Empty(t, EncodeCursor(nil))

	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	require.Nil(t, decoded)

	decoded, err = DecodeCursor("   ")
	require.NoError(t, err)
	require.Nil(t, decoded)
}

func TestCursorInvalidTokens(t *testing.T) {
	_, err := DecodeCursor("%%%not-base64%%%")
	require.Error(t, err)

	// Valid base64 but missing the separator.
	_, err = DecodeCursor(base64.StdEncoding.EncodeToString([]byte("no-separator")))
	require.Error(t, err)

	// Separator present but the timestamp is garbage.
	_, err = DecodeCursor(base64.StdEncoding.EncodeToString([]byte("yesterday|abc")))
	require.Error(t, err)
}
