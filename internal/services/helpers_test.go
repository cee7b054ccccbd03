package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func splitCallback(t *testing.T, authURL string) (state, code string) {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query().Get("state"), u.Query().Get("code")
}
