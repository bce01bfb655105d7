package entsoe

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/icodeforyou/entsoe-go/entsoe/entsoetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLogsInOnce(t *testing.T) {
	portal := entsoetest.New("user", "secret")
	portal.SetExport("some/export", jan1, "csv")
	baseURL := portal.Start(t)

	s, err := NewSession(baseURL, time.Second, StaticCredentials("user", "secret"))
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	params := map[string][]string{"dateTime.dateTime": {"01.01.2023 00:00|UTC|DAY"}}
	for range 3 {
		res, err := s.Get(context.Background(), "some/export", params)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, "csv", res.Body)
	}
	assert.True(t, s.Authenticated())
	assert.Equal(t, 1, portal.Logins())

	s.Close()
	assert.False(t, s.Authenticated())
	_, err = s.Get(context.Background(), "some/export", params)
	require.NoError(t, err)
	assert.Equal(t, 2, portal.Logins())
}

func TestSessionLoginRejected(t *testing.T) {
	tests := []struct {
		answer string
		reason string
	}{
		{"non_exists_user_or_bad_password", "Wrong email or password"},
		{"not_human", "This account is not allowed to access web portal"},
		{"suspended_use", "User is suspended"},
		{"maintenance", "Unknown error: maintenance"},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			portal := entsoetest.New("user", "secret")
			portal.RejectLogins(tt.answer)
			s, err := NewSession(portal.Start(t), time.Second, StaticCredentials("user", "secret"))
			require.NoError(t, err)

			_, err = s.Get(context.Background(), "some/export", nil)
			var authErr *AuthenticationError
			require.True(t, errors.As(err, &authErr), "got %v", err)
			assert.Equal(t, tt.reason, authErr.Reason)
			assert.Equal(t, tt.answer, authErr.Raw)
			assert.False(t, s.Authenticated())
			assert.Zero(t, portal.Requests("some/export"))
		})
	}
}

func TestSessionWrongPassword(t *testing.T) {
	portal := entsoetest.New("user", "secret")
	s, err := NewSession(portal.Start(t), time.Second, StaticCredentials("user", "guess"))
	require.NoError(t, err)

	err = s.Ensure(context.Background())
	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "Wrong email or password", authErr.Reason)
}

func TestSessionMissingCredentials(t *testing.T) {
	t.Setenv("ENTSOE_TEST_USER", "")
	t.Setenv("ENTSOE_TEST_PASS", "secret")

	portal := entsoetest.New("user", "secret")
	s, err := NewSession(portal.Start(t), time.Second, CredentialsFromEnv("ENTSOE_TEST_USER", "ENTSOE_TEST_PASS"))
	require.NoError(t, err)

	err = s.Login(context.Background())
	var missing *MissingCredentialsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ENTSOE_TEST_USER"}, missing.Vars)
	assert.Zero(t, portal.Logins())
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("ENTSOE_TEST_USER", "user")
	t.Setenv("ENTSOE_TEST_PASS", "secret")

	creds, err := CredentialsFromEnv("ENTSOE_TEST_USER", "ENTSOE_TEST_PASS")()
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "user", Password: "secret"}, creds)
}
