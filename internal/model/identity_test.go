package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole("finance")
	require.NoError(t, err)
	require.Equal(t, RoleFinance, role)

	_, err = ParseRole("Finance")
	require.True(t, errors.Is(err, ErrUnknownRole))

	_, err = ParseRole("")
	require.True(t, errors.Is(err, ErrUnknownRole))
}

func TestLogTypeForStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, LogTypeSuccess, LogTypeForStatus(200))
	require.Equal(t, LogTypeInfo, LogTypeForStatus(304))
	require.Equal(t, LogTypeWarning, LogTypeForStatus(403))
	require.Equal(t, LogTypeError, LogTypeForStatus(500))
}
