package relqerr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relq/optimizer/relqerr"
)

func TestNewCarriesKindAndOp(t *testing.T) {
	err := relqerr.New("anchor.EnsureAnchor", relqerr.NoValidAnchor)
	require.True(t, relqerr.Is(err, relqerr.NoValidAnchor))
	require.False(t, relqerr.Is(err, relqerr.UnknownEntity))

	kind, ok := relqerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, relqerr.NoValidAnchor, kind)
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := relqerr.Wrap("rules.ExciseFilterOnlyJoins", relqerr.InvariantViolation, cause)

	require.True(t, relqerr.Is(wrapped, relqerr.InvariantViolation))
	require.ErrorIs(t, wrapped, cause)
}

func TestWrapOfNilIsNil(t *testing.T) {
	require.NoError(t, relqerr.Wrap("op", relqerr.InvariantViolation, nil))
}

func TestErrorMessageFormat(t *testing.T) {
	err := relqerr.New("metadata.TableOf", relqerr.UnknownEntity)
	require.Equal(t, fmt.Sprintf("metadata.TableOf: %s", relqerr.UnknownEntity), err.Error())
}

func TestKindOfReturnsFalseForPlainError(t *testing.T) {
	_, ok := relqerr.KindOf(errors.New("plain"))
	require.False(t, ok)
}
