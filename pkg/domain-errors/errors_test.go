package domainerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasCodeWalksWrappedChain(t *testing.T) {
	inner := New(CodeNotFound, "project missing")
	outer := Wrap(inner, CodeInternal, "load failed")

	require.True(t, HasCode(outer, CodeInternal))
	require.True(t, HasCode(outer, CodeNotFound))
	require.False(t, HasCode(outer, CodeUnauthorized))
}

func TestWrapNilIsNil(t *testing.T) {
	require.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodePaused, CodeOf(New(CodePaused, "closed for intake")))
	require.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeDuplicateRegistration: http.StatusConflict,
		CodeUnauthorized:          http.StatusForbidden,
		CodeNotFound:              http.StatusNotFound,
		CodePaused:                http.StatusServiceUnavailable,
		CodeInvalidHash:           http.StatusUnprocessableEntity,
		CodeInvalidOwner:          http.StatusUnprocessableEntity,
		CodeInvalidStatus:         http.StatusUnprocessableEntity,
		CodeInternal:              http.StatusInternalServerError,
	}
	for code, want := range cases {
		require.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
