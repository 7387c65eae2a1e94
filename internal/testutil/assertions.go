// Package testutil provides test doubles and assertions shared by the
// package tests.
package testutil

import (
	"errors"
	"testing"

	"github.com/mavrogato/othones/domain/entities"
	domainerrors "github.com/mavrogato/othones/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertReleasedOnce asserts that the destructor request with opcode was
// sent exactly once on id and that id no longer has a route.
func AssertReleasedOnce(t *testing.T, f *FakeTransport, id entities.ObjectID, opcode uint16, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, 1, f.Count(id, opcode), msgAndArgs...)
	assert.False(t, f.Registered(id), msgAndArgs...)
}

// AssertNotReleased asserts that no destructor request was sent on id.
func AssertNotReleased(t *testing.T, f *FakeTransport, id entities.ObjectID, opcode uint16, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Zero(t, f.Count(id, opcode), msgAndArgs...)
}

// RequireUseAfterRelease requires err to be a *UseAfterReleaseError.
func RequireUseAfterRelease(t *testing.T, err error, msgAndArgs ...interface{}) *domainerrors.UseAfterReleaseError {
	t.Helper()
	var uar *domainerrors.UseAfterReleaseError
	require.True(t, errors.As(err, &uar), msgAndArgs...)
	return uar
}

// RequireRegistrationError requires err to be a *RegistrationError.
func RequireRegistrationError(t *testing.T, err error, msgAndArgs ...interface{}) *domainerrors.RegistrationError {
	t.Helper()
	var reg *domainerrors.RegistrationError
	require.True(t, errors.As(err, &reg), msgAndArgs...)
	return reg
}

// RequireSent requires the last request on id to carry opcode and returns
// its arguments.
func RequireSent(t *testing.T, f *FakeTransport, id entities.ObjectID, opcode uint16) []entities.Arg {
	t.Helper()
	msgs := f.SentTo(id)
	require.NotEmpty(t, msgs, "no request sent on %d", id)
	last := msgs[len(msgs)-1]
	require.Equal(t, opcode, last.Opcode, "last request on %d: %s", id, last)
	return last.Args
}
