package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSelectsMatches(t *testing.T) {
	e := newTestEditor("one two\ntwo three")

	ok, wrapped, err := e.Find("two")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, wrapped)
	assert.Equal(t, "two", e.SelectionText())
	assert.Equal(t, pos(0, 7), e.Cursor())

	ok, _, err = e.FindNext(true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos(1, 3), e.Cursor())

	ok, wrapped, err = e.FindNext(true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, wrapped)
	assert.Equal(t, pos(0, 7), e.Cursor())

	ok, _, err = e.FindNext(false)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pos(1, 3), e.Cursor())
}

func TestFindErrors(t *testing.T) {
	e := newTestEditor("abc")
	_, _, err := e.FindNext(true)
	assert.ErrorIs(t, err, ErrNoSearch)

	_, _, err = e.Find("(")
	assert.Error(t, err)

	ok, _, err := e.Find("zzz")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, e.HasSelection())
}

func TestSubstituteIsOneUndoStep(t *testing.T) {
	e := newTestEditor("a a\na")

	n, err := e.Substitute("/a/bb/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "bb bb\na", e.Buffer().String())

	n, err = e.Substitute("/a/c/g")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "bb bb\nc", e.Buffer().String())

	require.True(t, e.Undo())
	require.True(t, e.Undo())
	assert.Equal(t, "a a\na", e.Buffer().String())

	n, err = e.Substitute("/x/y/")
	require.NoError(t, err)
	assert.Zero(t, n)
}
