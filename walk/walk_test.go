package walk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicWalk(t *testing.T) {
	src := NewMemorySource("/").AddFile("/a/x.txt").AddFile("/a/b/y.txt")

	var got []string
	for p, err := range Walk(context.Background(), "/", Options{Source: src, MaxDepth: 2}).All(context.Background()) {
		require.NoError(t, err)
		got = append(got, p)
	}
	assert.ElementsMatch(t, []string{"/a", "/a/b", "/a/x.txt"}, got)
}

func TestPublicErrors(t *testing.T) {
	src := NewMemorySource("/").AddFile("/f")
	_, err := WalkEntries(context.Background(), "/f", Options{Source: src}).Next(context.Background())
	assert.ErrorIs(t, err, ErrInvalidRoot)
	assert.Equal(t, KindInvalidRoot, KindOf(err))
}
