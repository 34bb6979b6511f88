package include

import (
	"errors"
	"testing"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_EnterRelease(t *testing.T) {
	c := NewChain()

	releaseA, err := c.Enter("/p/a.pmd")
	require.NoError(t, err)
	releaseB, err := c.Enter("/p/b.pmd")
	require.NoError(t, err)

	assert.Equal(t, 2, c.Depth())
	assert.Equal(t, []string{"/p/a.pmd", "/p/b.pmd"}, c.Snapshot())

	releaseB()
	releaseB() // releasing twice is harmless
	assert.Equal(t, []string{"/p/a.pmd"}, c.Snapshot())

	releaseA()
	assert.Equal(t, 0, c.Depth())
}

func TestChain_CycleCarriesFullChain(t *testing.T) {
	c := NewChain()

	_, err := c.Enter("/p/a.pmd")
	require.NoError(t, err)
	_, err = c.Enter("/p/b.pmd")
	require.NoError(t, err)

	release, err := c.Enter("/p/a.pmd")
	assert.Nil(t, release)

	var cycle *domain.CircularIncludeError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"/p/a.pmd", "/p/b.pmd", "/p/a.pmd"}, cycle.Chain)
	assert.Equal(t, 2, c.Depth(), "a rejected enter must not change the chain")
}

func TestChain_SiblingsDoNotFalsePositive(t *testing.T) {
	// A includes B and C; both include D.
	c := NewChain()
	releaseA, _ := c.Enter("A")
	defer releaseA()

	for _, sibling := range []string{"B", "C"} {
		releaseSibling, err := c.Enter(sibling)
		require.NoError(t, err)

		releaseD, err := c.Enter("D")
		require.NoError(t, err, "D entered under %s", sibling)
		releaseD()

		releaseSibling()
	}
	assert.Equal(t, []string{"A"}, c.Snapshot())
}

func TestChain_SelfInclude(t *testing.T) {
	c := NewChain()
	_, err := c.Enter("A")
	require.NoError(t, err)

	_, err = c.Enter("A")
	var cycle *domain.CircularIncludeError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"A", "A"}, cycle.Chain)
	assert.Equal(t, "circular include: A -> A", err.Error())
}
