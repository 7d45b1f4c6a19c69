package secret

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	v, err := s.Get("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	buf := []byte("tok")
	require.NoError(t, s.Set(GraphQLTokenKey, buf))
	buf[0] = 'x'
	v, err = s.Get(GraphQLTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", string(v), "stored value is copied")

	require.NoError(t, s.Delete(GraphQLTokenKey))
	v, _ = s.Get(GraphQLTokenKey)
	assert.Empty(t, v)
}

type failingStore struct{}

func (failingStore) Set(string, []byte) error { return nil }
func (failingStore) Get(string) ([]byte, error) { return nil, errors.New("locked") }
func (failingStore) Delete(string) error { return nil }

func TestLookup(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(GraphQLTokenKey, []byte("from-store")))

	v, err := Lookup(s, GraphQLTokenKey, "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", v)

	v, err = Lookup(s, GraphQLTokenKey, "")
	require.NoError(t, err)
	assert.Equal(t, "from-store", v)

	v, err = Lookup(nil, GraphQLTokenKey, "")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = Lookup(failingStore{}, GraphQLTokenKey, "")
	assert.ErrorContains(t, err, "locked")
}
