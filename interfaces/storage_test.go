package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageBackendLocation(t *testing.T) {
	loc, err := NewStorageBackendLocation("s3://key:secret@bucket/prefix?region=eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "s3", loc.Scheme)
	assert.Equal(t, "bucket", loc.Host)
	assert.Equal(t, "/prefix", loc.Path)
	assert.Equal(t, "eu-west-1", loc.GetParam("region"))
	assert.Equal(t, "key:secret", loc.Auth)

	loc, err = NewStorageBackendLocation("leveldb:///var/lib/governance")
	require.NoError(t, err)
	assert.Equal(t, "leveldb", loc.Scheme)
	assert.Equal(t, "/var/lib/governance", loc.Path)

	_, err = NewStorageBackendLocation("ipfs://localhost:5001")
	assert.ErrorIs(t, err, ErrInvalidLocationURI)
}

func TestContentID(t *testing.T) {
	id := ComputeID([]byte("snapshot"))
	parsed, err := NewContentIDFromHex("0x" + id.String())
	require.NoError(t, err)
	assert.True(t, id.Equal(parsed))

	_, err = NewContentIDFromHex("abcd")
	assert.Error(t, err)
}
