package proxy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSocksClient(t *testing.T) {
	t.Parallel()

	direct, err := NewSocksClient("", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, direct.Transport)
	assert.Equal(t, time.Minute, direct.Timeout)

	proxied, err := NewSocksClient("127.0.0.1:1080", 2*time.Minute)
	require.NoError(t, err)
	tr, ok := proxied.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext)
	assert.Equal(t, 2*time.Minute, proxied.Timeout)
}
