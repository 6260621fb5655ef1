package wsapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Query(t *testing.T) {
	srv, _ := newTestServer(t)
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	ctx := context.Background()
	client, err := Dial(ctx, endpoint, &ClientConfig{
		HandshakeTimeout: time.Second,
		PingInterval:     10 * time.Millisecond,
		WriteTimeout:     time.Second,
		ReadTimeout:      5 * time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	got, err := client.Query(ctx, []string{"V 50 150", "C 50 150", "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"25.000000", "2", "0"}, got)

	// Let a few pings go out between batches.
	time.Sleep(50 * time.Millisecond)

	got, err = client.Query(ctx, []string{"S 100 120"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, got)
}

func TestClient_EmptyBatch(t *testing.T) {
	srv, _ := newTestServer(t)
	client, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer client.Close()

	got, err := client.Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_QueryAfterClose(t *testing.T) {
	srv, _ := newTestServer(t)
	client, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Query(context.Background(), []string{"C 1 2"})
	assert.Error(t, err)
}

func TestDial_Unreachable(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", &ClientConfig{HandshakeTimeout: 100 * time.Millisecond})
	assert.Error(t, err)
}
