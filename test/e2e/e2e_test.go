//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolyuoo/memstress/internal/client"
)

// serverURL points at a running memstress server.
// Start one with: memstress serve --listen :8000
var serverURL = "http://localhost:8000"

// TestMain ensures a server is available before running tests
func TestMain(m *testing.M) {
	if url := os.Getenv("MEMSTRESS_E2E_SERVER"); url != "" {
		serverURL = url
	}

	resp, err := http.Get(serverURL + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		fmt.Printf("memstress server not available at %s\n", serverURL)
		fmt.Println("Start one with: go run ./cmd/memstress serve")
		os.Exit(1)
	}
	defer resp.Body.Close()

	code := m.Run()
	os.Exit(code)
}

func newE2EClient(t *testing.T) (*client.Client, context.Context) {
	t.Helper()
	c, err := client.NewClient(serverURL)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	// Each test starts from an empty pool.
	_, err = c.Clear(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = c.Clear(context.Background())
	})
	return c, ctx
}

func TestE2E_StatusEmpty(t *testing.T) {
	c, ctx := newE2EClient(t)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.AllocatedMB)
	assert.Equal(t, 0, status.Groups)
}

func TestE2E_AddFreeClear(t *testing.T) {
	c, ctx := newE2EClient(t)

	res, err := c.Add(ctx, 300, 8)
	require.NoError(t, err)
	assert.Equal(t, 300, res.AddedMB)
	assert.Equal(t, 300, res.TotalMB)

	res, err = c.Add(ctx, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 400, res.TotalMB)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400, status.AllocatedMB)
	assert.Equal(t, 2, status.Groups)

	freeRes, err := c.Free(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, 150, freeRes.TotalMB)

	clearRes, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, clearRes.TotalMB)
}

func TestE2E_Converge(t *testing.T) {
	c, ctx := newE2EClient(t)

	res, err := c.Set(ctx, 600)
	require.NoError(t, err)
	assert.Equal(t, 600, res.TotalMB)

	res, err = c.Set(ctx, 600)
	require.NoError(t, err)
	assert.Equal(t, "target already met", res.Note)

	res, err = c.Set(ctx, 200)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.TotalMB, 200)
}

func TestE2E_ResidentMemoryTracksPool(t *testing.T) {
	c, ctx := newE2EClient(t)

	before, err := c.Status(ctx)
	require.NoError(t, err)
	if before.RSSMB == 0 {
		t.Skip("server does not report RSS on this platform")
	}

	_, err = c.Add(ctx, 256, 8)
	require.NoError(t, err)

	after, err := c.Status(ctx)
	require.NoError(t, err)

	// With page touching on (the default), holding 256 MB more should move
	// RSS by roughly that much. Allow slack for runtime noise.
	assert.Greater(t, after.RSSMB, before.RSSMB+128)
}

func TestE2E_InvalidInputRejected(t *testing.T) {
	c, ctx := newE2EClient(t)

	_, err := c.Add(ctx, -5, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be > 0")

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.AllocatedMB)
}
