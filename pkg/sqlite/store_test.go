package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

func TestOpen(t *testing.T) {
	s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Detach() })

	var svc types.DataService = s
	res, err := svc.LoadItems(context.Background(), types.Query{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Total)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(types.Config{DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}
