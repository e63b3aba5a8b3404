package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestListForUserReturnsDTOs(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo)
	require.NoError(t, err)

	seedOrder(t, repo, 4, time.Now().UTC(), nil)

	resp, err := svc.ListForUser(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Len(t, resp.Orders[0].LineItems, 2)
	assert.Equal(t, "Pendiente", resp.Orders[0].Status.String())

	empty, err := svc.ListForUser(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, empty.Orders)
	assert.Empty(t, empty.Orders)
}

func TestListForUserRequiresUser(t *testing.T) {
	svc, err := NewService(NewRepository(nil))
	require.NoError(t, err)
	_, err = svc.ListForUser(context.Background(), 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
