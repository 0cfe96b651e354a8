package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/config"
	"github.com/qrmuseum/museum-api/internal/database/dbtest"
	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
	"github.com/qrmuseum/museum-api/internal/utils"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	store, err := storage.NewLocal(t.TempDir(), "/v1/media")
	require.NoError(t, err)
	s := &seeder{
		cfg:      config.Config{BcryptCost: 4},
		users:    repository.NewUserRepo(db),
		visitors: repository.NewVisitorRepo(db),
		exhibits: repository.NewExhibitRepo(db),
		contents: repository.NewContentRepo(db),
		museum:   repository.NewMuseumRepo(db),
		store:    store,
		log:      zap.NewNop(),
	}
	ctx := context.Background()

	require.NoError(t, s.run(ctx, "adminpass", "demopass"))
	require.NoError(t, s.run(ctx, "changed", "changed"))

	admin, err := s.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, utils.VerifyPassword(admin.PasswordHash, "adminpass"))

	demo, err := s.users.GetByUsername(ctx, "demo")
	require.NoError(t, err)
	v, err := s.visitors.GetByUser(ctx, demo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Explorador", v.Nickname)

	n, err := s.exhibits.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(samples), n)

	list, err := s.exhibits.ListPaged(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "El Grito", list[0].Title)
	require.NotNil(t, list[0].QRImageKey)
	png, _, err := store.Get(ctx, *list[0].QRImageKey)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	ct, err := s.contents.GetByExhibit(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, ct.IsActive)

	m, err := s.museum.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Museo de Arte Moderno", m.Name)
}
