package catalogue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/techtribe/studio-api/internal/apperr"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Item{}))
	return NewService(NewRepo(db), time.Second, nil)
}

func TestSeed_OnlyWhenEmpty(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	n, inserted, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.EqualValues(t, 6, n)

	n, inserted, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.EqualValues(t, 6, n)

	items, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, "Startup Paketi", items[0].Title, "newest first")
	assert.Equal(t, "AZN", items[0].Currency)
	assert.NotEmpty(t, items[0].Features)
}

func TestList_Filters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Seed(ctx)
	require.NoError(t, err)

	featured, err := svc.List(ctx, Filter{Featured: true})
	require.NoError(t, err)
	assert.Len(t, featured, 4)

	landing, err := svc.List(ctx, Filter{Category: "Landing"})
	require.NoError(t, err)
	require.Len(t, landing, 1)
	assert.EqualValues(t, 299, landing[0].Price)
}

func TestCreateUpdateDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Title: " ", Description: "x"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	it, err := svc.Create(ctx, CreateInput{
		Title:        "Blog Sayt",
		Description:  "Şəxsi blog",
		Technologies: []string{"Hugo"},
		Price:        199,
	})
	require.NoError(t, err)
	assert.Equal(t, "AZN", it.Currency)
	assert.True(t, it.IsActive)

	_, err = svc.Update(ctx, it.ID, UpdateInput{})
	assert.True(t, errors.Is(err, apperr.ErrValidation), "empty update")

	price := 249.0
	inactive := false
	feats := []string{"Şərhlər", "RSS"}
	updated, err := svc.Update(ctx, it.ID, UpdateInput{Price: &price, IsActive: &inactive, Features: &feats})
	require.NoError(t, err)
	assert.EqualValues(t, 249, updated.Price)

	got, err := svc.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, feats, got.Features)
	assert.Equal(t, []string{"Hugo"}, got.Technologies)

	listed, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, listed, "inactive items are hidden")

	_, err = svc.Update(ctx, "missing", UpdateInput{Price: &price})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, it.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, it.ID), apperr.ErrNotFound))
}

func TestSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Seed(ctx)
	require.NoError(t, err)

	res, err := svc.Search(ctx, "portfolio")
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "Portfolio Saytı", res[0].Title)

	res, err = svc.Search(ctx, "docker")
	require.NoError(t, err)
	require.Len(t, res, 2)

	res, err = svc.Search(ctx, "ucuz")
	require.NoError(t, err)
	require.Len(t, res, 6)
	assert.EqualValues(t, 299, res[0].Price)
	assert.EqualValues(t, 999, res[5].Price)

	res, err = svc.Search(ctx, "premium")
	require.NoError(t, err)
	assert.EqualValues(t, 999, res[0].Price)

	res, err = svc.Search(ctx, "blokçeyn")
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = svc.Search(ctx, "   ")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
