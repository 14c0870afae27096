package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/internal/db"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/store"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(conn))
	return conn
}

func TestRepo_CRUD(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	brands := store.NewRepo[models.Brand](conn, "name")

	toyota := &models.Brand{Name: "Toyota", Slug: "toyota"}
	require.NoError(t, brands.Create(ctx, toyota))
	require.NotZero(t, toyota.ID)
	require.NoError(t, brands.Create(ctx, &models.Brand{Name: "Audi", Slug: "audi"}))

	items, total, err := brands.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Audi", items[0].Name, "ordered by name")

	page, _, err := brands.List(ctx, store.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Toyota", page[0].Name)

	got, err := brands.Get(ctx, toyota.ID)
	require.NoError(t, err)
	got.Name = "Toyota Motors"
	require.NoError(t, brands.Update(ctx, got))

	again, err := brands.Get(ctx, toyota.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toyota Motors", again.Name)
	assert.Equal(t, toyota.CreatedAt.Unix(), again.CreatedAt.Unix())

	require.NoError(t, brands.Delete(ctx, toyota.ID))
	_, err = brands.Get(ctx, toyota.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, brands.Delete(ctx, toyota.ID), store.ErrNotFound)
}

func TestRepo_Conflicts(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	brands := store.NewRepo[models.Brand](conn, "name")
	cars := store.NewRepo[models.CarModel](conn, "name", "Brand")

	b := &models.Brand{Name: "Toyota", Slug: "toyota"}
	require.NoError(t, brands.Create(ctx, b))

	err := brands.Create(ctx, &models.Brand{Name: "Dup", Slug: "toyota"})
	assert.ErrorIs(t, err, store.ErrConflict, "duplicate slug")

	car := &models.CarModel{BrandID: b.ID, Name: "Corolla", Slug: "corolla", BasePrice: 20000}
	require.NoError(t, cars.Create(ctx, car))

	assert.ErrorIs(t, brands.Delete(ctx, b.ID), store.ErrConflict, "brand still referenced")

	loaded, err := cars.Get(ctx, car.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Brand)
	assert.Equal(t, "Toyota", loaded.Brand.Name)
}

func TestListOptionsClamp(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	colors := store.NewRepo[models.Color](conn, "")
	for i := 0; i < 3; i++ {
		require.NoError(t, colors.Create(ctx, &models.Color{Name: "c", HexCode: "#000000"}))
	}
	items, total, err := colors.List(ctx, store.ListOptions{Limit: 10_000, Offset: -5})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 3)
}

func seedProfile(t *testing.T, conn *gorm.DB, id string, role models.Role, active bool) models.UserProfile {
	t.Helper()
	u := models.UserProfile{ID: id, Email: id + "@dealer.test", Role: role, IsActive: active}
	require.NoError(t, store.NewUserStore(conn).Create(context.Background(), nil, &u))
	return u
}

func TestUserStore(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	users := store.NewUserStore(conn)

	seedProfile(t, conn, "b-admin", models.RoleAdministrator, true)
	seedProfile(t, conn, "a-staff", models.RoleStaff, true)
	seedProfile(t, conn, "c-admin-off", models.RoleAdministrator, false)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a-staff", list[0].ID, "ordered by email")

	n, err := users.CountActiveAdministrators(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	name := "Bruno"
	role := models.RoleAdministrator
	updated, err := users.Update(ctx, "a-staff", store.UserChanges{FullName: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, updated.Role)
	require.NotNil(t, updated.FullName)
	assert.Equal(t, "Bruno", *updated.FullName)
	assert.True(t, updated.IsActive, "untouched field keeps its value")

	off := false
	empty := ""
	updated, err = users.Update(ctx, "a-staff", store.UserChanges{IsActive: &off, FullName: &empty})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.FullName)

	_, err = users.Update(ctx, "missing", store.UserChanges{IsActive: &off})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = users.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = users.Create(ctx, nil, &models.UserProfile{ID: "dup", Email: "a-staff@dealer.test", Role: models.RoleStaff})
	assert.True(t, errors.Is(err, store.ErrConflict), "duplicate email, got %v", err)
}

func TestCatalog_PublicQueries(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()
	catalog := store.NewCatalog(conn)

	toyota := models.Brand{Name: "Toyota", Slug: "toyota"}
	audi := models.Brand{Name: "Audi", Slug: "audi"}
	require.NoError(t, conn.Create(&toyota).Error)
	require.NoError(t, conn.Create(&audi).Error)

	corolla := models.CarModel{BrandID: toyota.ID, Name: "Corolla", Slug: "corolla", BasePrice: 20000, IsPublished: true}
	hidden := models.CarModel{BrandID: toyota.ID, Name: "Prototype", Slug: "proto", BasePrice: 1}
	a4 := models.CarModel{BrandID: audi.ID, Name: "A4", Slug: "a4", BasePrice: 40000, IsPublished: true}
	for _, m := range []*models.CarModel{&corolla, &hidden, &a4} {
		require.NoError(t, conn.Create(m).Error)
	}
	red := models.Color{Name: "Red", HexCode: "#ff0000"}
	require.NoError(t, conn.Create(&red).Error)
	xle := models.Version{CarModelID: corolla.ID, Name: "XLE", Price: 25000}
	le := models.Version{CarModelID: corolla.ID, Name: "LE", Price: 21000}
	require.NoError(t, conn.Create(&xle).Error)
	require.NoError(t, conn.Create(&le).Error)

	all, err := catalog.PublishedModels(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyToyota, err := catalog.PublishedModels(ctx, "toyota")
	require.NoError(t, err)
	require.Len(t, onlyToyota, 1)
	assert.Equal(t, "Corolla", onlyToyota[0].Name)
	require.NotNil(t, onlyToyota[0].Brand)

	_, err = catalog.PublishedModel(ctx, hidden.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	v, err := catalog.ReplaceVersionColors(ctx, xle.ID, []uint{red.ID, red.ID})
	require.NoError(t, err)
	require.Len(t, v.Colors, 1)

	_, err = catalog.ReplaceVersionColors(ctx, xle.ID, []uint{999})
	assert.ErrorIs(t, err, store.ErrNotFound)

	detail, err := catalog.PublishedModel(ctx, corolla.ID)
	require.NoError(t, err)
	require.Len(t, detail.Versions, 2)
	assert.Equal(t, "LE", detail.Versions[0].Name, "versions ordered by price")
	assert.Len(t, detail.Versions[1].Colors, 1)

	require.NoError(t, conn.Create(&models.Banner{Title: "Second", ImageURL: "https://x/2.jpg", Position: 2, IsActive: true}).Error)
	require.NoError(t, conn.Create(&models.Banner{Title: "First", ImageURL: "https://x/1.jpg", Position: 1, IsActive: true}).Error)
	require.NoError(t, conn.Create(&models.Banner{Title: "Off", ImageURL: "https://x/0.jpg", Position: 0, IsActive: false}).Error)
	banners, err := catalog.ActiveBanners(ctx)
	require.NoError(t, err)
	require.Len(t, banners, 2)
	assert.Equal(t, "First", banners[0].Title)

	counts, err := catalog.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Brands: 2, Models: 3, Versions: 2, Banners: 3, Users: 0}, counts)
}
