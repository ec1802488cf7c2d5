package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProductRepository_FindWithFilter(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	createProduct(t, testDB, "Wireless Headphones", "499.99")
	createProduct(t, testDB, "Wired Headphones", "59.00")
	createProduct(t, testDB, "Canvas Tote", "10.00")

	all, total, err := repo.FindWithFilter(ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, int64(3), total)

	matched, total, err := repo.FindWithFilter(ProductFilter{Search: "HEADPHONES", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, matched, 1)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Wireless Headphones", matched[0].Name)

	page2, _, err := repo.FindWithFilter(ProductFilter{Search: "headphones", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Wired Headphones", page2[0].Name)
}

func TestProductRepository_FindByIDs(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	a := createProduct(t, testDB, "A", "1.00")
	b := createProduct(t, testDB, "B", "2.00")

	found, err := repo.FindByIDs([]uint{a.ID, b.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "2.00", found[b.ID].Price.StringFixed(2))

	empty, err := repo.FindByIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProductRepository_FindByIDAndName(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	p := createProduct(t, testDB, "Mug", "14.50")

	byID, err := repo.FindByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mug", byID.Name)

	byName, err := repo.FindByName("Mug")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byName.ID)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
