package books

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/circulation/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_Create_StartsAvailable(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.Create("Dune", "Frank Herbert")

	require.NoError(t, err)
	assert.NotZero(t, book.ID)
	assert.True(t, book.Available)
}

func TestRepository_SetAvailability(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.Create("Dune", "Frank Herbert")
	require.NoError(t, err)

	require.NoError(t, repo.SetAvailability(book.ID, false))

	stored, err := repo.FindByID(book.ID)
	require.NoError(t, err)
	assert.False(t, stored.Available)

	require.NoError(t, repo.SetAvailability(book.ID, true))

	stored, err = repo.FindByID(book.ID)
	require.NoError(t, err)
	assert.True(t, stored.Available)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.FindByID(42)

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Search(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create("Dune", "Frank Herbert")
	require.NoError(t, err)
	_, err = repo.Create("Hyperion", "Dan Simmons")
	require.NoError(t, err)

	byTitle, err := repo.Search("DUNE")
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	byAuthor, err := repo.Search("simmons")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)

	none, err := repo.Search("asimov")
	require.NoError(t, err)
	assert.Empty(t, none)
}
