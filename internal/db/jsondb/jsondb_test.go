package jsondb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/shortling/internal/db/storage"
	"github.com/patric-chuzhbe/shortling/internal/link"
	"github.com/patric-chuzhbe/shortling/internal/user"
)

func newTestDB(t *testing.T) (*JSONDB, string) {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "db_test.json")
	db, err := New(fileName)
	require.NoError(t, err)

	return db, fileName
}

func TestCreateUserAndLookups(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	userID, err := db.CreateUser(ctx, &user.User{
		Firstname: "Ada",
		Email:     "a@x.com",
		Password:  "digest",
		Salt:      "salt",
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	byEmail, found, err := db.FindUserByEmail(ctx, "a@x.com", nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, userID, byEmail.ID)

	byID, found, err := db.FindUserByID(ctx, userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a@x.com", byID.Email)

	_, found, err = db.FindUserByEmail(ctx, "nobody@x.com", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, &user.User{Email: "a@x.com"}, nil)
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, &user.User{Email: "a@x.com"}, nil)
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestLinkLifecycle(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	ownerID, err := db.CreateUser(ctx, &user.User{Email: "a@x.com"}, nil)
	require.NoError(t, err)

	linkID, err := db.InsertLink(ctx, &link.ShortLink{
		Code:      "abc123",
		TargetURL: "https://example.com",
		UserID:    ownerID,
	}, nil)
	require.NoError(t, err)

	byCode, found, err := db.FindLinkByCode(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://example.com", byCode.TargetURL)

	exists, err := db.IsCodeExists(ctx, "abc123", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = db.InsertLink(ctx, &link.ShortLink{Code: "abc123", UserID: ownerID}, nil)
	assert.ErrorIs(t, err, storage.ErrConflict)

	affected, err := db.UpdateLink(ctx, linkID, ownerID, "xyz789", "https://example.org", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, found, err = db.FindLinkByCode(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, found)

	byCode, found, err = db.FindLinkByCode(ctx, "xyz789")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://example.org", byCode.TargetURL)

	affected, err = db.DeleteLink(ctx, linkID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, found, err = db.FindLinkByID(ctx, linkID, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMutationsAreOwnerScoped(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	ownerA, err := db.CreateUser(ctx, &user.User{Email: "a@x.com"}, nil)
	require.NoError(t, err)
	ownerB, err := db.CreateUser(ctx, &user.User{Email: "b@x.com"}, nil)
	require.NoError(t, err)

	linkID, err := db.InsertLink(ctx, &link.ShortLink{
		Code:      "owned1",
		TargetURL: "https://example.com",
		UserID:    ownerA,
	}, nil)
	require.NoError(t, err)

	affected, err := db.UpdateLink(ctx, linkID, ownerB, "stolen", "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = db.DeleteLink(ctx, linkID, ownerB)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	lnk, found, err := db.FindLinkByID(ctx, linkID, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "owned1", lnk.Code)
	assert.Equal(t, "https://example.com", lnk.TargetURL)
}

func TestFindLinksByUserKeepsInsertionOrder(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	ownerID, err := db.CreateUser(ctx, &user.User{Email: "a@x.com"}, nil)
	require.NoError(t, err)

	codes := []string{"first1", "second", "third3"}
	for _, code := range codes {
		_, err := db.InsertLink(ctx, &link.ShortLink{
			Code:      code,
			TargetURL: "https://example.com/" + code,
			UserID:    ownerID,
		}, nil)
		require.NoError(t, err)
	}

	links, err := db.FindLinksByUser(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, links, len(codes))
	for i, code := range codes {
		assert.Equal(t, code, links[i].Code)
	}
}

func TestCloseAndReopenKeepsData(t *testing.T) {
	db, fileName := newTestDB(t)
	ctx := context.Background()

	ownerID, err := db.CreateUser(ctx, &user.User{Email: "a@x.com"}, nil)
	require.NoError(t, err)
	_, err = db.InsertLink(ctx, &link.ShortLink{
		Code:      "kept42",
		TargetURL: "https://example.com",
		UserID:    ownerID,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, db.Close())

	reopened, err := New(fileName)
	require.NoError(t, err)

	lnk, found, err := reopened.FindLinkByCode(ctx, "kept42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ownerID, lnk.UserID)
}
