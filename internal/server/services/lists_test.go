package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCreate_WithItems(t *testing.T) {
	e := newEnv()
	alice := register(t, e, "alice")

	list, err := e.lists.Create(context.Background(), alice.ID, "Groceries", []string{"milk", "eggs"})
	require.NoError(t, err)

	assert.Equal(t, "Groceries", list.Name)
	assert.Equal(t, alice.ID, list.UserID)
	assert.Equal(t, list.CreatedAt, list.LastModifiedAt)
	require.Len(t, list.Items, 2)
	for _, it := range list.Items {
		assert.Equal(t, list.ID, it.ListID)
		assert.False(t, it.IsCompleted)
		assert.Equal(t, list.CreatedAt, it.CreatedAt)
	}

	got, err := e.lists.Get(context.Background(), alice.ID, list.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, got.CreatedAt, got.LastModifiedAt)
}

func TestListCreate_Validation(t *testing.T) {
	e := newEnv()
	alice := register(t, e, "alice")

	_, err := e.lists.Create(context.Background(), alice.ID, "  ", nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = e.lists.Create(context.Background(), alice.ID, "Groceries", []string{"milk", ""})
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Empty(t, e.db.lists)
}

func TestListCreate_OwnerFromPrincipal(t *testing.T) {
	e := newEnv()

	_, err := e.lists.Create(context.Background(), 999, "Orphan", nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

// B must not see, change or delete A's list, and the answer must not reveal
// that the list exists.
func TestLists_OwnershipIsolation(t *testing.T) {
	e := newEnv()
	alice := register(t, e, "alice")
	bob := register(t, e, "bob")
	ctx := context.Background()

	list, err := e.lists.Create(ctx, alice.ID, "Secret", []string{"a"})
	require.NoError(t, err)

	_, err = e.lists.Get(ctx, bob.ID, list.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	name := "Hijacked"
	_, err = e.lists.Update(ctx, bob.ID, list.ID, models.ListUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, e.lists.Delete(ctx, bob.ID, list.ID), common.ErrorNotFound)

	_, errForeign := e.lists.Get(ctx, bob.ID, list.ID)
	_, errMissing := e.lists.Get(ctx, bob.ID, list.ID+1000)
	assert.Equal(t, errMissing, errForeign, "foreign and missing lists look the same")

	page, err := e.lists.Search(ctx, bob.ID, models.Query{})
	require.NoError(t, err)
	assert.Empty(t, page.Lists)

	got, err := e.lists.Get(ctx, alice.ID, list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret", got.Name)
}

func TestListUpdate_TouchesList(t *testing.T) {
	e := newEnv()
	alice := register(t, e, "alice")
	ctx := context.Background()

	list, err := e.lists.Create(ctx, alice.ID, "Groceries", nil)
	require.NoError(t, err)

	e.clock.Advance(time.Minute)
	name := "Shopping"
	got, err := e.lists.Update(ctx, alice.ID, list.ID, models.ListUpdate{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, "Shopping", got.Name)
	assert.Equal(t, list.CreatedAt, got.CreatedAt)
	assert.True(t, got.LastModifiedAt.After(list.LastModifiedAt))

	empty := ""
	_, err = e.lists.Update(ctx, alice.ID, list.ID, models.ListUpdate{Name: &empty})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestListDelete_CascadesItems(t *testing.T) {
	e := newEnv()
	alice := register(t, e, "alice")
	ctx := context.Background()

	list, err := e.lists.Create(ctx, alice.ID, "Groceries", []string{"milk"})
	require.NoError(t, err)

	require.NoError(t, e.lists.Delete(ctx, alice.ID, list.ID))
	assert.Empty(t, e.db.items)

	_, err = e.lists.Get(ctx, alice.ID, list.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListSearch(t *testing.T) {
	e := newEnv()
	alice := register(t, e, "alice")
	ctx := context.Background()

	for _, n := range []string{"Groceries", "Work", "grocery run", "Books"} {
		_, err := e.lists.Create(ctx, alice.ID, n, nil)
		require.NoError(t, err)
	}

	page, err := e.lists.Search(ctx, alice.ID, models.Query{Search: "GROC", SortBy: "name", SortOrder: models.SortAsc})
	require.NoError(t, err)
	require.Len(t, page.Lists, 2)
	assert.Equal(t, "Groceries", page.Lists[0].Name)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: 10, TotalItems: 2, TotalPages: 1}, page.Pagination)

	_, err = e.lists.Search(ctx, alice.ID, models.Query{SortBy: "user_id"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = e.lists.Search(ctx, alice.ID, models.Query{PageSize: 101})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestListSearch_Pagination(t *testing.T) {
	e := newEnv()
	alice := register(t, e, "alice")
	ctx := context.Background()

	for i := range 25 {
		_, err := e.lists.Create(ctx, alice.ID, fmt.Sprintf("list %02d", i), nil)
		require.NoError(t, err)
	}

	for page, want := range map[int]int{1: 10, 2: 10, 3: 5, 4: 0} {
		got, err := e.lists.Search(ctx, alice.ID, models.Query{Page: page, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, got.Lists, want, "page %d", page)
		assert.Equal(t, int64(25), got.TotalItems)
		assert.Equal(t, 3, got.TotalPages)
	}
}
