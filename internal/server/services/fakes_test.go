package services

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/lists"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/users"
)

// fakeTransactor runs fn without a real transaction. err, when set, is
// returned instead of running fn, as if BEGIN failed.
type fakeTransactor struct {
	err   error
	calls int
}

func (f *fakeTransactor) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(ctx, nil)
}

// memDB is an in-memory stand-in for the PostgreSQL schema, including the
// owner scoping and cascades of the real repositories.
type memDB struct {
	mu     sync.Mutex
	seq    int64
	users  map[int64]*models.User
	lists  map[int64]*models.List
	items  map[int64]*models.ListItem
	failOn map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		users:  map[int64]*models.User{},
		lists:  map[int64]*models.List{},
		items:  map[int64]*models.ListItem{},
		failOn: map[string]error{},
	}
}

func (m *memDB) next() int64 {
	m.seq++
	return m.seq
}

func (m *memDB) fail(op string) error {
	return m.failOn[op]
}

type fakeRepoManager struct{ db *memDB }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return &memUsers{f.db} }
func (f *fakeRepoManager) Lists(dbx.DBTX) lists.Repository              { return &memLists{f.db} }
func (f *fakeRepoManager) Items(dbx.DBTX) items.Repository              { return &memItems{f.db} }

type memUsers struct{ *memDB }

func (r *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("users.Create"); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if u.UserName == user.UserName {
			return nil, common.ErrorConflict
		}
	}
	user.ID = r.next()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *memUsers) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("users.Get"); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if u.UserName == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("users.Get"); err != nil {
		return nil, err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *user
	cp.Lists = nil
	r.users[user.ID] = &cp
	return nil
}

func (r *memUsers) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.users, id)
	for lid, l := range r.lists {
		if l.UserID == id {
			r.deleteList(lid)
		}
	}
	return nil
}

func (m *memDB) deleteList(id int64) {
	delete(m.lists, id)
	for iid, it := range m.items {
		if it.ListID == id {
			delete(m.items, iid)
		}
	}
}

type memLists struct{ *memDB }

func (r *memLists) owned(userID, listID int64) (*models.List, bool) {
	l, ok := r.lists[listID]
	if !ok || l.UserID != userID {
		return nil, false
	}
	return l, true
}

func (r *memLists) Create(ctx context.Context, list *models.List) (*models.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("lists.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.users[list.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	list.ID = r.next()
	cp := *list
	cp.Items = nil
	r.lists[list.ID] = &cp
	return list, nil
}

func (r *memLists) GetByID(ctx context.Context, userID, listID int64) (*models.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.owned(userID, listID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLists) ListByUser(ctx context.Context, userID int64) ([]*models.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("lists.ListByUser"); err != nil {
		return nil, err
	}
	out := []*models.List{}
	for _, l := range r.lists {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.List) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *memLists) Search(ctx context.Context, userID int64, q models.Query) ([]*models.List, int64, error) {
	all, _ := r.ListByUser(ctx, userID)
	matched := slices.DeleteFunc(all, func(l *models.List) bool {
		return !strings.Contains(strings.ToLower(l.Name), strings.ToLower(q.Search))
	})
	slices.SortStableFunc(matched, func(a, b *models.List) int {
		var c int
		switch q.SortBy {
		case "name":
			c = cmp.Compare(a.Name, b.Name)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		case "last_modified_at":
			c = a.LastModifiedAt.Compare(b.LastModifiedAt)
		default:
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.SortOrder == models.SortDesc {
			c = -c
		}
		return c
	})
	return paginate(matched, q), int64(len(matched)), nil
}

func (r *memLists) Update(ctx context.Context, list *models.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.owned(list.UserID, list.ID)
	if !ok {
		return common.ErrorNotFound
	}
	l.Name = list.Name
	l.LastModifiedAt = list.LastModifiedAt
	return nil
}

func (r *memLists) Touch(ctx context.Context, userID, listID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("lists.Touch"); err != nil {
		return err
	}
	l, ok := r.owned(userID, listID)
	if !ok {
		return common.ErrorNotFound
	}
	l.LastModifiedAt = at
	return nil
}

func (r *memLists) Delete(ctx context.Context, userID, listID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owned(userID, listID); !ok {
		return common.ErrorNotFound
	}
	r.deleteList(listID)
	return nil
}

type memItems struct{ *memDB }

func (r *memItems) owned(userID, listID, itemID int64) (*models.ListItem, bool) {
	it, ok := r.items[itemID]
	if !ok || it.ListID != listID {
		return nil, false
	}
	l, ok := r.lists[listID]
	if !ok || l.UserID != userID {
		return nil, false
	}
	return it, true
}

func (r *memItems) Create(ctx context.Context, item *models.ListItem) (*models.ListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("items.Create"); err != nil {
		return nil, err
	}
	if _, ok := r.lists[item.ListID]; !ok {
		return nil, common.ErrorNotFound
	}
	item.ID = r.next()
	cp := *item
	r.items[item.ID] = &cp
	return item, nil
}

func (r *memItems) GetByID(ctx context.Context, userID, listID, itemID int64) (*models.ListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.owned(userID, listID, itemID)
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *memItems) ListByList(ctx context.Context, userID, listID int64) ([]*models.ListItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.ListItem{}
	l, ok := r.lists[listID]
	if !ok || l.UserID != userID {
		return out, nil
	}
	for _, it := range r.items {
		if it.ListID == listID {
			cp := *it
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.ListItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *memItems) Search(ctx context.Context, userID, listID int64, q models.Query) ([]*models.ListItem, int64, error) {
	all, _ := r.ListByList(ctx, userID, listID)
	matched := slices.DeleteFunc(all, func(it *models.ListItem) bool {
		return !strings.Contains(strings.ToLower(it.Content), strings.ToLower(q.Search))
	})
	if q.SortOrder == models.SortDesc {
		slices.Reverse(matched)
	}
	return paginate(matched, q), int64(len(matched)), nil
}

func (r *memItems) Update(ctx context.Context, userID int64, item *models.ListItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.owned(userID, item.ListID, item.ID)
	if !ok {
		return common.ErrorNotFound
	}
	it.Content = item.Content
	it.IsCompleted = item.IsCompleted
	it.LastModifiedAt = item.LastModifiedAt
	return nil
}

func (r *memItems) Delete(ctx context.Context, userID, listID, itemID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owned(userID, listID, itemID); !ok {
		return common.ErrorNotFound
	}
	delete(r.items, itemID)
	return nil
}

func paginate[T any](all []T, q models.Query) []T {
	start := min(q.Offset(), len(all))
	end := min(start+q.PageSize, len(all))
	return all[start:end]
}

// testClock is a manually advanced time source.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func newTestClock() *testClock               { return &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)} }
func newTestIssuer(now func() time.Time) *auth.Issuer {
	codec, err := auth.NewCodec("HS256", auth.WithClock(now))
	if err != nil {
		panic(err)
	}
	issuer, err := auth.NewIssuer(codec, auth.IssuerConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		panic(err)
	}
	return issuer
}

// env wires all services over one memDB.
type env struct {
	db        *memDB
	tx        *fakeTransactor
	clock     *testClock
	issuer    *auth.Issuer
	users     *UserService
	principal *PrincipalResolver
	lists     *ListService
	items     *ItemService
}

func newEnv() *env {
	db := newMemDB()
	tx := &fakeTransactor{}
	rm := &fakeRepoManager{db: db}
	clock := newTestClock()
	issuer := newTestIssuer(clock.Now)

	return &env{
		db:        db,
		tx:        tx,
		clock:     clock,
		issuer:    issuer,
		users:     NewUserService(tx, rm, issuer, WithClock(clock.Now)),
		principal: NewPrincipalResolver(tx, rm, issuer, WithClock(clock.Now)),
		lists:     NewListService(tx, rm, WithClock(clock.Now)),
		items:     NewItemService(tx, rm, WithClock(clock.Now)),
	}
}
