package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

var (
	errNotStubbed      = errors.New("not stubbed")
	errUnauthenticated = fmt.Errorf("%w: token rejected", common.ErrorUnauthenticated)
)

type fakeUsers struct {
	register func(ctx context.Context, userName, password string) (*models.User, error)
	login    func(ctx context.Context, userName, password string) (auth.TokenPair, error)
	refresh  func(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	update   func(ctx context.Context, user *models.User, upd models.UserUpdate) (*models.User, error)
	issue    func(user *models.User) (auth.TokenPair, error)
	delete   func(ctx context.Context, userID int64) error
}

func (f *fakeUsers) Register(ctx context.Context, userName, password string) (*models.User, error) {
	if f.register == nil {
		return nil, errNotStubbed
	}
	return f.register(ctx, userName, password)
}

func (f *fakeUsers) Login(ctx context.Context, userName, password string) (auth.TokenPair, error) {
	if f.login == nil {
		return auth.TokenPair{}, errNotStubbed
	}
	return f.login(ctx, userName, password)
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if f.refresh == nil {
		return auth.TokenPair{}, errNotStubbed
	}
	return f.refresh(ctx, refreshToken)
}

func (f *fakeUsers) Update(ctx context.Context, user *models.User, upd models.UserUpdate) (*models.User, error) {
	if f.update == nil {
		return nil, errNotStubbed
	}
	return f.update(ctx, user, upd)
}

func (f *fakeUsers) IssueTokens(user *models.User) (auth.TokenPair, error) {
	if f.issue == nil {
		return auth.TokenPair{}, errNotStubbed
	}
	return f.issue(user)
}

func (f *fakeUsers) Delete(ctx context.Context, userID int64) error {
	if f.delete == nil {
		return errNotStubbed
	}
	return f.delete(ctx, userID)
}

// fakePrincipals resolves tokens from a fixed table. Access tokens map to
// users directly; a refresh token is only consulted by ResolveWithRenewal
// when the access token is unknown.
type fakePrincipals struct {
	access   map[string]*models.User
	refresh  map[string]*models.User
	renewed  auth.TokenPair
	err      error
	strict   int
	renewing int
}

func (f *fakePrincipals) GetCurrentUser(_ context.Context, accessToken string) (*models.User, error) {
	f.strict++
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.access[accessToken]; ok {
		return u, nil
	}
	return nil, errUnauthenticated
}

func (f *fakePrincipals) ResolveWithRenewal(_ context.Context, accessToken, refreshToken string) (*models.User, *auth.TokenPair, error) {
	f.renewing++
	if f.err != nil {
		return nil, nil, f.err
	}
	if u, ok := f.access[accessToken]; ok {
		return u, nil, nil
	}
	if u, ok := f.refresh[refreshToken]; ok {
		pair := f.renewed
		return u, &pair, nil
	}
	return nil, nil, errUnauthenticated
}

type fakeLists struct {
	create func(ctx context.Context, userID int64, name string, contents []string) (*models.List, error)
	get    func(ctx context.Context, userID, listID int64) (*models.List, error)
	search func(ctx context.Context, userID int64, q models.Query) (*models.ListsPage, error)
	update func(ctx context.Context, userID, listID int64, upd models.ListUpdate) (*models.List, error)
	delete func(ctx context.Context, userID, listID int64) error
}

func (f *fakeLists) Create(ctx context.Context, userID int64, name string, contents []string) (*models.List, error) {
	if f.create == nil {
		return nil, errNotStubbed
	}
	return f.create(ctx, userID, name, contents)
}

func (f *fakeLists) Get(ctx context.Context, userID, listID int64) (*models.List, error) {
	if f.get == nil {
		return nil, errNotStubbed
	}
	return f.get(ctx, userID, listID)
}

func (f *fakeLists) Search(ctx context.Context, userID int64, q models.Query) (*models.ListsPage, error) {
	if f.search == nil {
		return nil, errNotStubbed
	}
	return f.search(ctx, userID, q)
}

func (f *fakeLists) Update(ctx context.Context, userID, listID int64, upd models.ListUpdate) (*models.List, error) {
	if f.update == nil {
		return nil, errNotStubbed
	}
	return f.update(ctx, userID, listID, upd)
}

func (f *fakeLists) Delete(ctx context.Context, userID, listID int64) error {
	if f.delete == nil {
		return errNotStubbed
	}
	return f.delete(ctx, userID, listID)
}

type fakeItems struct {
	create func(ctx context.Context, userID, listID int64, contents []string) ([]*models.ListItem, error)
	get    func(ctx context.Context, userID, listID, itemID int64) (*models.ListItem, error)
	search func(ctx context.Context, userID, listID int64, q models.Query) (*models.ItemsPage, error)
	update func(ctx context.Context, userID, listID, itemID int64, upd models.ItemUpdate) (*models.ListItem, error)
	delete func(ctx context.Context, userID, listID, itemID int64) error
}

func (f *fakeItems) Create(ctx context.Context, userID, listID int64, contents []string) ([]*models.ListItem, error) {
	if f.create == nil {
		return nil, errNotStubbed
	}
	return f.create(ctx, userID, listID, contents)
}

func (f *fakeItems) Get(ctx context.Context, userID, listID, itemID int64) (*models.ListItem, error) {
	if f.get == nil {
		return nil, errNotStubbed
	}
	return f.get(ctx, userID, listID, itemID)
}

func (f *fakeItems) Search(ctx context.Context, userID, listID int64, q models.Query) (*models.ItemsPage, error) {
	if f.search == nil {
		return nil, errNotStubbed
	}
	return f.search(ctx, userID, listID, q)
}

func (f *fakeItems) Update(ctx context.Context, userID, listID, itemID int64, upd models.ItemUpdate) (*models.ListItem, error) {
	if f.update == nil {
		return nil, errNotStubbed
	}
	return f.update(ctx, userID, listID, itemID, upd)
}

func (f *fakeItems) Delete(ctx context.Context, userID, listID, itemID int64) error {
	if f.delete == nil {
		return errNotStubbed
	}
	return f.delete(ctx, userID, listID, itemID)
}

const (
	aliceToken = "alice-access"
	bobToken   = "bob-access"
)

var (
	alice = &models.User{ID: 1, UserName: "alice"}
	bob   = &models.User{ID: 2, UserName: "bob"}
)

type testAPI struct {
	srv        *Server
	users      *fakeUsers
	principals *fakePrincipals
	lists      *fakeLists
	items      *fakeItems
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		users: &fakeUsers{},
		principals: &fakePrincipals{
			access:  map[string]*models.User{aliceToken: alice, bobToken: bob},
			refresh: map[string]*models.User{},
		},
		lists: &fakeLists{},
		items: &fakeItems{},
	}

	srv, err := New(Deps{
		Address:    "127.0.0.1:0",
		Logger:     logging.NopLogger{},
		Users:      api.users,
		Principals: api.principals,
		Lists:      api.lists,
		Items:      api.items,
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	api.srv = srv

	return api
}

// do sends a request through the router. token, when set, is sent as a
// bearer token.
func (a *testAPI) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return a.serve(req)
}

func (a *testAPI) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.srv.Handler().ServeHTTP(rec, req)
	return rec
}

// envelope mirrors the success response with data left raw.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) Error {
	t.Helper()

	var e Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), rec.Body.String())
	return e
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}
