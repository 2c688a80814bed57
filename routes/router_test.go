package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/policy"
	"github.com/cppla/aiblog/routes"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/stores"
	"github.com/cppla/aiblog/stores/storetest"
	"github.com/cppla/aiblog/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{
		JWTSecret:          "test-secret",
		RateLimitPerMinute: 100000,
		SuperuserUsernames: []string{"root"},
	})
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	t  *testing.T
	db *gorm.DB
	r  *gin.Engine
}

func setup(t *testing.T) *fixture {
	db := storetest.Open(t)
	r := gin.New()
	routes.RegisterRoutes(r, db, config.Get())
	return &fixture{t: t, db: db, r: r}
}

func (f *fixture) token(u *models.User) string {
	tok, _, err := utils.GenerateToken(u.ID, u.Username)
	require.NoError(f.t, err)
	return tok
}

func (f *fixture) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (f *fixture) comment(article *models.Article, author *models.User, replyTo *uint) *models.Comment {
	c := &models.Comment{ArticleID: article.ID, Content: "comment", ReplyToID: replyTo}
	if author != nil {
		c.AuthorID = &author.ID
	}
	require.NoError(f.t, stores.NewCommentStore(f.db).Create(context.Background(), c))
	return c
}

func (f *fixture) commentCount() int64 {
	var n int64
	require.NoError(f.t, f.db.Model(&models.Comment{}).Count(&n).Error)
	return n
}

func path(format string, args ...interface{}) string {
	return "/api/v1" + fmt.Sprintf(format, args...)
}

func TestCreateCommentRejectsReplyOnOtherArticle(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	member := storetest.CreateUser(t, f.db, "alice")
	a5 := storetest.CreateArticle(t, f.db, mod, "five")
	a6 := storetest.CreateArticle(t, f.db, mod, "six")
	parent := f.comment(a5, mod, nil)
	before := f.commentCount()

	w, env := f.do(http.MethodPost, path("/comments"), f.token(member), map[string]interface{}{
		"article": a6.ID, "reply_to": parent.ID, "content": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.ReasonReplyOtherTopic, env.Error)
	assert.Equal(t, before, f.commentCount())

	w, env = f.do(http.MethodPost, path("/comments"), f.token(member), map[string]interface{}{
		"article": "abc", "reply_to": parent.ID, "content": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.ReasonReplyOtherTopic, env.Error)

	w, env = f.do(http.MethodPost, path("/comments"), f.token(member), map[string]interface{}{
		"article": a5.ID, "reply_to": 9999, "content": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.ReasonReplyNotFound, env.Error)
	assert.Equal(t, before, f.commentCount())
}

func TestCreateCommentReply(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	member := storetest.CreateUser(t, f.db, "alice")
	a := storetest.CreateArticle(t, f.db, mod, "five")
	parent := f.comment(a, mod, nil)

	w, env := f.do(http.MethodPost, path("/comments"), f.token(member), map[string]interface{}{
		"article": a.ID, "reply_to": parent.ID, "content": "hello", "author": mod.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got services.CommentView
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "alice", got.AuthorName)
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, parent.ID, *got.ReplyTo)
}

func TestArticleScopedCreateValidatesReply(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	member := storetest.CreateUser(t, f.db, "alice")
	a5 := storetest.CreateArticle(t, f.db, mod, "five")
	a6 := storetest.CreateArticle(t, f.db, mod, "six")
	parent := f.comment(a5, mod, nil)

	w, env := f.do(http.MethodPost, path("/articles/%d/comments", a6.ID), f.token(member), map[string]interface{}{
		"reply_to": parent.ID, "content": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.ReasonReplyOtherTopic, env.Error)

	w, _ = f.do(http.MethodPost, path("/articles/%d/comments", a5.ID), f.token(member), map[string]interface{}{
		"reply_to": parent.ID, "content": "hello",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = f.do(http.MethodPost, path("/articles/9999/comments"), f.token(member), map[string]interface{}{"content": "hello"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCommentPermissions(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	editor := storetest.CreateUser(t, f.db, "ed", policy.RoleEditors)
	a := storetest.CreateArticle(t, f.db, mod, "five")
	body := map[string]interface{}{"article": a.ID, "content": "hello"}

	w, _ := f.do(http.MethodPost, path("/comments"), "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(http.MethodPost, path("/comments"), f.token(editor), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(http.MethodPost, path("/comments"), f.token(mod), body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestUpdateCommentOwnership(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	alice := storetest.CreateUser(t, f.db, "alice")
	bob := storetest.CreateUser(t, f.db, "bob")
	a := storetest.CreateArticle(t, f.db, mod, "five")
	c := f.comment(a, alice, nil)
	url := path("/comments/%d", c.ID)

	w, _ := f.do(http.MethodPatch, url, "", map[string]string{"content": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(http.MethodPatch, url, f.token(bob), map[string]string{"content": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := f.do(http.MethodPatch, url, f.token(alice), map[string]string{"content": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	var got services.CommentView
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "edited", got.Content)

	w, _ = f.do(http.MethodPut, url, f.token(mod), map[string]string{"content": "moderated"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(http.MethodPut, url, f.token(mod), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(http.MethodDelete, url, f.token(bob), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(http.MethodPatch, path("/comments/9999"), f.token(alice), map[string]string{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCommentCascadesToReplies(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	alice := storetest.CreateUser(t, f.db, "alice")
	a := storetest.CreateArticle(t, f.db, mod, "five")
	root := f.comment(a, alice, nil)
	reply := f.comment(a, mod, &root.ID)
	f.comment(a, mod, &reply.ID)
	other := f.comment(a, mod, nil)

	w, _ := f.do(http.MethodDelete, path("/comments/%d", root.ID), f.token(alice), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, int64(1), f.commentCount())

	w, _ = f.do(http.MethodGet, path("/comments/%d", other.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCommentTreeAndDeletedAuthor(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	alice := storetest.CreateUser(t, f.db, "alice")
	a := storetest.CreateArticle(t, f.db, mod, "five")
	root := f.comment(a, alice, nil)
	f.comment(a, mod, &root.ID)
	require.NoError(t, stores.NewUserStore(f.db).Delete(context.Background(), alice.ID))

	w, env := f.do(http.MethodGet, path("/comments"), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree []services.CommentView
	require.NoError(t, json.Unmarshal(env.Data, &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, services.DeletedUserName, tree[0].AuthorName)
	assert.Nil(t, tree[0].AuthorProfilePic)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, "mod", tree[0].Replies[0].AuthorName)

	w, env = f.do(http.MethodGet, path("/articles/%d/comments", a.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var flat []services.CommentView
	require.NoError(t, json.Unmarshal(env.Data, &flat))
	assert.Len(t, flat, 2)
}

func TestArticlePermissions(t *testing.T) {
	f := setup(t)
	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	editor := storetest.CreateUser(t, f.db, "ed", policy.RoleEditors)
	member := storetest.CreateUser(t, f.db, "alice")
	body := map[string]interface{}{"title": "Hello", "content": "# Hi", "tags": []string{"go"}}

	w, _ := f.do(http.MethodPost, path("/articles"), f.token(editor), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = f.do(http.MethodPost, path("/articles"), f.token(member), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := f.do(http.MethodPost, path("/articles"), f.token(mod), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID          uint     `json:"id"`
		Author      string   `json:"author"`
		ContentHTML string   `json:"content_html"`
		Tags        []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "mod", created.Author)
	assert.Contains(t, created.ContentHTML, "<h1")
	assert.Equal(t, []string{"go"}, created.Tags)

	w, _ = f.do(http.MethodPost, path("/articles"), f.token(mod), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(http.MethodPatch, path("/articles/%d", created.ID), f.token(editor), map[string]string{"content": "edited"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(http.MethodDelete, path("/articles/%d", created.ID), f.token(editor), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(http.MethodDelete, path("/articles/%d", created.ID), f.token(mod), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRegisterLoginLogout(t *testing.T) {
	f := setup(t)

	w, env := f.do(http.MethodPost, path("/auth/register"), "", map[string]string{
		"username": "carol", "password": "s3cret-pass", "password2": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		Token string `json:"token"`
		User  struct {
			Groups []string `json:"groups"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	assert.Equal(t, []string{policy.RoleMembers}, reg.User.Groups)

	w, _ = f.do(http.MethodPost, path("/auth/register"), "", map[string]string{
		"username": "dave", "password": "s3cret-pass", "password2": "other-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(http.MethodPost, path("/auth/login"), "", map[string]string{"username": "carol", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = f.do(http.MethodPost, path("/auth/login"), "", map[string]string{"username": "carol", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	w, _ = f.do(http.MethodGet, path("/auth/me"), login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(http.MethodPost, path("/auth/logout"), login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(http.MethodGet, path("/auth/me"), login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.do(http.MethodGet, path("/comments"), "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserAdminRequiresSuperuser(t *testing.T) {
	f := setup(t)
	alice := storetest.CreateUser(t, f.db, "alice")

	w, env := f.do(http.MethodPost, path("/auth/register"), "", map[string]string{
		"username": "root", "password": "s3cret-pass", "password2": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reg))

	w, _ = f.do(http.MethodGet, path("/users"), f.token(alice), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(http.MethodGet, path("/users"), reg.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = f.do(http.MethodPut, path("/users/%d/groups", alice.ID), reg.Token, map[string][]string{
		"groups": {policy.RoleMembers, policy.RoleEditors},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var u struct {
		Groups []string `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.ElementsMatch(t, []string{policy.RoleMembers, policy.RoleEditors}, u.Groups)

	w, _ = f.do(http.MethodPut, path("/users/%d/groups", alice.ID), reg.Token, map[string][]string{"groups": {"Admins"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(http.MethodDelete, path("/users/%d", alice.ID), reg.Token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealthAndStats(t *testing.T) {
	f := setup(t)
	w, _ := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	mod := storetest.CreateUser(t, f.db, "mod", policy.RoleModerators)
	a := storetest.CreateArticle(t, f.db, mod, "five")
	root := f.comment(a, mod, nil)
	f.comment(a, mod, &root.ID)

	w, env := f.do(http.MethodGet, path("/articles/%d/stats", a.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Comments int64 `json:"comments_count"`
		Threads  int64 `json:"threads_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(2), stats.Comments)
	assert.Equal(t, int64(1), stats.Threads)
}
