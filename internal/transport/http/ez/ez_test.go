package ez

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"supplysphere/internal/domain"
	mdw "supplysphere/internal/transport/http/middleware"
	resp "supplysphere/internal/transport/http/response"
	"supplysphere/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// fakeAuth 用 header 模拟鉴权结果
func fakeAuth(c *gin.Context) {
	if uid := c.GetHeader("X-UID"); uid != "" {
		c.Set(mdw.KeyUserID, uid)
		c.Set(mdw.KeyRole, c.GetHeader("X-Role"))
	}
	c.Next()
}

func do(t *testing.T, r *gin.Engine, method, path, uid, role string, body any) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-UID", uid)
		req.Header.Set("X-Role", role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

type echoOut struct {
	Hello string `json:"hello"`
}

func TestRegisterAction(t *testing.T) {
	r := gin.New()
	r.Use(fakeAuth)
	e := New(r.Group("/v1"), zap.NewNop())
	RegisterAction(e, Action[echoIn, echoOut]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Auth:   true,
		Roles:  []string{"vendor"},
		Handler: func(c *gin.Context, in *echoIn) (echoOut, error) {
			if in.Name == "boom" {
				return echoOut{}, errors.New("db down")
			}
			if in.Name == "ghost" {
				return echoOut{}, fmt.Errorf("load: %w", domain.ErrNotFound)
			}
			return echoOut{Hello: in.Name}, nil
		},
	})

	assert.Equal(t, resp.CodeUnauthorized, do(t, r, http.MethodPost, "/v1/echo", "", "", echoIn{Name: "x"}).Code)
	assert.Equal(t, resp.CodeForbidden, do(t, r, http.MethodPost, "/v1/echo", "u1", "supplier", echoIn{Name: "x"}).Code)
	assert.Equal(t, resp.CodeBadRequest, do(t, r, http.MethodPost, "/v1/echo", "u1", "vendor", map[string]string{}).Code)
	assert.Equal(t, resp.CodeServerError, do(t, r, http.MethodPost, "/v1/echo", "u1", "vendor", echoIn{Name: "boom"}).Code)
	assert.Equal(t, resp.CodeNotFound, do(t, r, http.MethodPost, "/v1/echo", "u1", "vendor", echoIn{Name: "ghost"}).Code)

	env := do(t, r, http.MethodPost, "/v1/echo", "u1", "vendor", echoIn{Name: "jane"})
	require.Equal(t, resp.CodeOK, env.Code)
	assert.JSONEq(t, `{"hello":"jane"}`, string(env.Data))
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidInput, resp.CodeBadRequest},
		{domain.ErrInvalidCredentials, resp.CodeUnauthorized},
		{domain.ErrSessionNotFound, resp.CodeUnauthorized},
		{domain.ErrAccountDisabled, resp.CodeForbidden},
		{fmt.Errorf("x: %w", domain.ErrForbidden), resp.CodeForbidden},
		{domain.ErrEmailTaken, resp.CodeConflict},
		{gorm.ErrDuplicatedKey, resp.CodeConflict},
		{Conflict("taken"), resp.CodeConflict},
		{errors.New("unexpected"), resp.CodeServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, MapError(tc.err).Code, tc.err.Error())
	}
	assert.Equal(t, "internal error", MapError(errors.New("secret detail")).Error())
}

type note struct {
	ID      string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	OwnerID string `gorm:"size:32;index" json:"ownerId"`
	Title   string `json:"title" binding:"required"`
	Body    string `json:"body"`
}

func newCrud(t *testing.T) (*gin.Engine, *int) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", utils.NewID())),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&note{}))

	writes := 0
	r := gin.New()
	r.Use(fakeAuth)
	Crud(CrudConfig[note]{
		DB:    db,
		EZ:    New(r.Group("/v1"), zap.NewNop()),
		Path:  "/notes",
		New:   func() *note { return &note{} },
		Roles: []string{"supplier"},
		Hooks: CrudHooks[note]{
			BeforeCreate: func(c *gin.Context, m *note) error {
				if m.Title == "bad" {
					return domain.ErrInvalidInput
				}
				return nil
			},
			BeforeUpdate: func(c *gin.Context, prev, m *note) error {
				// 模拟读取后被他人改动
				if m.Body == "race" {
					return db.Model(&note{}).Where("id = ?", prev.ID).Update("title", "changed").Error
				}
				return nil
			},
			UpdateWhere: func(prev *note, q *gorm.DB) *gorm.DB { return q.Where("title = ?", prev.Title) },
			AfterWrite:  func(c *gin.Context, _ *note) { writes++ },
		},
	})
	return r, &writes
}

func TestCrud_OwnerIsolation(t *testing.T) {
	r, writes := newCrud(t)

	env := do(t, r, http.MethodPost, "/v1/notes", "alice", "supplier", note{ID: "forged", OwnerID: "bob", Title: "first"})
	require.Equal(t, resp.CodeOK, env.Code)
	var created note
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEqual(t, "forged", created.ID)
	assert.Equal(t, "alice", created.OwnerID)

	assert.Equal(t, resp.CodeBadRequest, do(t, r, http.MethodPost, "/v1/notes", "alice", "supplier", note{Title: "bad"}).Code)
	assert.Equal(t, resp.CodeForbidden, do(t, r, http.MethodPost, "/v1/notes", "v1", "vendor", note{Title: "x"}).Code)

	// 他人不可见
	assert.Equal(t, resp.CodeNotFound, do(t, r, http.MethodGet, "/v1/notes/"+created.ID, "bob", "supplier", nil).Code)
	assert.Equal(t, resp.CodeNotFound, do(t, r, http.MethodPut, "/v1/notes/"+created.ID, "bob", "supplier", note{Title: "hijack"}).Code)
	assert.Equal(t, resp.CodeNotFound, do(t, r, http.MethodDelete, "/v1/notes/"+created.ID, "bob", "supplier", nil).Code)

	list := do(t, r, http.MethodGet, "/v1/notes", "bob", "supplier", nil)
	assert.JSONEq(t, `{"list":[],"total":0,"page":1,"size":20}`, string(list.Data))

	// 部分更新保留未传字段
	env = do(t, r, http.MethodPut, "/v1/notes/"+created.ID, "alice", "supplier", map[string]string{"body": "more"})
	require.Equal(t, resp.CodeOK, env.Code)
	var updated note
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "first", updated.Title)
	assert.Equal(t, "more", updated.Body)

	assert.Equal(t, resp.CodeOK, do(t, r, http.MethodDelete, "/v1/notes/"+created.ID, "alice", "supplier", nil).Code)
	assert.Equal(t, 3, *writes)
}

func TestCrud_ConflictingUpdate(t *testing.T) {
	r, writes := newCrud(t)
	var created note
	env := do(t, r, http.MethodPost, "/v1/notes", "alice", "supplier", note{Title: "first"})
	require.NoError(t, json.Unmarshal(env.Data, &created))

	env = do(t, r, http.MethodPut, "/v1/notes/"+created.ID, "alice", "supplier", map[string]string{"body": "race"})
	assert.Equal(t, resp.CodeConflict, env.Code)
	assert.Equal(t, 1, *writes)

	var got note
	require.NoError(t, json.Unmarshal(do(t, r, http.MethodGet, "/v1/notes/"+created.ID, "alice", "supplier", nil).Data, &got))
	assert.Equal(t, "changed", got.Title)
	assert.Empty(t, got.Body)
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "owner_id", toSnake("OwnerID"))
	assert.Equal(t, "id", toSnake("ID"))
	assert.Equal(t, "batch_id", toSnake("BatchID"))
}
