package ez

import (
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"supplysphere/internal/domain"
	mdw "supplysphere/internal/transport/http/middleware"
	resp "supplysphere/internal/transport/http/response"
	"supplysphere/pkg/utils"
)

type CrudHooks[T any] struct {
	BeforeCreate func(c *gin.Context, m *T) error
	BeforeUpdate func(c *gin.Context, prev, m *T) error    // prev 为库中原记录
	UpdateWhere  func(prev *T, q *gorm.DB) *gorm.DB        // 乐观条件；未命中返回 409
	ScopeList    func(c *gin.Context, q *gorm.DB) *gorm.DB // 自定义筛选
	AfterWrite   func(c *gin.Context, m *T)                // 创建/更新/删除后（清缓存等）
}

type CrudConfig[T any] struct {
	DB    *gorm.DB
	EZ    EZ // 已鉴权分组（能拿 userId）
	Path  string
	New   func() *T
	Roles []string // 限定角色（可选）

	Hooks CrudHooks[T]

	AllowCreate bool
	AllowList   bool
	AllowGet    bool
	AllowUpdate bool
	AllowDelete bool

	IDField    string        // 默认 "ID"
	OwnerField string        // 默认 "OwnerID"
	IDGen      func() string // 默认 utils.NewID
	OrderBy    string        // 为空按 id DESC
}

func getStringFieldPtr(obj any, name string) (*string, bool) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	f := v.Elem().FieldByName(name)
	if !f.IsValid() || f.Kind() != reflect.String || !f.CanSet() {
		return nil, false
	}
	return f.Addr().Interface().(*string), true
}

func setField(obj any, name, val string) bool {
	p, ok := getStringFieldPtr(obj, name)
	if ok {
		*p = val
	}
	return ok
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Crud 按 owner 隔离的 CRUD（模型无需实现接口，靠反射读写 ID/Owner 字段）
func Crud[T any](cfg CrudConfig[T]) {
	if !cfg.AllowCreate && !cfg.AllowGet && !cfg.AllowList && !cfg.AllowUpdate && !cfg.AllowDelete {
		cfg.AllowCreate, cfg.AllowList, cfg.AllowGet, cfg.AllowUpdate, cfg.AllowDelete = true, true, true, true, true
	}
	if cfg.IDField == "" {
		cfg.IDField = "ID"
	}
	if cfg.OwnerField == "" {
		cfg.OwnerField = "OwnerID"
	}
	if cfg.IDGen == nil {
		cfg.IDGen = utils.NewID
	}
	idCol, ownerCol := toSnake(cfg.IDField), toSnake(cfg.OwnerField)
	e := cfg.EZ

	// 统一前置：登录 + 角色
	guard := func(c *gin.Context) (string, bool) {
		uid := c.GetString(mdw.KeyUserID)
		if uid == "" {
			c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return "", false
		}
		if len(cfg.Roles) > 0 && !slices.Contains(cfg.Roles, c.GetString(mdw.KeyRole)) {
			c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return "", false
		}
		return uid, true
	}
	owned := func(c *gin.Context, uid string) *gorm.DB {
		return cfg.DB.WithContext(c).Where(clause.Eq{Column: clause.Column{Name: idCol}, Value: c.Param("id")}).
			Where(clause.Eq{Column: clause.Column{Name: ownerCol}, Value: uid})
	}
	after := func(c *gin.Context, m *T) {
		if cfg.Hooks.AfterWrite != nil {
			cfg.Hooks.AfterWrite(c, m)
		}
	}

	if cfg.AllowCreate {
		e.g.POST(cfg.Path, func(c *gin.Context) {
			uid, ok := guard(c)
			if !ok {
				return
			}
			m := cfg.New()
			if err := c.ShouldBindJSON(m); err != nil {
				c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
				return
			}
			// ID 永远服务端生成；Owner 强制为当前用户
			if !setField(m, cfg.IDField, cfg.IDGen()) || !setField(m, cfg.OwnerField, uid) {
				e.Fail(c, Internal("model id/owner field not found", nil))
				return
			}
			if cfg.Hooks.BeforeCreate != nil {
				if err := cfg.Hooks.BeforeCreate(c, m); err != nil {
					e.Fail(c, err)
					return
				}
			}
			if err := cfg.DB.WithContext(c).Create(m).Error; err != nil {
				e.Fail(c, err)
				return
			}
			after(c, m)
			c.JSON(http.StatusOK, resp.OK(m))
		})
	}

	if cfg.AllowList {
		e.g.GET(cfg.Path, func(c *gin.Context) {
			uid, ok := guard(c)
			if !ok {
				return
			}
			page := atoiDefault(c.Query("page"), 1)
			size := atoiDefault(c.Query("size"), 20)
			if size > 100 {
				size = 20
			}

			q := cfg.DB.WithContext(c).Model(cfg.New()).
				Where(clause.Eq{Column: clause.Column{Name: ownerCol}, Value: uid})
			if cfg.Hooks.ScopeList != nil {
				q = cfg.Hooks.ScopeList(c, q)
			}
			var total int64
			if err := q.Count(&total).Error; err != nil {
				e.Fail(c, err)
				return
			}
			if cfg.OrderBy != "" {
				q = q.Order(cfg.OrderBy)
			} else {
				q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: idCol}, Desc: true})
			}
			var items []T
			if err := q.Limit(size).Offset((page - 1) * size).Find(&items).Error; err != nil {
				e.Fail(c, err)
				return
			}
			c.JSON(http.StatusOK, resp.OK(gin.H{
				"list": nonNil(items), "total": total, "page": page, "size": size,
			}))
		})
	}

	if cfg.AllowGet {
		e.g.GET(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := guard(c)
			if !ok {
				return
			}
			m := cfg.New()
			if err := owned(c, uid).First(m).Error; err != nil {
				c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "not found"))
				return
			}
			c.JSON(http.StatusOK, resp.OK(m))
		})
	}

	if cfg.AllowUpdate {
		e.g.PUT(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := guard(c)
			if !ok {
				return
			}
			// 先取原记录，再把 body 覆盖上去（未传字段保持原值）
			m := cfg.New()
			if err := owned(c, uid).First(m).Error; err != nil {
				c.JSON(http.StatusOK, resp.Error(resp.CodeNotFound, "not found"))
				return
			}
			prev := *m
			if err := c.ShouldBindJSON(m); err != nil {
				c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
				return
			}
			setField(m, cfg.IDField, c.Param("id"))
			setField(m, cfg.OwnerField, uid)
			if cfg.Hooks.BeforeUpdate != nil {
				if err := cfg.Hooks.BeforeUpdate(c, &prev, m); err != nil {
					e.Fail(c, err)
					return
				}
			}
			q := owned(c, uid)
			if cfg.Hooks.UpdateWhere != nil {
				q = cfg.Hooks.UpdateWhere(&prev, q)
			}
			res := q.Model(m).Select("*").Updates(m)
			if res.Error != nil {
				e.Fail(c, res.Error)
				return
			}
			if res.RowsAffected == 0 {
				e.Fail(c, Conflict("record changed, reload and retry"))
				return
			}
			after(c, m)
			c.JSON(http.StatusOK, resp.OK(m))
		})
	}

	if cfg.AllowDelete {
		e.g.DELETE(cfg.Path+"/:id", func(c *gin.Context) {
			uid, ok := guard(c)
			if !ok {
				return
			}
			res := owned(c, uid).Delete(cfg.New())
			if res.Error != nil {
				e.Fail(c, res.Error)
				return
			}
			if res.RowsAffected == 0 {
				e.Fail(c, domain.ErrNotFound)
				return
			}
			after(c, nil)
			c.JSON(http.StatusOK, resp.OK(gin.H{"id": c.Param("id")}))
		})
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
