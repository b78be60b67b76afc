package ez

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"supplysphere/internal/domain"
	mdw "supplysphere/internal/transport/http/middleware"
	resp "supplysphere/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// Group 子分组（可挂额外中间件）
func (e EZ) Group(path string, h ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, h...), log: e.log}
}

type Binder string

const (
	BindJSON  Binder = "json"  // JSON body
	BindQuery Binder = "query" // ?a=b
	BindNone  Binder = "none"  // 自己从 c.Param 取
)

// AErr 统一错误对象（配合 resp.Error）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AErr{Code: resp.CodeConflict, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// MapError 领域错误 → AErr；未知错误统一 500
func MapError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return &AErr{Code: resp.CodeBadRequest, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return &AErr{Code: resp.CodeUnauthorized, Msg: "invalid credentials", Err: err}
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionNotFound):
		return &AErr{Code: resp.CodeUnauthorized, Msg: "unauthorized", Err: err}
	case errors.Is(err, domain.ErrAccountDisabled):
		return &AErr{Code: resp.CodeForbidden, Msg: "account disabled", Err: err}
	case errors.Is(err, domain.ErrForbidden):
		return &AErr{Code: resp.CodeForbidden, Msg: err.Error(), Err: err}
	case errors.Is(err, domain.ErrNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: "not found", Err: err}
	case errors.Is(err, domain.ErrEmailTaken):
		return &AErr{Code: resp.CodeConflict, Msg: "email already registered", Err: err}
	case errors.Is(err, domain.ErrConflict):
		return &AErr{Code: resp.CodeConflict, Msg: err.Error(), Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &AErr{Code: resp.CodeConflict, Msg: "duplicate record", Err: err}
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}

// Fail 写错误响应；500 记日志
func (e EZ) Fail(c *gin.Context, err error) {
	ae := MapError(err)
	if ae.Code >= resp.CodeServerError {
		e.log.Error("request failed",
			zap.String("rid", c.GetString(mdw.KeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, resp.Error(ae.Code, ae.Error()))
}

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string   // GET | POST | PUT | PATCH | DELETE
	Path    string   // 例："/auth/login"、"/users/:id/status"
	Binder  Binder   // 绑定方式
	Auth    bool     // 要求登录（userId 由鉴权中间件写入）
	Roles   []string // 限定角色（可选）
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth && c.GetString(mdw.KeyUserID) == "" {
			c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
			return
		}
		if len(a.Roles) > 0 && !slices.Contains(a.Roles, c.GetString(mdw.KeyRole)) {
			c.JSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			e.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}
