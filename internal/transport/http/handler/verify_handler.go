package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"supplysphere/internal/domain"
	"supplysphere/internal/service"
	"supplysphere/internal/transport/http/ez"
	resp "supplysphere/internal/transport/http/response"
)

type VerifyHandler struct {
	Kit
	svc  *service.VerifyService
	dash *service.DashboardService
}

func NewVerifyHandler(k Kit, svc *service.VerifyService, dash *service.DashboardService) *VerifyHandler {
	return &VerifyHandler{Kit: k, svc: svc, dash: dash}
}

type verifyIn struct {
	QRCode      string   `json:"qrCode"   binding:"required,max=96"`
	Location    string   `json:"location" binding:"max=128"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity" binding:"omitempty,min=0,max=100"`
	Notes       string   `json:"notes"    binding:"max=256"`
}

type pageIn struct {
	Offset int `form:"offset" binding:"min=0"`
	Limit  int `form:"limit"  binding:"min=0,max=100"`
}

func (h *VerifyHandler) MountAPI(api *gin.RouterGroup) {
	authed := ez.New(api.Group("", h.Auth()), h.Log)

	ez.RegisterAction(authed, ez.Action[verifyIn, *domain.Verification]{
		Method: http.MethodPost,
		Path:   "/verify",
		Binder: ez.BindJSON,
		Auth:   true,
		Roles:  []string{string(domain.RoleVendor)},
		Handler: func(c *gin.Context, in *verifyIn) (*domain.Verification, error) {
			_, u, err := current(c)
			if err != nil {
				return nil, err
			}
			v, err := h.svc.Verify(c.Request.Context(), u, service.VerifyInput{
				QRCode: in.QRCode, Location: in.Location, Temperature: in.Temperature, Humidity: in.Humidity, Notes: in.Notes,
			}, meta(c))
			if err != nil {
				return nil, err
			}
			if err := h.dash.InvalidateVerification(c.Request.Context(), u, v); err != nil {
				h.Log.Warn("invalidate dashboard", zap.Error(err))
			}
			return v, nil
		},
	})

	ez.RegisterAction(authed, ez.Action[pageIn, resp.Page[domain.Verification]]{
		Method: http.MethodGet,
		Path:   "/verifications",
		Binder: ez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *pageIn) (resp.Page[domain.Verification], error) {
			_, u, err := current(c)
			if err != nil {
				return resp.Page[domain.Verification]{}, err
			}
			items, total, err := h.svc.List(c.Request.Context(), u, in.Offset, in.Limit)
			if err != nil {
				return resp.Page[domain.Verification]{}, err
			}
			return resp.NewPage(items, total), nil
		},
	})
}
