package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"supplysphere/internal/core/config"
	"supplysphere/internal/core/logger"
	"supplysphere/internal/core/server"
)

// Serve 阻塞直到 ctx 结束，然后优雅关闭（最多 10s）
func Serve(ctx context.Context, name string, h http.Handler, hc config.HTTP, l *zap.Logger) error {
	addr := server.Addr(hc.Host, hc.Port)
	srv := server.BuildServer(
		addr, h,
		time.Duration(hc.ReadTimeoutSec)*time.Second,
		time.Duration(hc.WriteTimeoutSec)*time.Second,
		time.Duration(hc.IdleTimeoutSec)*time.Second,
	)
	if el, err := logger.ToStdLogger(l, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = el
	}

	base := server.HumanURL(hc.Host, hc.Port)
	l.Info(name+" starting",
		zap.String("addr", addr),
		zap.String("open", base),
		zap.String("health", base+"/health"),
		zap.String("metrics", base+"/metrics"),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	l.Info(name + " stopped gracefully")
	return nil
}
