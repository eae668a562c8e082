package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"ssal/internal/metrics"
	"ssal/internal/transport/handler"

	"github.com/gorilla/mux"
)

const (
	RouteSequencerSet        = "/client/sequencer-set"
	RouteRollupSet           = "/client/rollup-set"
	RouteLeader              = "/sequencer/leader"
	RouteRegisterSequencer   = "/sequencer/register"
	RouteDeregisterSequencer = "/sequencer/deregister"
	RouteRegisterRollup      = "/rollup/register"
	RouteDeregisterRollup    = "/rollup/deregister"
	RouteCloseBlock          = "/rollup/close-block"
	RouteBlock               = "/rollup/block"
)

func newRouter(log *slog.Logger, h *handler.Handlers, requestTimeout time.Duration) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(RouteSequencerSet, h.GetSequencerSet).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc(RouteRollupSet, h.GetRollupSet).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc(RouteLeader, h.GetLeader).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc(RouteRegisterSequencer, h.RegisterSequencer).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(RouteDeregisterSequencer, h.DeregisterSequencer).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(RouteRegisterRollup, h.RegisterRollup).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(RouteDeregisterRollup, h.DeregisterRollup).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(RouteCloseBlock, h.CloseBlock).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(RouteBlock, h.GetBlock).Methods(http.MethodGet, http.MethodOptions)

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)

	r.Use(
		metrics.Middleware,
		recoverMiddleware(log),
		mux.CORSMethodMiddleware(r),
		corsMiddleware,
		timeoutMiddleware(requestTimeout),
		accessLogMiddleware(log),
	)

	return r
}

func recoverMiddleware(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic in handler",
						"method", req.Method,
						"path", req.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					handler.WriteError(log, w, req, fmt.Errorf("panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, req)
		})
	}
}

// corsMiddleware allows any origin. Preflight requests stop here.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func timeoutMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func accessLogMiddleware(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			log.Debug("request served",
				"method", req.Method,
				"path", req.URL.Path,
				"remote", req.RemoteAddr,
				"took", time.Since(start),
			)
		})
	}
}
