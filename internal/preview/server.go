// Package preview serves rendered views over HTTP for interactive display.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mmitucha/compactmapper/internal/export"
	"github.com/mmitucha/compactmapper/internal/render"
)

// Rendering a view is CPU bound; uncached renders are rate limited.
const (
	renderRate  = rate.Limit(2)
	renderBurst = 8
)

// Server renders views on demand and caches the images.
type Server struct {
	rc      *render.Context
	view    render.View
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[render.View][]byte
}

// New returns a server whose index shows view.
func New(rc *render.Context, view render.View) *Server {
	return &Server{
		rc:      rc,
		view:    view,
		limiter: rate.NewLimiter(renderRate, renderBurst),
		cache:   make(map[render.View][]byte),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", s.handleIndex)
	r.With(s.throttle).Get("/view/{view}.png", s.handleImage)
	r.With(s.throttle).Get("/chart/{view}", s.handleChart)
	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.rc.Report)
	})
	r.Get("/api/samples.geojson", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		if err := export.WriteGeoJSON(w, s.rc.Dataset, s.rc.Categories); err != nil {
			zap.L().Error("preview: geojson", zap.Error(err))
		}
	})
	return r
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Source}} - {{.View}}</title></head>
<body>
<h1>{{.Status}}</h1>
<p>{{.Source}}: {{.Total}} points</p>
<nav>{{range .Views}}<a href="/chart/{{.}}">{{.}}</a> {{end}}</nav>
<img src="/view/{{.View}}.png" alt="{{.View}}" style="max-width:100%">
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTmpl.Execute(w, map[string]interface{}{
		"Source": s.rc.Report.Source,
		"Total":  s.rc.Report.Total,
		"Status": s.rc.Report.Status(),
		"View":   s.view,
		"Views":  render.Views,
	})
	if err != nil {
		zap.L().Error("preview: index", zap.Error(err))
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	view, err := render.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	img, err := s.image(view)
	if err != nil {
		zap.L().Error("preview: render", zap.String("view", string(view)), zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(len(img)))
	w.Write(img)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	view, err := render.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := render.Interactive(s.rc, view, &buf); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// Warm renders views concurrently ahead of the first request.
func (s *Server) Warm(views ...render.View) error {
	var g errgroup.Group
	for _, v := range views {
		g.Go(func() error {
			if _, err := s.image(v); err != nil {
				return eris.Wrapf(err, "preview: warm %s", v)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Server) cached(view render.View) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.cache[view]
	return img, ok
}

// image returns the PNG for view, rendering it on first use. Concurrent
// first requests may render twice; the last one wins.
func (s *Server) image(view render.View) ([]byte, error) {
	if img, ok := s.cached(view); ok {
		return img, nil
	}
	var buf bytes.Buffer
	if err := render.Render(s.rc, view, &buf, "png"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[view] = buf.Bytes()
	s.mu.Unlock()
	return buf.Bytes(), nil
}

// throttle rejects renders beyond the limiter's budget. Cached images are
// always served.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if view, err := render.ParseView(chi.URLParam(r, "view")); err == nil && strings.HasSuffix(r.URL.Path, ".png") {
			if _, ok := s.cached(view); ok {
				next.ServeHTTP(w, r)
				return
			}
		}
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "render rate exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve listens on addr until ctx is cancelled. ready, when non-nil,
// receives the bound address once the listener is open.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return eris.Wrapf(err, "preview: listen %s", addr)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("preview server listening", zap.String("url", "http://"+ln.Addr().String()+"/"))
	if ready != nil {
		ready(ln.Addr())
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "preview: serve")
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("preview request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
