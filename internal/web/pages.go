package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chuxorg/chux-travel/internal/dom"
	"github.com/chuxorg/chux-travel/internal/logging"
	"github.com/chuxorg/chux-travel/internal/page"
)

const stylesheet = `
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 24px auto; padding: 0 16px; }
label { display: block; margin-top: 8px; }
input, textarea, select { width: 100%; box-sizing: border-box; padding: 6px; }
input[type=checkbox] { width: auto; }
button, a.button { margin: 8px 8px 0 0; padding: 6px 12px; }
.card { border: 1px solid #ddd; border-radius: 8px; padding: 12px; margin: 12px 0; }
.muted { color: #666; }
.error { color: #b00020; white-space: pre-wrap; }
.ok { color: #1b7f3b; }
.pill { border: 1px solid #ccc; border-radius: 999px; padding: 2px 8px; margin-left: 8px; font-size: 12px; }
`

func newDocument() *dom.Document {
	doc := dom.NewDocument("")
	doc.Append(doc.Head(),
		doc.El("meta", dom.Attrs{"name": "viewport", "content": "width=device-width, initial-scale=1"}),
		doc.El("style", nil, stylesheet),
	)
	return doc
}

func (s *Server) options() page.Options {
	return page.Options{
		Logger:  s.logger,
		Metrics: s.metrics,
	}
}

func (s *Server) listPage(c *gin.Context) {
	ctx := c.Request.Context()
	doc := newDocument()
	p := page.NewListPage(doc, page.ListConfig{API: s.backend, Options: s.options()})
	defer p.Close()

	p.Init(ctx)
	s.render(c, doc, s.submit(c, doc))
}

func (s *Server) detailPage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.String(http.StatusNotFound, "unknown project %q", c.Param("id"))
		return
	}

	ctx := c.Request.Context()
	doc := newDocument()
	p := page.NewDetailPage(doc, page.DetailConfig{API: s.backend, ProjectID: id, Options: s.options()})
	defer p.Close()

	p.Init(ctx)
	s.render(c, doc, s.submit(c, doc))
}

// submit replays a posted form onto doc and returns the status to render
// with. GET requests and successful dispatches render 200.
func (s *Server) submit(c *gin.Context, doc *dom.Document) int {
	if c.Request.Method != http.MethodPost {
		return http.StatusOK
	}
	if err := c.Request.ParseForm(); err != nil {
		return http.StatusBadRequest
	}
	values := c.Request.PostForm
	target := values.Get(page.TargetField)
	if target == "" {
		return http.StatusBadRequest
	}
	values.Del(page.TargetField)

	err := doc.Submit(c.Request.Context(), target, values)
	if errors.Is(err, dom.ErrNoTarget) {
		logging.WithRequest(c.Request.Context(), s.logger).Info("submitted action no longer on page", zap.String("target", target))
		return http.StatusNotFound
	}
	if err != nil {
		_ = c.Error(err)
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

func (s *Server) render(c *gin.Context, doc *dom.Document, status int) {
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "render page: %v", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
