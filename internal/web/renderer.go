package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

//go:embed templates
var embeddedTemplates embed.FS

// LayoutTemplate - корневой шаблон страницы. Страницы определяют блоки "title" и "content".
const LayoutTemplate = "layout"

// TemplateRenderer реализует gin render.HTMLRender поверх html/template.
// Каждая страница из pages/ парсится в отдельный набор вместе с layout.html и partials/,
// поэтому одноименные блоки разных страниц не конфликтуют.
// Имя с расширением .html - страница (рендерится через layout), иначе - частичный шаблон.
type TemplateRenderer struct {
	logger  *zap.Logger
	debug   bool   // Если true, шаблоны перечитываются с диска при каждом рендере
	dir     string // Каталог шаблонов для debug-режима
	funcMap template.FuncMap

	mu       sync.RWMutex
	pages    map[string]*template.Template
	partials *template.Template
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer создает рендерер. Пустой templateDir означает встроенные шаблоны.
func NewTemplateRenderer(templateDir string, logger *zap.Logger) (*TemplateRenderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &TemplateRenderer{
		logger:  logger.Named("TemplateRenderer"),
		debug:   templateDir != "",
		dir:     templateDir,
		funcMap: FuncMap(),
	}
	if err := r.loadTemplates(); err != nil {
		return nil, err
	}
	if r.debug {
		r.logger.Info("Templates loaded from disk, reloading on every render", zap.String("dir", templateDir))
	} else {
		r.logger.Info("Embedded templates loaded", zap.Int("pages", len(r.pages)))
	}
	return r, nil
}

func (t *TemplateRenderer) source() (fs.FS, error) {
	if t.debug {
		return os.DirFS(t.dir), nil
	}
	return fs.Sub(embeddedTemplates, "templates")
}

// loadTemplates парсит layout, частичные шаблоны и все страницы.
func (t *TemplateRenderer) loadTemplates() error {
	fsys, err := t.source()
	if err != nil {
		return fmt.Errorf("templates source: %w", err)
	}

	base, err := template.New("").Funcs(t.funcMap).ParseFS(fsys, "layout.html", "partials/*.html")
	if err != nil {
		t.logger.Error("Failed to parse layout and partials", zap.Error(err))
		return fmt.Errorf("failed to parse layout: %w", err)
	}

	pageFiles, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	if len(pageFiles) == 0 {
		return fmt.Errorf("no page templates found")
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		set, err := base.Clone()
		if err != nil {
			return fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := set.ParseFS(fsys, file); err != nil {
			t.logger.Error("Failed to parse page template", zap.String("page", file), zap.Error(err))
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[path.Base(file)] = set
	}

	t.mu.Lock()
	t.pages = pages
	t.partials = base
	t.mu.Unlock()
	return nil
}

// Instance реализует render.HTMLRender.
func (t *TemplateRenderer) Instance(name string, data any) render.Render {
	if t.debug {
		if err := t.loadTemplates(); err != nil {
			return errorRender{err: err}
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if strings.HasSuffix(name, ".html") {
		set, ok := t.pages[name]
		if !ok {
			t.logger.Error("Page template not found", zap.String("templateName", name))
			return errorRender{err: fmt.Errorf("template %s not found", name)}
		}
		return render.HTML{Template: set, Name: LayoutTemplate, Data: data}
	}

	if t.partials.Lookup(name) == nil {
		t.logger.Error("Partial template not found", zap.String("templateName", name))
		return errorRender{err: fmt.Errorf("template %s not found", name)}
	}
	return render.HTML{Template: t.partials, Name: name, Data: data}
}

// errorRender передает ошибку загрузки шаблона в gin, который кладет ее в c.Errors.
type errorRender struct {
	err error
}

func (e errorRender) Render(http.ResponseWriter) error { return e.err }

func (e errorRender) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}
