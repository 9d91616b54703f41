package echoweb

import (
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kenova/core"
	appfs "github.com/trezcool/kenova/fs"
)

const webTemplatesDir = "templates/web"

type (
	templateRenderer struct {
		templates map[string]*template.Template
	}

	// pageData is what every page template receives.
	pageData struct {
		AppName string
		Title   string
		User    *Identity
		Flashes []string
		Data    interface{}
	}
)

var _ echo.Renderer = (*templateRenderer)(nil)

// newTemplateRenderer parses every page of templates/web together with _base.gohtml.
func newTemplateRenderer(conf *core.Config) *templateRenderer {
	fps, err := fs.Glob(appfs.FS, path.Join(webTemplatesDir, "*.gohtml"))
	if err != nil {
		panic(errors.Wrap(err, "listing web templates"))
	}

	r := &templateRenderer{templates: make(map[string]*template.Template, len(fps))}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl := template.Must(template.ParseFS(appfs.FS, path.Join(webTemplatesDir, "_base.gohtml"), fp))
		if conf.Debug || conf.TestMode {
			tmpl = tmpl.Option("missingkey=error")
		}
		r.templates[strings.TrimSuffix(fname, ".gohtml")] = tmpl
	}
	return r
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// render renders the page template name with the caller identity and pending flashes.
func render(ctx echo.Context, conf *core.Config, code int, name, title string, data interface{}) error {
	pd := pageData{
		AppName: conf.AppName,
		Title:   title,
		Flashes: popFlashes(ctx, conf),
		Data:    data,
	}
	if id, ok := getContextIdentity(ctx); ok {
		pd.User = &id
	}
	return ctx.Render(code, name, pd)
}
