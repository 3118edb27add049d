package site

import (
	"bytes"
	"html/template"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<ul>{{range .Components}}
<li><a href='{{.Href}}'>{{.Name}}</a></li>{{end}}{{if .Components}}
{{end}}</ul>
</body>
</html>
`))

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p><a href='doc/index.html'>API documentation</a></p>
</body>
</html>
`))

func renderIndex(title string, components []Component) ([]byte, error) {
	return render(indexTemplate, struct {
		Title      string
		Components []Component
	}{title, components})
}

func renderLanding(title string) ([]byte, error) {
	return render(landingTemplate, struct{ Title string }{title})
}

func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "render page").
			WithContext("template", t.Name()).Build()
	}
	return buf.Bytes(), nil
}
