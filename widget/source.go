package widget

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

// Source produces the markup of a widget
type Source interface {
	Markup(spec Spec) (string, error)
}

// LocalSource reads pre-built <name>.html documents from a directory
type LocalSource struct {
	Dir string
}

// NewLocalSource creates a source reading from dir
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{Dir: dir}
}

// Markup reads <Dir>/<name>.html
func (s *LocalSource) Markup(spec Spec) (string, error) {
	path := filepath.Join(s.Dir, spec.Name+".html")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrWidgetNotFound, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

var assetTemplate = uritemplate.MustNew("{+base}/widgets/{name}.{ext}")

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.StyleURL}}">
</head>
<body>
<div id="widget-root"></div>
<script type="module" src="{{.ScriptURL}}"></script>
</body>
</html>
`))

// RemoteSource generates an HTML shell that loads the widget bundle from a
// remote asset host
type RemoteSource struct {
	BaseURL string
}

// NewRemoteSource creates a source pointing at baseURL
func NewRemoteSource(baseURL string) *RemoteSource {
	return &RemoteSource{BaseURL: strings.TrimRight(baseURL, "/")}
}

// AssetURL returns the URL of a widget asset with the given extension
func (s *RemoteSource) AssetURL(name, ext string) (string, error) {
	values := uritemplate.Values{}
	values.Set("base", uritemplate.String(strings.TrimRight(s.BaseURL, "/")))
	values.Set("name", uritemplate.String(name))
	values.Set("ext", uritemplate.String(ext))
	return assetTemplate.Expand(values)
}

// Markup renders the HTML shell for spec
func (s *RemoteSource) Markup(spec Spec) (string, error) {
	if s.BaseURL == "" {
		return "", errors.New("remote widget source: empty base url")
	}

	scriptURL, err := s.AssetURL(spec.Name, "js")
	if err != nil {
		return "", fmt.Errorf("expanding script url: %w", err)
	}
	styleURL, err := s.AssetURL(spec.Name, "css")
	if err != nil {
		return "", fmt.Errorf("expanding style url: %w", err)
	}

	var buf bytes.Buffer
	err = shellTemplate.Execute(&buf, struct {
		Title     string
		ScriptURL string
		StyleURL  string
	}{
		Title:     spec.Title,
		ScriptURL: scriptURL,
		StyleURL:  styleURL,
	})
	if err != nil {
		return "", fmt.Errorf("rendering %s shell: %w", spec.Name, err)
	}
	return buf.String(), nil
}
