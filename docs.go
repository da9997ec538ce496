package bapi

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/cockroachdb/errors"
	"sigs.k8s.io/yaml"
)

// Names of the documentation routes.
const (
	RouteOpenAPIYAML = "openapi_yaml"
	RouteOpenAPIJSON = "openapi_json"
	RouteSwaggerUI   = "swaggerui"
	RouteReDoc       = "redoc"
)

var docsTemplates = template.Must(template.New("docs").Parse(`
{{define "swaggerui"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.onload = function () {
      window.ui = SwaggerUIBundle({ url: {{.SpecURL}}, dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
{{end}}
{{define "redoc"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>body { margin: 0; padding: 0; }</style>
</head>
<body>
  <redoc spec-url="{{.SpecURL}}"></redoc>
  <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>
{{end}}`))

func (rt *Router) handleDocs() {
	rt.mux.HandleFunc("GET /openapi.yaml", func(_ context.Context, w ResponseWriter, r *http.Request) error {
		doc, err := rt.OpenAPI(ServerURL(r))
		if err != nil {
			return errors.Wrap(err, "describe api")
		}

		data, err := yaml.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "encode yaml")
		}

		w.Header().Set("Content-Type", MediaTypeYAML)
		_, err = w.Write(data)
		return err
	}, RouteOpenAPIYAML)

	rt.mux.HandleFunc("GET /openapi.json", func(_ context.Context, w ResponseWriter, r *http.Request) error {
		doc, err := rt.OpenAPI(ServerURL(r))
		if err != nil {
			return errors.Wrap(err, "describe api")
		}

		data, err := json.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "encode json")
		}

		w.Header().Set("Content-Type", MediaTypeJSON)
		_, err = w.Write(data)
		return err
	}, RouteOpenAPIJSON)

	rt.mux.HandleFunc("GET /docs/{$}", rt.docsPage("swaggerui"), RouteSwaggerUI)
	rt.mux.HandleFunc("GET /redoc/{$}", rt.docsPage("redoc"), RouteReDoc)
}

func (rt *Router) docsPage(tmpl string) HandlerFunc {
	return func(_ context.Context, w ResponseWriter, _ *http.Request) error {
		specURL, err := rt.Reverse(RouteOpenAPIJSON)
		if err != nil {
			return err
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		return docsTemplates.ExecuteTemplate(w, tmpl, struct {
			Title   string
			SpecURL string
		}{rt.title, specURL})
	}
}
