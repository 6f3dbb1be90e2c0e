package http_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/samirrijal/poimap/internal/adapters/http"
)

// findOpenAPISpec walks up from the test directory to api/openapi.yaml.
func findOpenAPISpec(t *testing.T) string {
	t.Helper()
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	spec, err := handler.LoadSpec(context.Background(), findOpenAPISpec(t))
	require.NoError(t, err)
	return spec
}

func TestOpenAPISpec(t *testing.T) {
	spec := loadSpec(t)

	for _, path := range []string{
		"/v1/health",
		"/v1/ready",
		"/v1/poi",
		"/v1/poi/{id}",
		"/v1/poi/{id}/popup",
		"/v1/categories",
		"/v1/stats/category/{category}",
		"/v1/map/pois",
		"/v1/map/pois.geojson",
		"/v1/map/tiles/{z}/{x}/{y}",
		"/v1/map/radius",
		"/v1/map/zoom",
		"/v1/map/config",
		"/graphql",
	} {
		assert.NotNil(t, spec.Paths.Find(path), "path %s", path)
	}

	for _, schema := range []string{
		"PointOfInterest",
		"PointOfInterestInput",
		"Location",
		"Viewport",
		"ZoomRadius",
		"MapConfig",
		"FeatureCollection",
		"APIError",
	} {
		assert.NotNil(t, spec.Components.Schemas[schema], "schema %s", schema)
	}
}

func TestOpenAPIInfo(t *testing.T) {
	spec := loadSpec(t)

	assert.Equal(t, "POI Map API", spec.Info.Title)
	assert.Equal(t, "1.0.0", spec.Info.Version)
	assert.NotEmpty(t, spec.Info.Description)
	assert.NotEmpty(t, spec.Servers)
}

var routeParam = regexp.MustCompile(`:([a-z]+)`)

// Every versioned route the router registers is documented.
func TestOpenAPICoversRoutes(t *testing.T) {
	spec := loadSpec(t)
	app := setupApp(makeDeps(t))

	for _, r := range app.GetRoutes(true) {
		if !strings.HasPrefix(r.Path, "/v1/") || r.Method == "HEAD" {
			continue
		}
		path := routeParam.ReplaceAllString(r.Path, "{$1}")
		item := spec.Paths.Find(path)
		if !assert.NotNil(t, item, "route %s %s is undocumented", r.Method, r.Path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(r.Method), "method %s %s is undocumented", r.Method, path)
	}
}

func TestDocsEndpoints(t *testing.T) {
	app := setupApp(makeDeps(t, func(d *handler.Dependencies) {
		d.SpecPath = findOpenAPISpec(t)
	}))

	status, body, headers := do(t, app, "GET", "/docs", "")
	assert.Equal(t, 200, status)
	assert.Contains(t, headers["Content-Type"], "text/html")
	assert.Contains(t, string(body), "/docs/openapi.json")

	status, body, headers = do(t, app, "GET", "/docs/openapi.yaml", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "application/yaml", headers["Content-Type"])
	assert.Contains(t, string(body), "title: POI Map API")

	status, body, _ = do(t, app, "GET", "/docs/openapi.json", "")
	require.Equal(t, 200, status)
	doc := decode[map[string]any](t, body)
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestDocsEndpoints_MissingSpec(t *testing.T) {
	app := setupApp(makeDeps(t, func(d *handler.Dependencies) {
		d.SpecPath = filepath.Join(t.TempDir(), "missing.yaml")
	}))

	status, _, _ := do(t, app, "GET", "/docs/openapi.json", "")
	assert.Equal(t, 404, status)
}
