package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/obliquemerc/internal/adapters/http"
	"github.com/samirrijal/obliquemerc/internal/adapters/render"
	"github.com/samirrijal/obliquemerc/internal/core/domain"
	"github.com/samirrijal/obliquemerc/internal/core/ports"
	"github.com/samirrijal/obliquemerc/internal/core/usecases"
	"github.com/samirrijal/obliquemerc/internal/pkg/logging"
)

// ---- Mock repositories ----

type mockHistory struct {
	records []domain.RenderRecord
}

func (m *mockHistory) Insert(ctx context.Context, rec *domain.RenderRecord) error {
	m.records = append([]domain.RenderRecord{*rec}, m.records...)
	return nil
}

func (m *mockHistory) ListRecent(ctx context.Context, offset, limit int) ([]domain.RenderRecord, int, error) {
	total := len(m.records)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return m.records[offset:end], total, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func newService(opts usecases.ProjectionOptions, hist *mockHistory) *usecases.ProjectionService {
	var history ports.RenderRepository
	if hist != nil {
		history = hist
	}
	return usecases.NewProjectionService(opts, nil, nil, history, render.NewPNG(320, 240, 10, 1), render.GeoJSON{})
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Projections: newService(usecases.ProjectionOptions{}, nil),
		Defaults:    domain.DefaultScenario(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func get(t *testing.T, app *fiber.App, target string) (int, []byte, map[string]string) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp.Body)
	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, body, headers
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ---- Pole handler tests ----

func TestPole_Defaults(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/pole")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result handler.PoleResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if !near(result.Pole.Lat, -55.59221449683429) || !near(result.Pole.Lon, 130) {
		t.Errorf("unexpected pole %+v", result.Pole)
	}
	if result.Undefined {
		t.Error("expected a defined pole")
	}
	if result.ArcDegrees <= 0 || result.ArcDegrees >= 180 {
		t.Errorf("expected reference arc in (0, 180), got %v", result.ArcDegrees)
	}
}

func TestPole_SwappedPointsGiveAntipode(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/pole?lat1=34&lon1=120&lat2=34&lon2=140")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result handler.PoleResponse
	json.Unmarshal(body, &result)
	if !near(result.Pole.Lat, 55.59221449683429) || !near(result.Pole.Lon, -50) {
		t.Errorf("unexpected pole %+v", result.Pole)
	}
}

func TestPole_CoincidentPointsArePermissive(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/pole?lat1=34&lon1=140&lat2=34&lon2=140")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result map[string]interface{}
	json.Unmarshal(body, &result)
	if result["undefined"] != true {
		t.Errorf("expected undefined pole, got %v", result["undefined"])
	}
	pole := result["pole"].(map[string]interface{})
	if pole["lat"] != nil || pole["lon"] != nil {
		t.Errorf("expected null pole coordinates, got %v", pole)
	}
}

func TestPole_CoincidentPointsRejectedWhenValidating(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Projections = newService(usecases.ProjectionOptions{ValidateReference: true}, nil)
	})
	app := setupApp(deps)

	status, body, _ := get(t, app, "/v1/pole?lat1=34&lon1=140&lat2=34&lon2=140")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}

	var apiErr handler.APIError
	json.Unmarshal(body, &apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request, got %q", apiErr.Code)
	}
}

func TestPole_MalformedNumber(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/pole?lat1=north")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(string(body), "lat1") {
		t.Errorf("expected error to name lat1, got %s", body)
	}
}

// ---- Projection handler tests ----

type projectionBody struct {
	Pole    domain.Pole          `json:"pole"`
	Rotated domain.GeoGrid       `json:"rotated"`
	Mesh    domain.ProjectedMesh `json:"mesh"`
	Invalid int                  `json:"invalid_points"`
}

func TestProjection_Defaults(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, headers := get(t, app, "/v1/projection")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var p projectionBody
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatal(err)
	}
	if rows, cols := p.Mesh.Shape(); rows != 11 || cols != 11 {
		t.Errorf("expected 11x11 mesh, got %dx%d", rows, cols)
	}
	if p.Invalid != 0 {
		t.Errorf("expected no invalid points, got %d", p.Invalid)
	}
	if headers["X-Invalid-Points"] != "0" {
		t.Errorf("expected X-Invalid-Points 0, got %q", headers["X-Invalid-Points"])
	}
	if headers["Cache-Control"] != "public, max-age=3600, immutable" {
		t.Errorf("unexpected Cache-Control %q", headers["Cache-Control"])
	}
	for _, row := range p.Rotated {
		for _, pt := range row {
			if pt.Lon < -180 || pt.Lon >= 180 {
				t.Fatalf("rotated longitude %v outside [-180, 180)", pt.Lon)
			}
		}
	}
}

func TestProjection_RowsFollowLongitudeSamples(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/projection?lat_samples=3&lon_samples=4")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var p projectionBody
	json.Unmarshal(body, &p)
	if rows, cols := p.Mesh.Shape(); rows != 4 || cols != 3 {
		t.Errorf("expected 4x3 mesh, got %dx%d", rows, cols)
	}
}

func TestProjection_InvalidScenario(t *testing.T) {
	app := setupApp(makeDeps())

	for _, q := range []string{
		"/v1/projection?lat_samples=1",
		"/v1/projection?lat_max=90",
		"/v1/projection?lon_min=170&lon_max=160",
		"/v1/projection?lat_samples=ten",
		"/v1/projection?lat_samples=4294967296&lon_samples=4294967296",
		"/v1/projection.png?lat_samples=4611686018427387904&lon_samples=4",
		"/v1/projection.geojson?lat_samples=501&lon_samples=500",
	} {
		status, _, _ := get(t, app, q)
		if status != 400 {
			t.Errorf("%s: expected 400, got %d", q, status)
		}
	}
}

func TestProjection_DegenerateReferenceGivesEmptyMesh(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, headers := get(t, app, "/v1/projection?lat1=34&lon1=140&lat2=34&lon2=140&lat_samples=2&lon_samples=2")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var p projectionBody
	json.Unmarshal(body, &p)
	if p.Invalid != 4 {
		t.Errorf("expected all 4 points invalid, got %d", p.Invalid)
	}
	if headers["X-Invalid-Points"] != "4" {
		t.Errorf("expected X-Invalid-Points 4, got %q", headers["X-Invalid-Points"])
	}
}

// ---- Render handler tests ----

func TestRenderPNG(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, headers := get(t, app, "/v1/projection.png")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if headers["Content-Type"] != "image/png" {
		t.Errorf("expected image/png, got %q", headers["Content-Type"])
	}

	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("expected 320x240 image, got %v", b)
	}
}

func TestRenderGeoJSON(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, headers := get(t, app, "/v1/projection.geojson?lat_samples=3&lon_samples=4")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if headers["Content-Type"] != "application/geo+json" {
		t.Errorf("expected application/geo+json, got %q", headers["Content-Type"])
	}

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(body, &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %q", fc.Type)
	}
	// 4 rows + 3 columns
	if len(fc.Features) != 7 {
		t.Errorf("expected 7 features, got %d", len(fc.Features))
	}
}

func TestFormats(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/formats")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var result struct {
		Formats []string `json:"formats"`
	}
	json.Unmarshal(body, &result)
	if strings.Join(result.Formats, ",") != "geojson,png" {
		t.Errorf("expected geojson,png, got %v", result.Formats)
	}
}

// ---- History handler tests ----

func TestRenders_Disabled(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, _ := get(t, app, "/v1/renders")
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
}

func TestRenders_ListsRecordedRenders(t *testing.T) {
	hist := &mockHistory{}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Projections = newService(usecases.ProjectionOptions{}, hist)
	})
	app := setupApp(deps)

	for _, q := range []string{
		"/v1/projection.png?lat_samples=3",
		"/v1/projection.geojson?lat_samples=4",
		"/v1/projection.png?lat_samples=5",
	} {
		if status, _, _ := get(t, app, q); status != 200 {
			t.Fatalf("%s: expected 200, got %d", q, status)
		}
	}

	status, body, headers := get(t, app, "/v1/renders?offset=0&limit=2")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result struct {
		Data       []domain.RenderRecord `json:"data"`
		Pagination handler.Pagination    `json:"pagination"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 records in page, got %d", len(result.Data))
	}
	if result.Data[0].Scenario.LatSamples != 5 || result.Data[0].Format != domain.FormatPNG {
		t.Errorf("expected newest render first, got %+v", result.Data[0])
	}
	if !strings.Contains(headers["Link"], `rel="next"`) {
		t.Errorf("expected next link, got %q", headers["Link"])
	}
	if headers["Cache-Control"] != "no-cache" {
		t.Errorf("expected no-cache, got %q", headers["Cache-Control"])
	}
}

// ---- GraphQL tests ----

func postGraphQL(t *testing.T, app *fiber.App, query string) map[string]interface{} {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if errs, ok := result["errors"]; ok {
		t.Fatalf("graphql errors: %v", errs)
	}
	return result["data"].(map[string]interface{})
}

func TestGraphQL_Pole(t *testing.T) {
	app := setupApp(makeDeps())

	data := postGraphQL(t, app, `{ pole(lat1: 34, lon1: 140, lat2: 34, lon2: 120) { lat lon undefined } }`)
	pole := data["pole"].(map[string]interface{})
	if !near(pole["lat"].(float64), -55.59221449683429) {
		t.Errorf("unexpected pole latitude %v", pole["lat"])
	}
	if pole["undefined"] != false {
		t.Errorf("expected defined pole, got %v", pole["undefined"])
	}
}

func TestGraphQL_UndefinedPoleIsNull(t *testing.T) {
	app := setupApp(makeDeps())

	data := postGraphQL(t, app, `{ pole(lat1: 10, lon1: 20, lat2: 10, lon2: 20) { lat lon undefined } }`)
	pole := data["pole"].(map[string]interface{})
	if pole["lat"] != nil || pole["lon"] != nil {
		t.Errorf("expected null coordinates, got %v", pole)
	}
	if pole["undefined"] != true {
		t.Errorf("expected undefined pole, got %v", pole["undefined"])
	}
}

func TestGraphQL_Projection(t *testing.T) {
	app := setupApp(makeDeps())

	data := postGraphQL(t, app, `{ projection(latSamples: 3, lonSamples: 4) { rows cols invalidPoints mesh { x y } rotated { lat lon } } }`)
	p := data["projection"].(map[string]interface{})
	if p["rows"].(float64) != 4 || p["cols"].(float64) != 3 {
		t.Errorf("expected 4x3, got %vx%v", p["rows"], p["cols"])
	}
	if p["invalidPoints"].(float64) != 0 {
		t.Errorf("expected no invalid points, got %v", p["invalidPoints"])
	}
	mesh := p["mesh"].([]interface{})
	if len(mesh) != 4 || len(mesh[0].([]interface{})) != 3 {
		t.Errorf("unexpected mesh shape")
	}
}

func TestGraphQL_Formats(t *testing.T) {
	app := setupApp(makeDeps())

	data := postGraphQL(t, app, `{ formats }`)
	formats := data["formats"].([]interface{})
	if len(formats) != 2 {
		t.Errorf("expected 2 formats, got %v", formats)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/health")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result map[string]interface{}
	json.Unmarshal(body, &result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_OptionalServicesNotConfigured(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/ready")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.Unmarshal(body, &result)
	if result.Checks["database"] != "not configured" {
		t.Errorf("expected database not configured, got %q", result.Checks["database"])
	}
}

func TestReady_NoProjectionService(t *testing.T) {
	app := setupApp(&handler.Dependencies{Defaults: domain.DefaultScenario()})

	status, _, _ := get(t, app, "/v1/ready")
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
}

func TestReady_NoRenderers(t *testing.T) {
	svc := usecases.NewProjectionService(usecases.ProjectionOptions{}, nil, nil, nil)
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Projections = svc }))

	status, body, _ := get(t, app, "/v1/ready")
	if status != 503 {
		t.Fatalf("expected 503, got %d: %s", status, body)
	}
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.Unmarshal(body, &result)
	if !strings.HasPrefix(result.Checks["projection"], "error:") {
		t.Errorf("expected projection check to fail, got %q", result.Checks["projection"])
	}
}

func TestCacheControl_NotSetOnErrors(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, headers := get(t, app, "/v1/projection.png?lat_samples=0")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if headers["Cache-Control"] != "" {
		t.Errorf("expected no Cache-Control on an error, got %q", headers["Cache-Control"])
	}
}

func TestWebSocket_NotRoutedWithoutNATS(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, _ := get(t, app, "/ws")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

// ---- Middleware tests ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, headers := get(t, app, "/v1/health")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if v := headers["X-Api-Version"]; v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	_, _, headers := get(t, app, "/v1/pole")
	etag := headers["Etag"]
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/pole", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestETag_ProjectionSkipsRenderWhenClientIsCurrent(t *testing.T) {
	hist := &mockHistory{}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Projections = newService(usecases.ProjectionOptions{}, hist)
	}))

	status, _, headers := get(t, app, "/v1/projection.png?lat_samples=4")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	etag := headers["Etag"]
	if etag == "" || strings.HasPrefix(etag, "W/") {
		t.Fatalf("expected a strong ETag, got %q", etag)
	}

	req := httptest.NewRequest("GET", "/v1/projection.png?lat_samples=4", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
	if len(hist.records) != 1 {
		t.Errorf("expected the second request to skip rendering, history has %d entries", len(hist.records))
	}

	_, _, other := get(t, app, "/v1/projection.png?lat_samples=5")
	if other["Etag"] == etag {
		t.Error("different scenarios share an ETag")
	}
	_, _, geo := get(t, app, "/v1/projection.geojson?lat_samples=4")
	if geo["Etag"] == etag {
		t.Error("different formats share an ETag")
	}
}

func TestETag_NotSetOnErrors(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, headers := get(t, app, "/v1/projection?lat_samples=1")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if headers["Etag"] != "" {
		t.Errorf("expected no ETag on a rejected scenario, got %q", headers["Etag"])
	}
}

func TestRenders_MalformedPaging(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Projections = newService(usecases.ProjectionOptions{}, &mockHistory{})
	}))

	for _, q := range []string{"/v1/renders?limit=ten", "/v1/renders?offset=-x"} {
		if status, _, _ := get(t, app, q); status != 400 {
			t.Errorf("%s: expected 400, got %d", q, status)
		}
	}

	status, body, _ := get(t, app, "/v1/renders?offset=-3&limit=1000")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var page handler.RenderPage
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatal(err)
	}
	if page.Pagination.Offset != 0 || page.Pagination.Limit != domain.DefaultPageLimit {
		t.Errorf("expected clamped window, got %+v", page.Pagination)
	}
}

// captureLogs routes the default logger into a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "debug", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// accessLine returns the access log entry whose message is msg.
func accessLine(t *testing.T, buf *bytes.Buffer, msg string) map[string]interface{} {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		if json.Unmarshal([]byte(line), &entry) == nil && entry["msg"] == msg {
			return entry
		}
	}
	t.Fatalf("no log entry %q in:\n%s", msg, buf.String())
	return nil
}

func TestAccessLog_ProjectionFields(t *testing.T) {
	buf := captureLogs(t)
	app := setupApp(makeDeps())

	if status, _, _ := get(t, app, "/v1/projection?lat1=34&lon1=140&lat2=34&lon2=140"); status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	entry := accessLine(t, buf, "GET /v1/projection")
	if entry["scenario"] == nil || entry["scenario"] == "" {
		t.Errorf("expected scenario key, got %v", entry)
	}
	if entry["invalid_points"] != float64(121) {
		t.Errorf("expected 121 invalid points, got %v", entry["invalid_points"])
	}
	if entry["request_id"] == nil {
		t.Errorf("expected request_id from the request logger, got %v", entry)
	}

	buf.Reset()
	if status, _, _ := get(t, app, "/v1/projection.geojson?lat_samples=3"); status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	entry = accessLine(t, buf, "GET /v1/projection.geojson")
	if entry["format"] != "geojson" {
		t.Errorf("expected format geojson, got %v", entry["format"])
	}
}

func TestAccessLog_WarnsOnClientErrors(t *testing.T) {
	buf := captureLogs(t)
	app := setupApp(makeDeps())

	get(t, app, "/v1/pole?lat1=north")
	entry := accessLine(t, buf, "GET /v1/pole")
	if entry["level"] != "WARN" || entry["status"] != float64(400) {
		t.Errorf("expected WARN with status 400, got %v", entry)
	}
	if _, ok := entry["scenario"]; ok {
		t.Error("pole requests carry no scenario")
	}
}
