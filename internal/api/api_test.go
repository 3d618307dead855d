package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/joeblew999/plat-heatmap/internal/channel"
	"github.com/joeblew999/plat-heatmap/internal/codec"
	"github.com/joeblew999/plat-heatmap/internal/humastar"
	"github.com/joeblew999/plat-heatmap/internal/platform"
	"github.com/joeblew999/plat-heatmap/internal/service"
)

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()
	config := huma.DefaultConfig("test", "1.0.0")
	config.CreateHooks = nil
	config.Transformers = append(config.Transformers, LinkTransformer(), humastar.ActionTransformer())
	_, api := humatest.New(t, config)

	bus := service.NewEventBus()
	svc := &Services{
		Maps:    service.NewMapService(bus, nil),
		Library: service.NewLibraryService(t.TempDir(), bus, nil),
		Points:  service.NewPointService(nil, nil),
		Bus:     bus,
	}
	t.Cleanup(svc.Maps.Close)
	huma.AutoRegister(api, NewAPIHandler(svc))
	return api, svc
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decoding %s: %v", b, err)
	}
	return v
}

func createMap(t *testing.T, api humatest.TestAPI) string {
	t.Helper()
	resp := api.Post("/api/v1/maps", map[string]any{"name": "test"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create map: %d %s", resp.Code, resp.Body.String())
	}
	return decode[service.MapInfo](t, resp.Body.Bytes()).ID
}

func heatmapJSON(id string, points int, extra map[string]any) map[string]any {
	data := []map[string]any{}
	for i := 0; i < points; i++ {
		data = append(data, map[string]any{"lat": float64(i), "lng": float64(i)})
	}
	h := map[string]any{"id": id, "data": data}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	if links := resp.Header().Values("Link"); !slices.Contains(links, `</api/v1/maps>; rel="maps"`) {
		t.Errorf("links=%v", links)
	}
}

func TestMaps_CRUD(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createMap(t, api)

	resp := api.Get("/api/v1/maps/" + id)
	if resp.Code != http.StatusOK {
		t.Fatalf("get: %d", resp.Code)
	}
	links := strings.Join(resp.Header().Values("Link"), "\n")
	if !strings.Contains(links, `</api/v1/maps/`+id+`/heatmaps>; rel="heatmaps"; method="PUT"`) {
		t.Errorf("action links missing:\n%s", links)
	}

	if list := decode[[]service.MapInfo](t, api.Get("/api/v1/maps").Body.Bytes()); len(list) != 1 {
		t.Errorf("list=%v", list)
	}
	if resp := api.Delete("/api/v1/maps/" + id); resp.Code != http.StatusOK {
		t.Errorf("delete: %d", resp.Code)
	}
	if resp := api.Get("/api/v1/maps/" + id); resp.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", resp.Code)
	}
}

func TestHeatmaps_Declare(t *testing.T) {
	api, svc := newTestAPI(t)
	id := createMap(t, api)
	path := "/api/v1/maps/" + id + "/heatmaps"

	resp := api.Put(path, map[string]any{"heatmaps": []any{heatmapJSON("h1", 3, nil)}})
	if resp.Code != http.StatusOK {
		t.Fatalf("put: %d %s", resp.Code, resp.Body.String())
	}
	changes := decode[service.ChangesBody](t, resp.Body.Bytes())
	if !slices.Equal(changes.Added, []string{"h1"}) {
		t.Errorf("changes=%+v", changes)
	}

	resp = api.Put(path, map[string]any{"heatmaps": []any{heatmapJSON("h1", 3, map[string]any{"opacity": 0.9})}})
	changes = decode[service.ChangesBody](t, resp.Body.Bytes())
	if !slices.Equal(changes.Changed, []string{"h1"}) || len(changes.Added) != 0 {
		t.Errorf("changes=%+v", changes)
	}

	got := decode[service.HeatmapBody](t, api.Get(path+"/h1").Body.Bytes())
	if *got.Opacity != 0.9 || len(got.Data) != 3 || *got.Radius != 20 {
		t.Errorf("heatmap=%+v", got)
	}

	style := decode[StyleBody](t, api.Get(path+"/h1/style").Body.Bytes())
	if style.Layer.Paint["heatmap-opacity"] != 0.9 {
		t.Errorf("style=%+v", style.Layer)
	}

	tile := api.Get(path + "/h1/tiles/0/0/0")
	if tile.Code != http.StatusOK || tile.Body.Len() == 0 {
		t.Fatalf("tile: %d len=%d", tile.Code, tile.Body.Len())
	}
	if ct := tile.Header().Get("Content-Type"); ct != platform.TileContentType() {
		t.Errorf("content type=%q", ct)
	}

	resp = api.Put(path, map[string]any{"heatmaps": []any{}})
	changes = decode[service.ChangesBody](t, resp.Body.Bytes())
	if !slices.Equal(changes.Removed, []string{"h1"}) {
		t.Errorf("changes=%+v", changes)
	}
	if info, _ := svc.Maps.Get(id); len(info.Heatmaps) != 0 || info.Overlays != 0 {
		t.Errorf("platform still holds %+v", info)
	}
}

func TestHeatmaps_Errors(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createMap(t, api)
	path := "/api/v1/maps/" + id + "/heatmaps"

	tests := []struct {
		name string
		body any
		want int
	}{
		{"radius below range", map[string]any{"heatmaps": []any{heatmapJSON("a", 1, map[string]any{"radius": 9})}}, http.StatusUnprocessableEntity},
		{"radius above range", map[string]any{"heatmaps": []any{heatmapJSON("a", 1, map[string]any{"radius": 46})}}, http.StatusUnprocessableEntity},
		{"missing id", map[string]any{"heatmaps": []any{map[string]any{"opacity": 0.5}}}, http.StatusUnprocessableEntity},
		{"duplicate ids", map[string]any{"heatmaps": []any{heatmapJSON("a", 1, nil), heatmapJSON("a", 2, nil)}}, http.StatusUnprocessableEntity},
		{"bad gradient", map[string]any{"heatmaps": []any{heatmapJSON("a", 0, map[string]any{
			"gradient": map[string]any{"colors": []uint32{1, 2}, "startPoints": []float64{0.8, 0.2}},
		})}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := api.Put(path, tt.body); resp.Code != tt.want {
				t.Errorf("status=%d, want %d: %s", resp.Code, tt.want, resp.Body.String())
			}
		})
	}

	if resp := api.Put("/api/v1/maps/nope/heatmaps", map[string]any{"heatmaps": []any{}}); resp.Code != http.StatusNotFound {
		t.Errorf("unknown map: %d", resp.Code)
	}
	if resp := api.Get(path + "/zzz/tiles/0/0/0"); resp.Code != http.StatusNotFound {
		t.Errorf("unknown heatmap tile: %d", resp.Code)
	}

	api.Put(path, map[string]any{"heatmaps": []any{heatmapJSON("a", 1, nil)}})
	if resp := api.Get(path + "/a/tiles/1/5/0"); resp.Code != http.StatusBadRequest {
		t.Errorf("out of range tile: %d", resp.Code)
	}
}

func TestLibrary_LoadIntoMap(t *testing.T) {
	api, _ := newTestAPI(t)
	id := createMap(t, api)

	resp := api.Post("/api/v1/library/heatmaps", map[string]any{"name": "Night Incidents", "radius": 30, "data": []any{map[string]any{"lat": 1, "lng": 1}}})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}
	if resp := api.Post("/api/v1/library/heatmaps", map[string]any{"id": "night_incidents"}); resp.Code != http.StatusConflict {
		t.Errorf("duplicate create: %d", resp.Code)
	}

	resp = api.Post("/api/v1/maps/"+id+"/heatmaps/load", map[string]any{"ids": []string{"night_incidents"}})
	if resp.Code != http.StatusOK {
		t.Fatalf("load: %d %s", resp.Code, resp.Body.String())
	}
	got := decode[service.HeatmapBody](t, api.Get("/api/v1/maps/"+id+"/heatmaps/night_incidents").Body.Bytes())
	if *got.Radius != 30 {
		t.Errorf("loaded=%+v", got)
	}

	if resp := api.Post("/api/v1/maps/"+id+"/heatmaps/load", map[string]any{"ids": []string{"missing"}}); resp.Code != http.StatusNotFound {
		t.Errorf("load missing: %d", resp.Code)
	}
	if resp := api.Delete("/api/v1/library/heatmaps/night_incidents"); resp.Code != http.StatusOK {
		t.Errorf("delete: %d", resp.Code)
	}
	if resp := api.Get("/api/v1/library/heatmaps/night_incidents"); resp.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", resp.Code)
	}
}

func TestChannel(t *testing.T) {
	api, svc := newTestAPI(t)
	id := createMap(t, api)

	h1, err := service.HeatmapBody{ID: "h1"}.Heatmap()
	if err != nil {
		t.Fatal(err)
	}
	req, err := channel.MarshalCall(channel.MethodCall{
		Method:    channel.MethodHeatmapsAdd,
		Arguments: []any{codec.EncodeHeatmap(h1)},
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := api.Post("/api/v1/maps/"+id+"/channel", "Content-Type: "+channel.ContentType, bytes.NewReader(req))
	if resp.Code != http.StatusOK {
		t.Fatalf("channel: %d %s", resp.Code, resp.Body.String())
	}
	env, err := channel.UnmarshalEnvelope(resp.Body.Bytes())
	if err != nil || env.Error != nil {
		t.Fatalf("envelope=%+v err=%v", env, err)
	}
	if info, _ := svc.Maps.Get(id); !slices.Equal(info.Heatmaps, []string{"h1"}) {
		t.Errorf("heatmaps=%v", info.Heatmaps)
	}

	resp = api.Post("/api/v1/maps/"+id+"/channel", "Content-Type: "+channel.ContentType, bytes.NewReader([]byte{0xc1}))
	env, err = channel.UnmarshalEnvelope(resp.Body.Bytes())
	if err != nil || env.Error == nil || env.Error.Code != channel.CodeMalformedMessage {
		t.Errorf("garbage envelope=%+v err=%v", env, err)
	}
}

func TestPoints_NoDatabase(t *testing.T) {
	api, _ := newTestAPI(t)
	if resp := api.Get("/api/v1/tables"); resp.Code != http.StatusServiceUnavailable {
		t.Errorf("tables: %d", resp.Code)
	}
	if resp := api.Post("/api/v1/points/query", map[string]any{"table": "incidents"}); resp.Code != http.StatusServiceUnavailable {
		t.Errorf("query: %d", resp.Code)
	}
}
