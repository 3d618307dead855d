package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-heatmap/internal/api"
	"github.com/joeblew999/plat-heatmap/internal/db"
	"github.com/joeblew999/plat-heatmap/internal/humastar"
	"github.com/joeblew999/plat-heatmap/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	Log     *slog.Logger

	// NoDB skips opening DuckDB; point routes then answer 503.
	NoDB bool
}

// Server is the heatmap HTTP server.
type Server struct {
	config   Config
	log      *slog.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
}

// New creates a new heatmap server.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-heatmap API", "1.0.0")
	humaConfig.Info.Description = "Heatmap overlay API: declare heatmaps per map session, fetch their tiles and styles, and drive them over a msgpack method channel."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer(), humastar.ActionTransformer())

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:  cfg,
		log:     log,
		mux:     mux,
		humaAPI: humaAPI,
	}

	if !cfg.NoDB {
		conn, err := db.Get(db.Config{
			DataDir:    cfg.DataDir,
			DBName:     "heatmap",
			Extensions: []string{"spatial", "parquet"},
			Log:        log,
		})
		if err != nil {
			log.Warn("duckdb unavailable, point queries disabled", "error", err)
		} else {
			s.db = conn
		}
	}

	bus := service.NewEventBus()
	s.services = &api.Services{
		Maps:    service.NewMapService(bus, log),
		Library: service.NewLibraryService(cfg.DataDir, bus, log),
		Points:  service.NewPointService(s.db, log),
		Bus:     bus,
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler. Tiles and styles are fetched
// cross-origin by map renderers, so every response allows any origin.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Link, Content-Length")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close tears down every map session and closes the database.
func (s *Server) Close() error {
	s.services.Maps.Close()
	if s.db != nil {
		return db.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register* methods on the handler are picked up by name.
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(s.config.DataDir, s.db != nil).RegisterRoutes(s.humaAPI)

	s.mux.HandleFunc("/{$}", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-heatmap",
		"status":  "running",
		"docs":    "/docs",
	})
}
