package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/joeblew999/plat-heatmap/internal/overlay"
)

// LibraryService stores named heatmap definitions that can be loaded into
// any map session.
type LibraryService struct {
	dataDir  string
	log      *slog.Logger
	bus      *EventBus
	heatmaps map[string]HeatmapBody
	mu       sync.RWMutex
}

// NewLibraryService loads the library from dataDir.
func NewLibraryService(dataDir string, bus *EventBus, log *slog.Logger) *LibraryService {
	if log == nil {
		log = slog.Default()
	}
	s := &LibraryService{
		dataDir:  dataDir,
		log:      log,
		bus:      bus,
		heatmaps: make(map[string]HeatmapBody),
	}
	s.loadFromDisk()
	return s
}

// List returns every definition, sorted by id.
func (s *LibraryService) List() []HeatmapBody {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HeatmapBody, 0, len(s.heatmaps))
	for _, h := range s.heatmaps {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b HeatmapBody) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Get returns a definition by id.
func (s *LibraryService) Get(id string) (HeatmapBody, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.heatmaps[id]
	return h, ok
}

// Heatmaps resolves ids to validated descriptors, in the order given.
func (s *LibraryService) Heatmaps(ids []string) ([]overlay.Heatmap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]overlay.Heatmap, 0, len(ids))
	for _, id := range ids {
		body, ok := s.heatmaps[id]
		if !ok {
			return nil, fmt.Errorf("library heatmap %q: %w", id, ErrNotFound)
		}
		h, err := body.Heatmap()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Create adds a definition. The id is derived from the name when empty.
func (s *LibraryService) Create(h HeatmapBody) (HeatmapBody, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = generateID(h.Name)
	}
	if _, err := h.Heatmap(); err != nil {
		return HeatmapBody{}, err
	}
	if _, exists := s.heatmaps[h.ID]; exists {
		return HeatmapBody{}, fmt.Errorf("library heatmap %q: %w", h.ID, ErrExists)
	}

	s.heatmaps[h.ID] = h
	if err := s.saveToDisk(); err != nil {
		delete(s.heatmaps, h.ID)
		return HeatmapBody{}, err
	}
	s.bus.Publish(Event{Resource: ResourceLibrary, Action: "created", ID: h.ID})
	return h, nil
}

// Update replaces a definition by id.
func (s *LibraryService) Update(id string, h HeatmapBody) (HeatmapBody, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.heatmaps[id]
	if !exists {
		return HeatmapBody{}, fmt.Errorf("library heatmap %q: %w", id, ErrNotFound)
	}
	h.ID = id
	if _, err := h.Heatmap(); err != nil {
		return HeatmapBody{}, err
	}

	s.heatmaps[id] = h
	if err := s.saveToDisk(); err != nil {
		s.heatmaps[id] = prev
		return HeatmapBody{}, err
	}
	s.bus.Publish(Event{Resource: ResourceLibrary, Action: "updated", ID: id})
	return h, nil
}

// Delete removes a definition by id.
func (s *LibraryService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.heatmaps[id]
	if !exists {
		return fmt.Errorf("library heatmap %q: %w", id, ErrNotFound)
	}

	delete(s.heatmaps, id)
	if err := s.saveToDisk(); err != nil {
		s.heatmaps[id] = prev
		return err
	}
	s.bus.Publish(Event{Resource: ResourceLibrary, Action: "deleted", ID: id})
	return nil
}

func (s *LibraryService) configFile() string {
	return filepath.Join(s.dataDir, "heatmaps.json")
}

func (s *LibraryService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("reading heatmap library", "path", s.configFile(), "error", err)
		}
		return
	}

	var heatmaps map[string]HeatmapBody
	if err := json.Unmarshal(data, &heatmaps); err != nil {
		s.log.Warn("heatmap library is not valid JSON, starting empty", "path", s.configFile(), "error", err)
		return
	}
	for id, h := range heatmaps {
		h.ID = id
		heatmaps[id] = h
	}
	s.heatmaps = heatmaps
	s.log.Debug("heatmap library loaded", "entries", len(heatmaps))
}

func (s *LibraryService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	data, err := json.MarshalIndent(s.heatmaps, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configFile(), data, 0644)
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
