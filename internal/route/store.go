package route

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Store holds named routes. Thread-safe via sync.RWMutex so the MCP server
// and the CLI share one instance.
type Store struct {
	mu     sync.RWMutex
	routes map[string]Route
}

// NewStore returns an initialized empty Store.
func NewStore() *Store {
	return &Store{routes: make(map[string]Route)}
}

// Put validates and stores a route, replacing any route with the same name.
func (s *Store) Put(r Route) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[r.Name] = r
	return nil
}

// Get returns the route with the given name.
func (s *Store) Get(name string) (Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[name]
	return r, ok
}

// Delete removes the named route and reports whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.routes[name]
	delete(s.routes, name)
	return ok
}

// List returns all routes sorted by name.
func (s *Store) List() []Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Route, 0, len(s.routes))
	for _, r := range s.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// routeFile is the on-disk JSON form of a saved route list.
type routeFile struct {
	Routes []Route `json:"routes"`
}

// Save writes the route list as JSON, sorted by name.
func (s *Store) Save(path string) error {
	file := routeFile{Routes: s.List()}
	out, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("route: marshal routes: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("route: write routes: %w", err)
	}
	return nil
}

// Load replaces the store's contents with the routes in a saved list.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("route: read routes: %w", err)
	}
	var file routeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("route: parse routes %s: %w", path, err)
	}

	routes := make(map[string]Route, len(file.Routes))
	for _, r := range file.Routes {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("route: routes %s: %w", path, err)
		}
		if _, dup := routes[r.Name]; dup {
			return fmt.Errorf("route: routes %s: duplicate route name %q", path, r.Name)
		}
		routes[r.Name] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = routes
	return nil
}
