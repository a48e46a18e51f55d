package rules

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

//go:embed rulesets.json
var embedded embed.FS

const embeddedName = "rulesets.json"

// Repository resolves ruleset ids to rule tables. Expanded tables are cached
// per id until Reload is called.
type Repository struct {
	load   func() ([]Ruleset, error)
	logger *log.Logger

	mu       sync.RWMutex
	rulesets map[string]*Ruleset
	order    []string
	expanded map[string][]Rule
}

// Option configures a Repository.
type Option func(*Repository)

// WithFile reads the rulesets document from path instead of the embedded one.
func WithFile(path string) Option {
	return func(r *Repository) {
		dir, name := filepath.Split(path)
		if dir == "" {
			dir = "."
		}
		r.load = func() ([]Ruleset, error) {
			return readDocument(os.DirFS(dir), name)
		}
	}
}

// WithRulesets serves a fixed set of rulesets, mostly useful in tests.
func WithRulesets(rulesets ...Ruleset) Option {
	return func(r *Repository) {
		r.load = func() ([]Ruleset, error) {
			out := make([]Ruleset, len(rulesets))
			copy(out, rulesets)
			return out, nil
		}
	}
}

// NewRepository builds a repository and performs the initial load.
func NewRepository(logger *log.Logger, opts ...Option) (*Repository, error) {
	r := &Repository{
		load: func() ([]Ruleset, error) {
			return readDocument(embedded, embeddedName)
		},
		logger: logger.WithPrefix("rules"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func readDocument(fsys fs.FS, name string) ([]Ruleset, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rulesets: %w", err)
	}
	var rulesets []Ruleset
	if err := json.Unmarshal(data, &rulesets); err != nil {
		return nil, fmt.Errorf("failed to decode rulesets: %w", err)
	}
	return rulesets, nil
}

// Reload re-reads the source and drops every cached expansion. On error the
// previously loaded table stays in place.
func (r *Repository) Reload() error {
	loaded, err := r.load()
	if err != nil {
		return err
	}

	byID := make(map[string]*Ruleset, len(loaded))
	order := make([]string, 0, len(loaded))
	for i := range loaded {
		rs := &loaded[i]
		if err := rs.Validate(); err != nil {
			return err
		}
		if _, dup := byID[rs.ID]; dup {
			return fmt.Errorf("duplicate ruleset id %s", rs.ID)
		}
		byID[rs.ID] = rs
		order = append(order, rs.ID)
	}

	r.mu.Lock()
	r.rulesets = byID
	r.order = order
	r.expanded = make(map[string][]Rule)
	r.mu.Unlock()

	r.logger.Debug("Loaded rulesets", "count", len(order))
	return nil
}

// Resolve returns a copy of the ruleset with the given id.
func (r *Repository) Resolve(id string) (*Ruleset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rulesets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *rs
	out.Rules = append([]Rule(nil), rs.Rules...)
	return &out, nil
}

// Expand returns the complete ordered rule list for id. The returned slice
// is shared and must not be modified.
func (r *Repository) Expand(id string) ([]Rule, error) {
	r.mu.RLock()
	cached, ok := r.expanded[id]
	rs, known := r.rulesets[id]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	full := Expand(rs)

	r.mu.Lock()
	// a concurrent Reload may have swapped the table; only cache a match
	if r.rulesets[id] == rs {
		r.expanded[id] = full
	}
	r.mu.Unlock()
	return full, nil
}

// List returns summaries in document order.
func (r *Repository) List() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rulesets[id].Summary())
	}
	return out
}
