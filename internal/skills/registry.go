// ABOUTME: Skill registry: definitions loaded from skill.yaml plus the workers that run them
// ABOUTME: Serves tool definitions to the router and validates parameters against each skill's schema
package skills

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/WildEllie/t3nets/internal/logging"
	"github.com/WildEllie/t3nets/internal/models"
)

// ManifestName is the file that describes a skill inside its directory
const ManifestName = "skill.yaml"

// ErrSkillNotFound is returned for names that were never registered
var ErrSkillNotFound = errors.New("skill not found")

// Worker executes one skill. Secrets hold the credentials of the skill's integration.
type Worker interface {
	Execute(ctx context.Context, params map[string]any, secrets map[string]string) (models.SkillResult, error)
}

// WorkerFunc adapts a function to Worker
type WorkerFunc func(ctx context.Context, params map[string]any, secrets map[string]string) (models.SkillResult, error)

// Execute calls f
func (f WorkerFunc) Execute(ctx context.Context, params map[string]any, secrets map[string]string) (models.SkillResult, error) {
	return f(ctx, params, secrets)
}

type entry struct {
	def    models.SkillDefinition
	worker Worker
	schema *gojsonschema.Schema
}

// Registry holds the known skills. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: map[string]*entry{},
		logger:  logging.Get("skills"),
	}
}

// ParseDefinition decodes a skill.yaml document
func ParseDefinition(data []byte) (models.SkillDefinition, error) {
	var def models.SkillDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("failed to parse skill definition: %w", err)
	}
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return def, errors.New("skill definition has no name")
	}
	return def, nil
}

// Register adds or replaces a skill. worker may be nil for definition-only skills.
func (r *Registry) Register(def models.SkillDefinition, worker Worker) error {
	if strings.TrimSpace(def.Name) == "" {
		return errors.New("skill name cannot be empty")
	}

	e := &entry{def: def, worker: worker}
	if len(def.Parameters) > 0 {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.Parameters))
		if err != nil {
			return fmt.Errorf("invalid parameter schema for skill %s: %w", def.Name, err)
		}
		e.schema = schema
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.entries[def.Name] = e
	r.logger.Debug().Str("skill", def.Name).Bool("worker", worker != nil).Msg("Registered skill")
	return nil
}

// LoadFS registers every <dir>/skill.yaml in fsys. Workers are looked up by skill name.
// Returns the names loaded, in directory order.
func (r *Registry) LoadFS(fsys fs.FS, workers map[string]Worker) ([]string, error) {
	manifests, err := fs.Glob(fsys, path.Join("*", ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for skills: %w", err)
	}
	sort.Strings(manifests)

	var loaded []string
	for _, manifest := range manifests {
		data, err := fs.ReadFile(fsys, manifest)
		if err != nil {
			return loaded, fmt.Errorf("failed to read %s: %w", manifest, err)
		}
		def, err := ParseDefinition(data)
		if err != nil {
			return loaded, fmt.Errorf("%s: %w", manifest, err)
		}

		worker := workers[def.Name]
		if worker == nil {
			// Keep a worker already registered for this name
			if existing, ok := r.Worker(def.Name); ok {
				worker = existing
			}
		}
		if err := r.Register(def, worker); err != nil {
			return loaded, err
		}
		loaded = append(loaded, def.Name)
	}
	return loaded, nil
}

// LoadDirectory registers the skills found in dir. A missing directory is not an error.
func (r *Registry) LoadDirectory(dir string, workers map[string]Worker) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open skills directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("skills path %s is not a directory", dir)
	}
	return r.LoadFS(os.DirFS(dir), workers)
}

// Get returns a skill definition
func (r *Registry) Get(name string) (models.SkillDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return models.SkillDefinition{}, false
	}
	return e.def, true
}

// Worker returns the worker of a skill, if it has one
func (r *Registry) Worker(name string) (Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok || e.worker == nil {
		return nil, false
	}
	return e.worker, true
}

// List returns all definitions in registration order
func (r *Registry) List() []models.SkillDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.SkillDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].def)
	}
	return out
}

// Names returns all skill names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ToolsFor returns tool definitions for the enabled skills, in enabled order.
// Unknown names are skipped.
func (r *Registry) ToolsFor(enabled []string) []models.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := []models.ToolDefinition{}
	seen := map[string]bool{}
	for _, name := range enabled {
		e, ok := r.entries[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		tools = append(tools, e.def.Tool())
	}
	return tools
}

// SupportsRaw reports whether a skill may return its output without narration
func (r *Registry) SupportsRaw(name string) bool {
	def, ok := r.Get(name)
	return ok && def.SupportsRaw
}

// ValidateParams checks params against the skill's parameter schema
func (r *Registry) ValidateParams(name string, params map[string]any) error {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSkillNotFound, name)
	}
	if e.schema == nil {
		return nil
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := e.schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("failed to validate parameters: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return errors.New(strings.Join(msgs, "; "))
}
