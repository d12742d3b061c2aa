package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Cache loads source definitions from a directory of YAML files and keeps
// them in memory. The registry is read-only input for the pipeline; nothing
// here writes source files back.
type Cache struct {
	sourcesDir string
	validate   *validator.Validate
	cache      map[string]*Source
	mu         sync.RWMutex
}

func NewCache(sourcesDir string) *Cache {
	return &Cache{
		sourcesDir: sourcesDir,
		validate:   validator.New(),
		cache:      make(map[string]*Source),
	}
}

func (c *Cache) Run() error {
	if _, err := os.Stat(c.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	yamlFiles, err := filepath.Glob(filepath.Join(c.sourcesDir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to find YAML files: %w", err)
	}
	files = append(files, yamlFiles...)

	for _, file := range files {
		name := sourceNameFromFile(file)

		source, err := c.LoadSource(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source definition loaded", "source", name, "type", source.Type,
			"category", source.Category, "enabled", source.Settings.Enabled)
	}

	return nil
}

func (c *Cache) LoadSource(name string) (*Source, error) {
	file, err := c.findSourceFile(name)
	if err != nil {
		return nil, err
	}

	source, err := c.parseSource(file)
	if err != nil {
		return nil, err
	}

	source.Name = name

	if err := c.validateSource(source); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", file, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[source.Name] = source

	return source, nil
}

func (c *Cache) GetSource(name string) (*Source, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	source, ok := c.cache[name]
	if !ok {
		return nil, fmt.Errorf("source with name '%s' not found", name)
	}
	return source, nil
}

func (c *Cache) GetSources() []*Source {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sources := make([]*Source, 0, len(c.cache))
	for _, s := range c.cache {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	return sources
}

func (c *Cache) GetEnabledSources() []*Source {
	sources := c.GetSources()

	enabled := make([]*Source, 0, len(sources))
	for _, s := range sources {
		if s.Settings.Enabled {
			enabled = append(enabled, s)
		}
	}

	return enabled
}

func (c *Cache) findSourceFile(name string) (string, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		file := filepath.Join(c.sourcesDir, name+ext)
		if _, err := os.Stat(file); err == nil {
			return file, nil
		}
	}
	return "", fmt.Errorf("no definition file for source '%s' in %s", name, c.sourcesDir)
}

func (c *Cache) parseSource(file string) (*Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&source)

	return &source, nil
}

func setDefaults(source *Source) {
	if source.Type == "" {
		source.Type = "blog"
	}
	if source.Settings.RefreshInterval == 0 {
		source.Settings.RefreshInterval = 3600 // seconds
	}
	if source.Settings.MaxItems == 0 {
		source.Settings.MaxItems = 20
	}
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = 30 // seconds
	}
}

func (c *Cache) validateSource(source *Source) error {
	if err := c.validate.Struct(source); err != nil {
		return err
	}

	// Cross-field rules the struct tags cannot express
	if source.Category == "" && source.Type == "" {
		return fmt.Errorf("source must declare a type or a category")
	}

	return nil
}

func sourceNameFromFile(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(strings.TrimSuffix(base, ".yml"), ".yaml")
}
