// Package manifest persists the plugin registry: the mapping of plugin
// name to source repository, installed version, and optional asset match
// pattern, plus the pin set excluded from bulk updates.
//
// The manifest is written with plugin names and pins in sorted order so
// repeated saves produce deterministic diffs.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/plugman/internal/config"
	"github.com/zjrosen/plugman/internal/log"
)

// Record describes one installed plugin.
// A record's Version always equals the tag of the release that was most
// recently fully installed; mutations replace whole records.
type Record struct {
	Repo    string `yaml:"repo"`
	Version string `yaml:"version"`
	Pattern string `yaml:"pattern,omitempty"`
}

// Registry holds all plugin records and the pin set.
type Registry struct {
	Arch    string
	plugins map[string]Record
	pins    map[string]struct{}
}

// fileFormat is the on-disk shape of the manifest.
type fileFormat struct {
	Arch    string            `yaml:"arch"`
	Plugins map[string]Record `yaml:"plugins"`
	Pins    []string          `yaml:"pins,omitempty"`
}

// New returns an empty registry for the given architecture.
func New(arch config.Arch) *Registry {
	return &Registry{
		Arch:    arch.String(),
		plugins: make(map[string]Record),
		pins:    make(map[string]struct{}),
	}
}

// Load reads the manifest at path. A missing file yields an empty
// registry with the detected architecture.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug(log.CatManifest, "manifest not found, starting empty", "path", path)
			return New(config.DetectArch()), nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	r := &Registry{
		Arch:    ff.Arch,
		plugins: ff.Plugins,
		pins:    make(map[string]struct{}, len(ff.Pins)),
	}
	if r.Arch == "" {
		r.Arch = config.DetectArch().String()
	}
	if r.plugins == nil {
		r.plugins = make(map[string]Record)
	}
	for _, name := range ff.Pins {
		r.pins[name] = struct{}{}
	}
	return r, nil
}

// Get returns the record for name.
func (r *Registry) Get(name string) (Record, bool) {
	rec, ok := r.plugins[name]
	return rec, ok
}

// Set fully replaces the record for name.
func (r *Registry) Set(name string, rec Record) {
	r.plugins[name] = rec
}

// Delete removes the record and any pin for name.
func (r *Registry) Delete(name string) {
	delete(r.plugins, name)
	delete(r.pins, name)
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.plugins) }

// Names returns all plugin names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pin marks name as excluded from bulk updates.
// Pinning an unknown name is allowed; it takes effect if the plugin is
// installed later under that name.
func (r *Registry) Pin(name string) {
	r.pins[name] = struct{}{}
}

// Unpin removes name from the pin set.
func (r *Registry) Unpin(name string) {
	delete(r.pins, name)
}

// Pinned reports whether name is pinned.
func (r *Registry) Pinned(name string) bool {
	_, ok := r.pins[name]
	return ok
}

// Pins returns the pin set in sorted order.
func (r *Registry) Pins() []string {
	pins := make([]string, 0, len(r.pins))
	for name := range r.pins {
		pins = append(pins, name)
	}
	sort.Strings(pins)
	return pins
}

// ResetPins clears the pin set.
func (r *Registry) ResetPins() {
	r.pins = make(map[string]struct{})
}

// Save writes the manifest to path atomically (temp file + rename).
// Plugin names and pins are emitted in sorted order.
func (r *Registry) Save(path string) error {
	doc := yaml.Node{
		Kind: yaml.DocumentNode,
		Content: []*yaml.Node{
			{
				Kind: yaml.MappingNode,
				Content: []*yaml.Node{
					{Kind: yaml.ScalarNode, Value: "arch"},
					{Kind: yaml.ScalarNode, Value: r.Arch},
					{Kind: yaml.ScalarNode, Value: "plugins"},
					r.buildPluginsNode(),
				},
			},
		},
	}
	if len(r.pins) > 0 {
		root := doc.Content[0]
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "pins"},
			r.buildPinsNode(),
		)
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".plugins.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	log.Debug(log.CatManifest, "manifest saved", "path", path, "plugins", len(r.plugins))
	return nil
}

// buildPluginsNode creates a yaml.Node mapping of records sorted by name.
func (r *Registry) buildPluginsNode() *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: make([]*yaml.Node, 0, len(r.plugins)*2),
	}

	for _, name := range r.Names() {
		rec := r.plugins[name]
		recNode := &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Value: "repo"},
				{Kind: yaml.ScalarNode, Value: rec.Repo},
				{Kind: yaml.ScalarNode, Value: "version"},
				{Kind: yaml.ScalarNode, Value: rec.Version},
			},
		}
		if rec.Pattern != "" {
			recNode.Content = append(recNode.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: "pattern"},
				&yaml.Node{Kind: yaml.ScalarNode, Value: rec.Pattern},
			)
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			recNode,
		)
	}

	return node
}

// buildPinsNode creates a yaml.Node sequence of sorted pin names.
func (r *Registry) buildPinsNode() *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(r.pins)),
	}
	for _, name := range r.Pins() {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name})
	}
	return node
}
