package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type file struct {
	Producers []Entry `yaml:"producers"`
	Upgrades  []Entry `yaml:"upgrades"`
}

// Load reads a YAML catalog. Producers are listed before upgrades, each in
// file order.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	entries := make([]Entry, 0, len(f.Producers)+len(f.Upgrades))
	for _, e := range f.Producers {
		e.Kind = Producer
		entries = append(entries, e)
	}
	for _, e := range f.Upgrades {
		e.Kind = Upgrade
		entries = append(entries, e)
	}
	return New(entries)
}
