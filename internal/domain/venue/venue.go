package venue

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// OtherVenue selects a free-text venue instead of a catalog entry.
const OtherVenue = "Other"

//go:embed catalog.yaml
var defaultCatalog []byte

// Descriptor is a bookable venue. Descriptors are read-only once loaded.
type Descriptor struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Capacity     int      `yaml:"capacity" json:"capacity"`
	Equipment    []string `yaml:"equipment" json:"equipment"`
	Restrictions []string `yaml:"restrictions" json:"restrictions"`
}

// Catalog is the static set of bookable venues.
type Catalog struct {
	venues []Descriptor
	byID   map[string]int
	byName map[string]int
}

type catalogFile struct {
	Venues []Descriptor `yaml:"venues"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file. An empty path returns the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read venue catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Ids and names must be unique.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse venue catalog: %w", err)
	}

	c := &Catalog{
		byID:   make(map[string]int, len(f.Venues)),
		byName: make(map[string]int, len(f.Venues)),
	}
	for _, v := range f.Venues {
		if v.ID == "" || v.Name == "" {
			return nil, fmt.Errorf("venue catalog entry missing id or name")
		}
		if v.Capacity < 1 {
			return nil, fmt.Errorf("venue %s: capacity must be positive", v.ID)
		}
		if _, dup := c.byID[v.ID]; dup {
			return nil, fmt.Errorf("duplicate venue id: %s", v.ID)
		}
		key := strings.ToLower(v.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate venue name: %s", v.Name)
		}
		if v.Equipment == nil {
			v.Equipment = []string{}
		}
		if v.Restrictions == nil {
			v.Restrictions = []string{}
		}
		c.byID[v.ID] = len(c.venues)
		c.byName[key] = len(c.venues)
		c.venues = append(c.venues, v)
	}
	return c, nil
}

// All returns every venue ordered by name.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, len(c.venues))
	for i, v := range c.venues {
		out[i] = v.clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindByID looks a venue up by id.
func (c *Catalog) FindByID(id string) (Descriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return c.venues[i].clone(), true
}

// Resolve finds a venue by id or by case-insensitive name.
func (c *Catalog) Resolve(ref string) (Descriptor, bool) {
	if d, ok := c.FindByID(ref); ok {
		return d, true
	}
	i, ok := c.byName[strings.ToLower(strings.TrimSpace(ref))]
	if !ok {
		return Descriptor{}, false
	}
	return c.venues[i].clone(), true
}

// Len returns the number of venues.
func (c *Catalog) Len() int { return len(c.venues) }

func (d Descriptor) clone() Descriptor {
	d.Equipment = append([]string{}, d.Equipment...)
	d.Restrictions = append([]string{}, d.Restrictions...)
	return d
}
