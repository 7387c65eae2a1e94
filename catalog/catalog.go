// Package catalog indexes capability kinds by interface name and describes
// their events as JSON Schema.
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/mavrogato/othones/domain/entities"
	"github.com/mavrogato/othones/domain/ports"
)

// catalogConfig holds configuration for the Catalog.
type catalogConfig struct {
	strictMode bool // Fail on duplicate registrations
}

func defaultCatalogConfig() catalogConfig {
	return catalogConfig{
		strictMode: true,
	}
}

// Option configures a Catalog instance.
type Option func(*catalogConfig)

// WithStrictMode enables/disables strict mode for duplicate registrations.
// Default is true (fail on duplicates).
func WithStrictMode(enabled bool) Option {
	return func(c *catalogConfig) {
		c.strictMode = enabled
	}
}

// Catalog implements ports.KindCatalog.
type Catalog struct {
	config  catalogConfig
	schemas sync.Map // map[string]string (json schema)
	kinds   sync.Map // map[string]ports.KindInfo
}

var _ ports.KindCatalog = (*Catalog)(nil)

// New creates an empty Catalog.
func New(opts ...Option) *Catalog {
	cfg := defaultCatalogConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Catalog{config: cfg}
}

// Register adds a kind. The schema is an object with one property per
// event, each reflected from the event's model.
func (c *Catalog) Register(iface entities.Interface, events []ports.EventModel) error {
	if err := iface.Validate(); err != nil {
		return fmt.Errorf("invalid interface %v: %w", iface, err)
	}
	if c.config.strictMode {
		if _, exists := c.kinds.Load(iface.Name); exists {
			return fmt.Errorf("kind %q already registered", iface.Name)
		}
	}

	data, err := json.Marshal(schemaFor(iface, events))
	if err != nil {
		return fmt.Errorf("failed to marshal schema for %s: %w", iface.Name, err)
	}

	info := ports.KindInfo{Interface: iface, Events: append([]ports.EventModel(nil), events...)}
	c.kinds.Store(iface.Name, info)
	c.schemas.Store(iface.Name, string(data))
	return nil
}

// Lookup returns the entry for an interface name.
func (c *Catalog) Lookup(name string) (ports.KindInfo, bool) {
	v, ok := c.kinds.Load(name)
	if !ok {
		return ports.KindInfo{}, false
	}
	return v.(ports.KindInfo), true
}

// GetSchema retrieves the JSON Schema of a kind's events.
func (c *Catalog) GetSchema(name string) (string, bool) {
	v, ok := c.schemas.Load(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// List returns all registered interface names, sorted.
func (c *Catalog) List() []string {
	var keys []string
	c.kinds.Range(func(k, _ interface{}) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

func schemaFor(iface entities.Interface, events []ports.EventModel) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	props := jsonschema.NewProperties()
	for _, ev := range events {
		s := r.Reflect(ev.Model)
		s.Version = ""
		s.Title = ev.Name
		s.Description = "signature: " + ev.Signature
		props.Set(ev.Name, s)
	}
	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       iface.Name,
		Description: fmt.Sprintf("events of %s", iface),
		Type:        "object",
		Properties:  props,
	}
}
