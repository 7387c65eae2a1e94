package ports

import "github.com/mavrogato/othones/domain/entities"

// EventModel describes one event of a kind for introspection: its name,
// wire signature and the Go value the event decodes into.
type EventModel struct {
	Model     any
	Name      string
	Signature string
}

// KindInfo is the catalog entry of one capability kind.
type KindInfo struct {
	Interface entities.Interface
	Events    []EventModel
}

// KindCatalog indexes capability kinds by interface name.
type KindCatalog interface {
	// Register adds a kind. Event schemas are generated from the models.
	Register(iface entities.Interface, events []EventModel) error

	// Lookup returns the entry for an interface name.
	Lookup(name string) (KindInfo, bool)

	// GetSchema retrieves the JSON Schema of a kind's events.
	GetSchema(name string) (string, bool)

	// List returns all registered interface names, sorted.
	List() []string
}
