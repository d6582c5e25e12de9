package catalog

import (
	"crypto/md5" //nolint:gosec // MD5 derives stable ids, not security material
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies the concrete type of a catalog entity.
type Kind string

const (
	// KindFolder is a plain directory in the library.
	KindFolder Kind = "folder"
	// KindAggregateFolder is the synthetic library root.
	KindAggregateFolder Kind = "aggregate_folder"
	// KindVideo is a playable media item.
	KindVideo Kind = "video"
	// KindPerson is a named person entity.
	KindPerson Kind = "person"
	// KindStudio is a named studio entity.
	KindStudio Kind = "studio"
	// KindGenre is a named genre entity.
	KindGenre Kind = "genre"
	// KindYear is a named production-year entity.
	KindYear Kind = "year"
)

// PersonRole classifies a person reference on a media item.
type PersonRole string

const (
	// RoleActor marks a cast member.
	RoleActor PersonRole = "actor"
	// RoleDirector marks a director credit.
	RoleDirector PersonRole = "director"
	// RoleWriter marks a writer credit.
	RoleWriter PersonRole = "writer"
	// RoleProducer marks a producer credit.
	RoleProducer PersonRole = "producer"
	// RoleGuestStar marks a guest appearance.
	RoleGuestStar PersonRole = "guest_star"
)

// PersonRef is a (name, role) credit embedded in a media entity. Many
// entities reference the same person name; only Actor and Director refs are
// swept into the named-entity store during people validation.
type PersonRef struct {
	Name string     `json:"name"`
	Role PersonRole `json:"role"`
}

// Entity is a node in the media catalog tree.
type Entity interface {
	// Info returns the mutable base record shared by all entities.
	Info() *ItemInfo
	// Kind returns the concrete entity kind.
	Kind() Kind
}

// ItemInfo is the base record embedded by every concrete entity.
type ItemInfo struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Created  time.Time   `json:"created"`
	Modified time.Time   `json:"modified"`
	People   []PersonRef `json:"people,omitempty"`

	// IsNew marks an entity constructed this pass rather than loaded from
	// the repository. Metadata refresh uses it to pick a provider strategy.
	IsNew bool `json:"-"`
}

// Info implements Entity.
func (i *ItemInfo) Info() *ItemInfo { return i }

// AddPerson appends a person credit to the entity.
func (i *ItemInfo) AddPerson(name string, role PersonRole) {
	i.People = append(i.People, PersonRef{Name: name, Role: role})
}

// Folder is a directory entity with child entities.
type Folder struct {
	ItemInfo

	// Children holds the ids of direct children, in resolution order.
	Children []string `json:"children,omitempty"`

	childEntities []Entity
}

// Kind implements Entity.
func (f *Folder) Kind() Kind { return KindFolder }

// AddChild links a resolved child entity to the folder.
func (f *Folder) AddChild(e Entity) {
	f.Children = append(f.Children, e.Info().ID)
	f.childEntities = append(f.childEntities, e)
}

// SetChildren replaces the folder's resolved children.
func (f *Folder) SetChildren(children []Entity) {
	f.Children = f.Children[:0]
	f.childEntities = f.childEntities[:0]
	for _, c := range children {
		f.AddChild(c)
	}
}

// ChildEntities returns the resolved children attached this pass. Entities
// loaded from the repository without an attached tree return nil.
func (f *Folder) ChildEntities() []Entity { return f.childEntities }

// AggregateFolder is the synthetic library root: the union of the physical
// root's children and virtual children contributed by plugins.
type AggregateFolder struct {
	Folder

	virtualChildren []Entity
}

// Kind implements Entity.
func (a *AggregateFolder) Kind() Kind { return KindAggregateFolder }

// AddVirtualChild attaches a plugin-contributed child that has no physical
// path under the library root.
func (a *AggregateFolder) AddVirtualChild(e Entity) {
	a.virtualChildren = append(a.virtualChildren, e)
}

// ChildEntities returns physical and virtual children together.
func (a *AggregateFolder) ChildEntities() []Entity {
	if len(a.virtualChildren) == 0 {
		return a.Folder.ChildEntities()
	}
	out := make([]Entity, 0, len(a.Folder.childEntities)+len(a.virtualChildren))
	out = append(out, a.Folder.childEntities...)
	out = append(out, a.virtualChildren...)
	return out
}

// Video is a playable media item.
type Video struct {
	ItemInfo

	// Container is the file extension without the leading dot.
	Container string `json:"container,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

// Kind implements Entity.
func (v *Video) Kind() Kind { return KindVideo }

// Person is a named person entity materialized under the people directory.
type Person struct {
	ItemInfo
}

// Kind implements Entity.
func (p *Person) Kind() Kind { return KindPerson }

// Studio is a named studio entity.
type Studio struct {
	ItemInfo
}

// Kind implements Entity.
func (s *Studio) Kind() Kind { return KindStudio }

// Genre is a named genre entity.
type Genre struct {
	ItemInfo
}

// Kind implements Entity.
func (g *Genre) Kind() Kind { return KindGenre }

// Year is a named production-year entity.
type Year struct {
	ItemInfo

	Value int `json:"value"`
}

// Kind implements Entity.
func (y *Year) Kind() Kind { return KindYear }

// DeterministicID derives the stable identifier for an entity at the given
// absolute path. The same (kind, path) pair always yields the same id, so a
// later resolution pass finds the persisted record instead of re-creating it.
// Paths are cleaned and compared case-insensitively.
func DeterministicID(kind Kind, path string) string {
	key := string(kind) + "|" + strings.ToLower(filepath.Clean(path))
	return fmt.Sprintf("%x", md5.Sum([]byte(key))) //nolint:gosec // stable id, not security
}

// New constructs an entity of the given kind with its deterministic id and
// timestamps set. Unknown kinds return a plain Folder.
func New(kind Kind, name, path string, now time.Time) Entity {
	info := ItemInfo{
		ID:       DeterministicID(kind, path),
		Name:     name,
		Path:     path,
		Created:  now,
		Modified: now,
	}
	switch kind {
	case KindAggregateFolder:
		return &AggregateFolder{Folder: Folder{ItemInfo: info}}
	case KindVideo:
		return &Video{ItemInfo: info}
	case KindPerson:
		return &Person{ItemInfo: info}
	case KindStudio:
		return &Studio{ItemInfo: info}
	case KindGenre:
		return &Genre{ItemInfo: info}
	case KindYear:
		return &Year{ItemInfo: info}
	default:
		return &Folder{ItemInfo: info}
	}
}
