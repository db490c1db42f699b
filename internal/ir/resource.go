package ir

import (
	"strings"
)

// DataPrefix marks resource keys that describe external data lookups.
const DataPrefix = "data."

// Kind distinguishes managed resources from data lookups.
type Kind int

const (
	KindManaged Kind = iota
	KindData
)

func (k Kind) String() string {
	if k == KindData {
		return "data"
	}
	return "managed"
}

// Resource is a single entry of a module's resources mapping. The body is
// kept as decoded so that unknown fields round-trip unchanged.
type Resource struct {
	Kind Kind

	doc map[string]any
}

// NewResource wraps a decoded resource body. The kind is taken from the key.
func NewResource(key string, body map[string]any) *Resource {
	if body == nil {
		body = map[string]any{}
	}
	kind := KindManaged
	if strings.HasPrefix(key, DataPrefix) {
		kind = KindData
	}
	return &Resource{Kind: kind, doc: body}
}

// ID returns primary.id, or "" when absent.
func (r *Resource) ID() string {
	primary, _ := r.doc["primary"].(map[string]any)
	id, _ := primary["id"].(string)
	return id
}

// Name returns primary.attributes.name, or "" when absent.
func (r *Resource) Name() string {
	primary, _ := r.doc["primary"].(map[string]any)
	attrs, _ := primary["attributes"].(map[string]any)
	name, _ := attrs["name"].(string)
	return name
}

// Type returns the resource type field, e.g. "vsphere_virtual_machine".
func (r *Resource) Type() string {
	t, _ := r.doc["type"].(string)
	return t
}

// DependsOn returns a copy of the depends_on list.
func (r *Resource) DependsOn() []string {
	list, _ := r.doc["depends_on"].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// HasDependency reports whether dep is already listed in depends_on.
func (r *Resource) HasDependency(dep string) bool {
	list, _ := r.doc["depends_on"].([]any)
	for _, v := range list {
		if s, ok := v.(string); ok && s == dep {
			return true
		}
	}
	return false
}

// AddDependency appends dep to depends_on unless it is already present.
// It reports whether the list changed.
func (r *Resource) AddDependency(dep string) bool {
	if r.HasDependency(dep) {
		return false
	}
	list, _ := r.doc["depends_on"].([]any)
	r.doc["depends_on"] = append(list, dep)
	return true
}

// Body returns the underlying decoded document.
func (r *Resource) Body() map[string]any {
	return r.doc
}

// Resources is an insertion-ordered mapping of resource keys.
type Resources struct {
	keys  []string
	items map[string]*Resource
}

func NewResources() *Resources {
	return &Resources{items: make(map[string]*Resource)}
}

// Set adds or replaces key. A new key is appended to the order.
func (rs *Resources) Set(key string, r *Resource) {
	if _, ok := rs.items[key]; !ok {
		rs.keys = append(rs.keys, key)
	}
	rs.items[key] = r
}

func (rs *Resources) Get(key string) (*Resource, bool) {
	if rs == nil {
		return nil, false
	}
	r, ok := rs.items[key]
	return r, ok
}

// Delete removes key, keeping the order of the rest.
func (rs *Resources) Delete(key string) {
	if _, ok := rs.items[key]; !ok {
		return
	}
	delete(rs.items, key)
	for i, k := range rs.keys {
		if k == key {
			rs.keys = append(rs.keys[:i], rs.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (rs *Resources) Keys() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.keys))
	copy(out, rs.keys)
	return out
}

func (rs *Resources) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.keys)
}
