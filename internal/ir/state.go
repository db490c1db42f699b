package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// State is a legacy terraform state document: a list of modules, each owning
// a mapping of resource keys. Fields the reconciler does not understand are
// kept in their decoded form and written back unchanged.
type State struct {
	Modules []*Module

	doc map[string]any
}

// Module is one entry of the state's "modules" array.
type Module struct {
	Path      []string
	Resources *Resources

	doc map[string]any
}

// Depth returns the number of path segments.
func (m *Module) Depth() int {
	return len(m.Path)
}

// DecodeState parses a state document. Resource keys keep their file order.
func DecodeState(data []byte) (*State, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	if top == nil {
		return nil, fmt.Errorf("failed to parse state: document is not an object")
	}

	st := &State{doc: make(map[string]any, len(top))}
	for k, raw := range top {
		if k == "modules" {
			continue
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse state field %q: %w", k, err)
		}
		st.doc[k] = v
	}

	rawModules, ok := top["modules"]
	if !ok || isNull(rawModules) {
		return st, nil
	}

	var modules []json.RawMessage
	if err := json.Unmarshal(rawModules, &modules); err != nil {
		return nil, fmt.Errorf("failed to parse state modules: %w", err)
	}

	for i, raw := range modules {
		m, err := decodeModule(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse module %d: %w", i, err)
		}
		st.Modules = append(st.Modules, m)
	}

	return st, nil
}

func decodeModule(data json.RawMessage) (*Module, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	m := &Module{doc: make(map[string]any, len(fields)), Resources: NewResources()}
	for k, raw := range fields {
		switch k {
		case "path":
			if isNull(raw) {
				continue
			}
			if err := json.Unmarshal(raw, &m.Path); err != nil {
				return nil, fmt.Errorf("invalid path: %w", err)
			}
		case "resources":
			res, err := decodeResources(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid resources: %w", err)
			}
			m.Resources = res
		default:
			v, err := decodeValue(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid field %q: %w", k, err)
			}
			m.doc[k] = v
		}
	}
	return m, nil
}

// decodeResources walks the resources object token by token so that the
// key order of the file survives.
func decodeResources(data json.RawMessage) (*Resources, error) {
	res := NewResources()
	if isNull(data) {
		return res, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected resource key, got %v", tok)
		}

		var body map[string]any
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("resource %q: %w", key, err)
		}
		res.Set(key, NewResource(key, body))
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return res, nil
}

func decodeValue(data json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func isNull(data json.RawMessage) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

// Encode serializes the state with sorted keys and four-space indentation.
func (s *State) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s.document()); err != nil {
		return nil, fmt.Errorf("failed to serialize state: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.document())
}

func (s *State) document() map[string]any {
	out := make(map[string]any, len(s.doc)+1)
	for k, v := range s.doc {
		out[k] = v
	}
	modules := make([]any, 0, len(s.Modules))
	for _, m := range s.Modules {
		modules = append(modules, m.document())
	}
	out["modules"] = modules
	return out
}

func (m *Module) document() map[string]any {
	out := make(map[string]any, len(m.doc)+2)
	for k, v := range m.doc {
		out[k] = v
	}
	path := m.Path
	if path == nil {
		path = []string{}
	}
	out["path"] = path

	resources := make(map[string]any, m.Resources.Len())
	for _, key := range m.Resources.Keys() {
		r, _ := m.Resources.Get(key)
		resources[key] = r.doc
	}
	out["resources"] = resources
	return out
}

// Field returns a top-level field other than "modules".
func (s *State) Field(name string) (any, bool) {
	v, ok := s.doc[name]
	return v, ok
}

// ResourceCount returns the number of resources across all modules.
func (s *State) ResourceCount() int {
	n := 0
	for _, m := range s.Modules {
		n += m.Resources.Len()
	}
	return n
}
