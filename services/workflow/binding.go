package workflow

import (
	"encoding/json"
	"fmt"
	"maps"
)

// NodeStore is the canonical node collection of one open workflow. Projected input fields read
// and write values through it by (node id, field name); they never hold a copy of their own.
type NodeStore struct {
	nodes []Node
	index map[string]int
}

// NewNodeStore indexes nodes by id. The slice is shared, not copied: edits made through the
// store are visible in nodes and the other way round. The first node wins on duplicate ids.
func NewNodeStore(nodes []Node) *NodeStore {
	s := &NodeStore{nodes: nodes, index: make(map[string]int, len(nodes))}
	for i := range nodes {
		if _, ok := s.index[nodes[i].ID]; !ok {
			s.index[nodes[i].ID] = i
		}
	}
	return s
}

// Nodes returns the underlying node slice.
func (s *NodeStore) Nodes() []Node {
	return s.nodes
}

// Node returns the node with the given id, or nil.
func (s *NodeStore) Node(id string) *Node {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return &s.nodes[i]
}

// Field returns a node's template field, or nil if either is missing.
func (s *NodeStore) Field(nodeID, fieldName string) *Field {
	n := s.Node(nodeID)
	if n == nil {
		return nil
	}
	return n.Field(fieldName)
}

// InputField is one entry of the run form: a node field exposed to the user. Its value is a
// live view of the owning node's field.
type InputField struct {
	Category  string
	NodeID    string
	FieldName string

	// descriptor is the field as it looked when projected. Its Value is only consulted when the
	// entry is not bound to a store or its node/field no longer exists.
	descriptor Field
	store      *NodeStore
}

func newInputField(store *NodeStore, node *Node, name string, f *Field) *InputField {
	return &InputField{
		Category:   node.Category,
		NodeID:     node.ID,
		FieldName:  name,
		descriptor: f.Clone(),
		store:      store,
	}
}

func (f *InputField) key() fieldKey {
	return fieldKey{nodeID: f.NodeID, fieldName: f.FieldName}
}

// Descriptor returns the field descriptor with its current value.
func (f *InputField) Descriptor() Field {
	d := f.descriptor.Clone()
	d.Value = f.Value()
	return d
}

// FieldType returns the rendering type recorded for the field.
func (f *InputField) FieldType() string {
	return f.descriptor.FieldType
}

// Bind attaches the entry to a store. Entries decoded from a saved document start unbound.
func (f *InputField) Bind(store *NodeStore) {
	f.store = store
}

func (f *InputField) source() *Field {
	if f.store == nil {
		return nil
	}
	return f.store.Field(f.NodeID, f.FieldName)
}

// Value reads the owning node's current field value.
func (f *InputField) Value() any {
	if src := f.source(); src != nil {
		return src.Value
	}
	return f.descriptor.Value
}

// SetValue writes v to the owning node's field.
func (f *InputField) SetValue(v any) {
	if src := f.source(); src != nil {
		src.Value = v
		return
	}
	f.descriptor.Value = v
}

func (f *InputField) MarshalJSON() ([]byte, error) {
	d := f.Descriptor()
	if d.Hints == nil {
		d.Hints = make(map[string]any, 3)
	}
	d.Hints["category"] = f.Category
	d.Hints["nodeId"] = f.NodeID
	d.Hints["fieldName"] = f.FieldName
	return json.Marshal(d)
}

// UnmarshalJSON accepts partial records; missing identity keys decode as empty strings.
func (f *InputField) UnmarshalJSON(data []byte) error {
	var d Field
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("decode input field: %w", err)
	}
	*f = InputField{}
	f.Category, _ = d.Hints["category"].(string)
	f.NodeID, _ = d.Hints["nodeId"].(string)
	f.FieldName, _ = d.Hints["fieldName"].(string)
	if d.Hints != nil {
		d.Hints = maps.Clone(d.Hints)
		delete(d.Hints, "category")
		delete(d.Hints, "nodeId")
		delete(d.Hints, "fieldName")
		if len(d.Hints) == 0 {
			d.Hints = nil
		}
	}
	f.descriptor = d
	return nil
}

type fieldKey struct {
	nodeID    string
	fieldName string
}
