package workflow

import "slices"

// FieldTypeParagraph is the decorative paragraph field type. Entries of this type are rendering
// only and survive reconciliation even when no node re-contributes them.
const FieldTypeParagraph = "typography-paragraph"

// UIProjection is the run-form layout derived from a workflow's nodes and saved with the
// document. The saved copy is the baseline for the next Project call.
type UIProjection struct {
	InputFields               []*InputField `json:"inputFields"`
	OutputNodes               []*Node       `json:"outputNodes"`
	TriggerNodes              []*Node       `json:"triggerNodes"`
	WorkflowInvokeOutputNodes []*Node       `json:"workflowInvokeOutputNodes"`
}

// ProjectionOptions configures Project.
type ProjectionOptions struct {
	// NonFormFieldTypes lists field types exempt from stale-entry pruning.
	NonFormFieldTypes []string `json:"nonFormFieldTypes"`
}

// DefaultProjectionOptions exempts paragraph fields only.
func DefaultProjectionOptions() ProjectionOptions {
	return ProjectionOptions{NonFormFieldTypes: []string{FieldTypeParagraph}}
}

// Project folds the store's nodes into a new UI projection, reconciled against previous.
//
// Entries still contributed by a node keep their saved position and are refreshed in place;
// new entries are appended; saved entries nothing contributes any more are dropped unless their
// field type is non-form. A nil previous means no prior state. previous is not modified.
// When node ids repeat, only the first node with an id is projected.
func Project(store *NodeStore, previous *UIProjection, opts ProjectionOptions) *UIProjection {
	if previous == nil {
		previous = &UIProjection{}
	}

	inputs := newKeyedList(previous.InputFields, (*InputField).key, func(f *InputField) *InputField {
		c := *f
		c.descriptor = f.descriptor.Clone()
		c.store = store
		return &c
	})
	outputs := newKeyedList(previous.OutputNodes, nodeKey, nil)
	triggers := newKeyedList(previous.TriggerNodes, nodeKey, nil)
	invokeOutputs := make([]*Node, 0)

	nodes := store.Nodes()
	for i := range nodes {
		n := &nodes[i]
		if store.Node(n.ID) != n {
			// A later node repeating an id; the store resolves the id to the first one.
			continue
		}
		switch n.Category {
		case CategoryTriggers:
			triggers.put(n)
		case CategoryOutputs:
			if OutputType(n.Type) == OutputWorkflowInvoke {
				invokeOutputs = append(invokeOutputs, n)
				continue
			}
			if includeOutput(n, opts.NonFormFieldTypes) {
				outputs.put(n)
			}
		default:
			if !n.Data.HasInputs && n.hasShownFields() {
				continue
			}
			for _, name := range n.Data.Template.Names() {
				if f := n.Field(name); f != nil && f.Show {
					inputs.put(newInputField(store, n, name, f))
				}
			}
		}
	}

	return &UIProjection{
		InputFields: inputs.prune(func(f *InputField) bool {
			return slices.Contains(opts.NonFormFieldTypes, f.FieldType())
		}),
		OutputNodes:               outputs.prune(nil),
		TriggerNodes:              triggers.prune(nil),
		WorkflowInvokeOutputNodes: invokeOutputs,
	}
}

// Bind attaches every input field to store. Used after decoding a saved projection.
func (p *UIProjection) Bind(store *NodeStore) {
	if p == nil {
		return
	}
	for _, f := range p.InputFields {
		if f != nil {
			f.Bind(store)
		}
	}
}

// InputField returns the projected entry for a node field, or nil.
func (p *UIProjection) InputField(nodeID, fieldName string) *InputField {
	if p == nil {
		return nil
	}
	for _, f := range p.InputFields {
		if f != nil && f.NodeID == nodeID && f.FieldName == fieldName {
			return f
		}
	}
	return nil
}

func nodeKey(n *Node) string {
	return n.ID
}

// keyedList is an ordered working list with O(1) replace-in-place by identity key, plus the set
// of keys carried over from the previous projection that nothing has re-contributed yet.
type keyedList[K comparable, V any] struct {
	items  []*V
	index  map[K]int
	unused map[K]bool
	keyOf  func(*V) K
}

// newKeyedList seeds the list from previous entries. Nil entries and repeated keys are dropped;
// the first occurrence of a key keeps its position.
func newKeyedList[K comparable, V any](prev []*V, keyOf func(*V) K, clone func(*V) *V) *keyedList[K, V] {
	l := &keyedList[K, V]{
		items:  make([]*V, 0, len(prev)),
		index:  make(map[K]int, len(prev)),
		unused: make(map[K]bool, len(prev)),
		keyOf:  keyOf,
	}
	for _, v := range prev {
		if v == nil {
			continue
		}
		k := keyOf(v)
		if _, dup := l.index[k]; dup {
			continue
		}
		if clone != nil {
			v = clone(v)
		}
		l.index[k] = len(l.items)
		l.items = append(l.items, v)
		l.unused[k] = true
	}
	return l
}

// put replaces the entry with the same key, or appends a new one, and marks the key as used.
func (l *keyedList[K, V]) put(v *V) {
	k := l.keyOf(v)
	if i, ok := l.index[k]; ok {
		l.items[i] = v
	} else {
		l.index[k] = len(l.items)
		l.items = append(l.items, v)
	}
	delete(l.unused, k)
}

// prune returns the working list without stale entries. exempt may spare some of them.
func (l *keyedList[K, V]) prune(exempt func(*V) bool) []*V {
	out := make([]*V, 0, len(l.items))
	for _, v := range l.items {
		if l.unused[l.keyOf(v)] && (exempt == nil || !exempt(v)) {
			continue
		}
		out = append(out, v)
	}
	return out
}
