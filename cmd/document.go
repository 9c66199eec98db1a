package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"workflow-studio/api/services/workflow"
)

// readDocument loads a workflow document from a JSON or YAML file. YAML is converted to JSON
// first so both go through the same decoders. Mapping order is kept, so template fields come
// out in the order they were written.
func readDocument(path string) (*workflow.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return decodeDocument(data, filepath.Ext(path))
}

func decodeDocument(data []byte, ext string) (*workflow.Workflow, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml document: %w", err)
		}
		var buf bytes.Buffer
		if err := yamlToJSON(&buf, &doc); err != nil {
			return nil, fmt.Errorf("convert yaml document: %w", err)
		}
		data = buf.Bytes()
	}

	var wf workflow.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &wf, nil
}

func yamlToJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return yamlToJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return yamlToJSON(buf, n.Alias)
	case yaml.MappingNode:
		pairs, err := mappingPairs(n)
		if err != nil {
			return err
		}
		buf.WriteByte('{')
		for i, p := range pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(p.key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := yamlToJSON(buf, p.value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := yamlToJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(out)
		return nil
	}
}

type yamlPair struct {
	key   string
	value *yaml.Node
}

// mappingPairs flattens a mapping, expanding merge keys (<<). Merged keys come first in the
// order they were merged; a key written in the mapping itself overrides a merged one, and in
// a merged sequence the earlier mapping wins.
func mappingPairs(n *yaml.Node) ([]yamlPair, error) {
	var merged, local []yamlPair
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.ShortTag() != "!!merge" {
			local = append(local, yamlPair{key: k.Value, value: v})
			continue
		}
		sources := []*yaml.Node{v}
		if resolved := resolveAlias(v); resolved.Kind == yaml.SequenceNode {
			sources = resolved.Content
		}
		for _, src := range sources {
			src = resolveAlias(src)
			if src.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: merge value is not a mapping", src.Line)
			}
			pairs, err := mappingPairs(src)
			if err != nil {
				return nil, err
			}
			merged = append(merged, pairs...)
		}
	}

	out := make([]yamlPair, 0, len(merged)+len(local))
	index := make(map[string]int, len(merged)+len(local))
	for _, p := range merged {
		if _, ok := index[p.key]; !ok {
			index[p.key] = len(out)
			out = append(out, p)
		}
	}
	for _, p := range local {
		if i, ok := index[p.key]; ok {
			out[i].value = p.value
			continue
		}
		index[p.key] = len(out)
		out = append(out, p)
	}
	return out, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
