// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package tier

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/strata-dev/strata/internal/memory"
)

// deriveSchema builds a schema descriptor from resident payload state. It is
// used by the tiers that hold payloads in-process; the table tiers
// introspect stored SQL state instead.
func deriveSchema(p *memory.Payload) *memory.SchemaDescriptor {
	desc := &memory.SchemaDescriptor{
		Kind:   p.Kind,
		Source: p.Attrs["source"],
	}

	switch {
	case p.Table != nil:
		desc.TableName = p.Table.Name
		for _, col := range p.Table.Columns {
			desc.Fields = append(desc.Fields, memory.FieldSchema{Name: col.Name, Type: col.Type})
		}

	case len(p.Vector) > 0:
		desc.Fields = append(desc.Fields, memory.FieldSchema{
			Name: "vector",
			Type: fmt.Sprintf("float32[%d]", len(p.Vector)),
		})
		for _, key := range sortedKeys(p.Attrs) {
			if key == "source" {
				continue
			}
			desc.Fields = append(desc.Fields, memory.FieldSchema{Name: key, Type: "string"})
		}

	case len(p.Bytes) > 0 && (p.Kind == memory.DataTypeDict || p.Kind == memory.DataTypeText):
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(p.Bytes, &obj); err == nil {
			keys := make([]string, 0, len(obj))
			for k := range obj {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				desc.Fields = append(desc.Fields, memory.FieldSchema{Name: k, Type: jsonTypeName(obj[k])})
			}
			break
		}
		desc.Fields = append(desc.Fields, memory.FieldSchema{Name: "text", Type: "string"})

	default:
		desc.Fields = append(desc.Fields, memory.FieldSchema{Name: "bytes", Type: "blob"})
	}

	return desc
}

// jsonTypeName classifies a raw JSON value by its first byte.
func jsonTypeName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
