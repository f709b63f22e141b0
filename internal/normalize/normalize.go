// Package normalize converts a structurally valid workflow import into a
// flat list of typed nodes with stable identifiers and content hashes.
package normalize

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/quoteflow/internal/model"
)

var labelCaser = cases.Title(language.English)

// Workflow normalizes every node of an import, preserving input order and
// dropping nothing. A nil or missing node list yields an empty result.
func Workflow(imp model.WorkflowImport) []model.NormalizedNode {
	nodes := make([]model.NormalizedNode, 0, len(imp.Nodes))
	for _, raw := range imp.Nodes {
		nodes = append(nodes, Node(raw))
	}
	return nodes
}

// Node normalizes a single raw node, synthesizing an id and label when the
// import omits them.
func Node(raw model.RawNode) model.NormalizedNode {
	nodeType := typeSegment(raw.Type)

	id := raw.ID
	if id == "" {
		id = synthesizeID()
	}

	label := strings.TrimSpace(raw.Name)
	if label == "" {
		label = labelCaser.String(strings.ReplaceAll(nodeType, "_", " "))
	}

	return model.NormalizedNode{
		NodeID:         id,
		NodeType:       nodeType,
		ShortLabel:     label,
		ParamsHash:     ParamsHash(raw.Parameters),
		EstimatedUnits: 1,
	}
}

// typeSegment derives the canonical node type from the trailing dotted
// segment of the raw type string, e.g. "n8n-nodes-base.httpRequest" yields
// "httpRequest".
func typeSegment(rawType string) string {
	rawType = strings.TrimSpace(rawType)
	if rawType == "" {
		return "unknown"
	}
	if i := strings.LastIndex(rawType, "."); i >= 0 {
		seg := rawType[i+1:]
		if seg == "" {
			return "unknown"
		}
		return seg
	}
	return rawType
}

// synthesizeID builds a node id from the current time plus a random suffix
// so synthesized ids never collide within or across imports.
func synthesizeID() string {
	return fmt.Sprintf("node_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// ParamsHash computes a deterministic SHA-256 over a node's parameters with
// all object keys recursively sorted. Identical parameters hash identically
// regardless of key order in the source document.
func ParamsHash(params map[string]any) string {
	var b strings.Builder
	writeCanonical(&b, params)
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}

func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			enc, _ := json.Marshal(k)
			b.Write(enc)
			b.WriteByte(':')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		// Scalars round-trip through encoding/json for stable formatting.
		enc, _ := json.Marshal(val)
		b.Write(enc)
	}
}
