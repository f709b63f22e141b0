// Package schema validates raw workflow imports before any other stage
// interprets them. Downstream stages never re-validate structure.
package schema

import (
	"encoding/json"

	"github.com/kaptinlin/jsonschema"

	"github.com/sells-group/quoteflow/internal/model"
)

// Code identifies why an import was rejected.
type Code string

const (
	CodeFileTooLarge  Code = "FILE_TOO_LARGE"
	CodeInvalidJSON   Code = "INVALID_JSON"
	CodeInvalidSchema Code = "INVALID_SCHEMA"
)

// Result is the outcome of validating a raw workflow import. On success
// Workflow carries the decoded import so callers do not parse twice.
type Result struct {
	Valid     bool                  `json:"valid"`
	Code      Code                  `json:"code,omitempty"`
	FieldPath string                `json:"field_path,omitempty"`
	Reason    string                `json:"reason,omitempty"`
	Workflow  *model.WorkflowImport `json:"-"`
}

// workflowSchema is the fixed import schema. Node ids and types are
// optional here: the normalizer synthesizes fallbacks for them.
const workflowSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"nodes": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"type": {"type": "string"},
					"name": {"type": "string"},
					"parameters": {"type": "object"}
				}
			}
		}
	}
}`

var compiledSchema = mustCompile(workflowSchema)

func mustCompile(src string) *jsonschema.Schema {
	s, err := jsonschema.NewCompiler().Compile([]byte(src))
	if err != nil {
		panic("schema: compile workflow schema: " + err.Error())
	}
	return s
}

// keyword priority for reporting the first violation: missing required
// field, then wrong type, then disallowed enum value, then anything else.
var keywordPriority = map[string]int{
	"required": 0,
	"type":     1,
	"enum":     2,
}

// ValidateWorkflow checks a raw import against the size ceiling and the
// fixed workflow schema. It has no side effects and must run before any
// downstream stage touches the payload.
func ValidateWorkflow(data []byte, size int64, maxBytes int64) *Result {
	if maxBytes > 0 && size > maxBytes {
		return &Result{
			Code:   CodeFileTooLarge,
			Reason: "import exceeds the maximum allowed size",
		}
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return &Result{
			Code:   CodeInvalidJSON,
			Reason: "import is not valid JSON",
		}
	}

	res := compiledSchema.Validate(instance)
	if !res.IsValid() {
		path, reason := firstViolation(res)
		return &Result{
			Code:      CodeInvalidSchema,
			FieldPath: path,
			Reason:    reason,
		}
	}

	var wf model.WorkflowImport
	if err := json.Unmarshal(data, &wf); err != nil {
		// Schema passed but the shape does not bind; treat as a schema
		// failure rather than crashing downstream.
		return &Result{
			Code:   CodeInvalidSchema,
			Reason: err.Error(),
		}
	}

	return &Result{Valid: true, Workflow: &wf}
}

type violation struct {
	path     string
	keyword  string
	message  string
	priority int
}

// firstViolation walks the evaluation tree and returns the highest-priority
// violating field path with a human-readable reason.
func firstViolation(res *jsonschema.EvaluationResult) (string, string) {
	best := violation{priority: 1 << 30}
	walkViolations(res, &best)
	if best.message == "" {
		return "", "workflow does not match the import schema"
	}
	return best.path, best.message
}

func walkViolations(res *jsonschema.EvaluationResult, best *violation) {
	if res == nil || res.IsValid() {
		return
	}
	for keyword, evalErr := range res.Errors {
		prio, ok := keywordPriority[keyword]
		if !ok {
			prio = len(keywordPriority)
		}
		if prio < best.priority {
			*best = violation{
				path:     res.InstanceLocation,
				keyword:  keyword,
				message:  evalErr.Error(),
				priority: prio,
			}
		}
	}
	for _, d := range res.Details {
		walkViolations(d, best)
	}
}
