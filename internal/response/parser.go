// Package response turns raw completion text into typed stage results.
package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/agentflow/pkg/models"
)

// ErrParse matches every *ParseFailure via errors.Is.
var ErrParse = errors.New("parse failure")

// Reason classifies why a response could not be used.
type Reason string

const (
	ReasonEmptyResponse Reason = "empty_response"
	ReasonInvalidJSON   Reason = "invalid_json"
	ReasonWrongShape    Reason = "wrong_shape"
	ReasonNoValidItems  Reason = "no_valid_items"
)

// rawPreviewLimit caps how much of the raw text is echoed in error messages.
const rawPreviewLimit = 200

// ParseFailure reports a response that could not be decoded into the
// expected shape. Raw keeps the full original text.
type ParseFailure struct {
	Reason Reason
	Raw    string
	Err    error
}

func (f *ParseFailure) Error() string {
	preview := strings.TrimSpace(f.Raw)
	if len(preview) > rawPreviewLimit {
		preview = preview[:rawPreviewLimit] + "... (truncated)"
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v (response: %q)", f.Reason, f.Err, preview)
	}
	return fmt.Sprintf("%s (response: %q)", f.Reason, preview)
}

func (f *ParseFailure) Unwrap() error { return f.Err }

// Is makes errors.Is(err, ErrParse) true for any ParseFailure.
func (f *ParseFailure) Is(target error) bool { return target == ErrParse }

func failure(reason Reason, raw string, err error) *ParseFailure {
	return &ParseFailure{Reason: reason, Raw: raw, Err: err}
}

// fenceRegex matches a whole response wrapped in a fenced code block with an
// optional language tag.
var fenceRegex = regexp.MustCompile("(?s)^```([\\w-]*)?[ \\t]*\\n?(.*?)\\n?\\s*```$")

// StripFences removes a surrounding markdown code fence and trims
// whitespace. Text without a fence is only trimmed.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRegex.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[2])
	}
	return s
}

// Decode strips fences and decodes the payload as JSON into T.
func Decode[T any](raw string) (T, error) {
	var out T
	payload := StripFences(raw)
	if payload == "" {
		return out, failure(ReasonEmptyResponse, raw, nil)
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return out, failure(ReasonWrongShape, raw, err)
		}
		return out, failure(ReasonInvalidJSON, raw, err)
	}
	return out, nil
}

// ParseDescriptions decodes a JSON array of sub-task descriptions.
// Blank entries are dropped; an array with nothing left is a failure.
func ParseDescriptions(raw string) ([]string, error) {
	items, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, failure(ReasonWrongShape, raw, fmt.Errorf("item %d is not a string", i))
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, failure(ReasonNoValidItems, raw, errors.New("no non-empty descriptions"))
	}
	return out, nil
}

// RoleTask is one decomposed sub-task in the role-tagged variant.
type RoleTask struct {
	Role models.AgentRole
	Task string
}

// roleTaskItem accepts both the documented keys and the ones the original
// prompts asked for.
type roleTaskItem struct {
	Role        string `json:"role"`
	Agent       string `json:"agent"`
	Task        string `json:"task"`
	Description string `json:"description"`
}

// ParseRoleTasks decodes a JSON array of {role, task} objects. Elements that
// are not objects, have mistyped fields, an unrecognized role or an empty
// task are dropped; only the array itself is a hard requirement.
func ParseRoleTasks(raw string) ([]RoleTask, error) {
	items, err := decodeArray(raw)
	if err != nil {
		return nil, err
	}

	out := make([]RoleTask, 0, len(items))
	for _, item := range items {
		if !isObject(item) {
			continue
		}
		var it roleTaskItem
		if err := json.Unmarshal(item, &it); err != nil {
			continue
		}

		label := it.Role
		if label == "" {
			label = it.Agent
		}
		role, ok := models.ParseRole(label)
		if !ok {
			continue
		}
		task := strings.TrimSpace(it.Task)
		if task == "" {
			task = strings.TrimSpace(it.Description)
		}
		if task == "" {
			continue
		}
		out = append(out, RoleTask{Role: role, Task: task})
	}
	if len(out) == 0 {
		return nil, failure(ReasonNoValidItems, raw, errors.New("no items with a recognized role and task"))
	}
	return out, nil
}

// ParseText validates a free-form stage result.
func ParseText(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", failure(ReasonEmptyResponse, raw, nil)
	}
	return s, nil
}

func decodeArray(raw string) ([]json.RawMessage, error) {
	payload := StripFences(raw)
	if payload == "" {
		return nil, failure(ReasonEmptyResponse, raw, nil)
	}
	if !json.Valid([]byte(payload)) {
		var probe any
		err := json.Unmarshal([]byte(payload), &probe)
		return nil, failure(ReasonInvalidJSON, raw, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace([]byte(payload)), []byte("[")) {
		return nil, failure(ReasonWrongShape, raw, errors.New("expected a JSON array"))
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, failure(ReasonWrongShape, raw, err)
	}
	return items, nil
}

func isObject(item json.RawMessage) bool {
	trimmed := bytes.TrimSpace(item)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
