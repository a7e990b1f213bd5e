package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidPath      = errors.New("invalid path")
	ErrOverlappingPaths = errors.New("update paths overlap")
)

// ServerTimestamp is replaced by the store clock (milliseconds since epoch) when written.
var ServerTimestamp = map[string]interface{}{".sv": "timestamp"}

const invalidKeyChars = ".#$[]/"

// ValidateKey checks that key can be used as a single path segment.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidPath)
	}
	if strings.ContainsAny(key, invalidKeyChars) {
		return fmt.Errorf("%w: key %q must not contain any of %q", ErrInvalidPath, key, invalidKeyChars)
	}
	return nil
}

// SplitPath turns "/storage/EQ001/qty" into its segments. The root path yields no segments.
func SplitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, nil
	}

	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if err := ValidateKey(segment); err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
	}
	return segments, nil
}

func JoinPath(segments ...string) string {
	return "/" + strings.Join(segments, "/")
}

func overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type pathWrite struct {
	segments []string
	value    interface{}
}

// prepareWrites validates and normalises a multi-path update. Writes are returned in path order.
func prepareWrites(updates map[string]interface{}) ([]pathWrite, error) {
	writes := make([]pathWrite, 0, len(updates))
	for path, value := range updates {
		segments, err := SplitPath(path)
		if err != nil {
			return nil, err
		}
		if len(segments) == 0 {
			return nil, fmt.Errorf("%w: cannot write the root", ErrInvalidPath)
		}

		normalized, err := normalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		writes = append(writes, pathWrite{segments: segments, value: normalized})
	}

	sort.Slice(writes, func(i, j int) bool {
		return strings.Join(writes[i].segments, "/") < strings.Join(writes[j].segments, "/")
	})

	for i := range writes {
		for j := i + 1; j < len(writes); j++ {
			if overlaps(writes[i].segments, writes[j].segments) {
				return nil, fmt.Errorf("%w: %s and %s",
					ErrOverlappingPaths, JoinPath(writes[i].segments...), JoinPath(writes[j].segments...))
			}
		}
	}
	return writes, nil
}

// normalizeValue converts any JSON-serialisable value into the generic tree form
// (map[string]interface{}, []interface{}, json.Number, string, bool, nil) and prunes empty maps.
func normalizeValue(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	decoded, err := decodeTree(raw)
	if err != nil {
		return nil, err
	}
	return prune(decoded), nil
}

func decodeTree(raw []byte) (interface{}, error) {
	var out interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

func prune(value interface{}) interface{} {
	node, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	for key, child := range node {
		child = prune(child)
		if child == nil {
			delete(node, key)
			continue
		}
		node[key] = child
	}
	if len(node) == 0 {
		return nil
	}
	return node
}

func isServerTimestamp(node map[string]interface{}) bool {
	if len(node) != 1 {
		return false
	}
	v, ok := node[".sv"].(string)
	return ok && v == "timestamp"
}

func containsServerValue(value interface{}) bool {
	node, ok := value.(map[string]interface{})
	if !ok {
		return false
	}
	if isServerTimestamp(node) {
		return true
	}
	for _, child := range node {
		if containsServerValue(child) {
			return true
		}
	}
	return false
}

func resolveServerValues(value interface{}, nowMillis int64) interface{} {
	node, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	if isServerTimestamp(node) {
		return json.Number(fmt.Sprintf("%d", nowMillis))
	}
	for key, child := range node {
		node[key] = resolveServerValues(child, nowMillis)
	}
	return node
}

func getNode(root interface{}, segments []string) (interface{}, bool) {
	current := root
	for _, segment := range segments {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}

// setNode writes value at segments below node. A nil value deletes, and parents left empty are removed.
func setNode(node map[string]interface{}, segments []string, value interface{}) {
	key := segments[0]
	if len(segments) == 1 {
		if value == nil {
			delete(node, key)
		} else {
			node[key] = value
		}
		return
	}

	child, ok := node[key].(map[string]interface{})
	if !ok {
		if value == nil {
			return
		}
		child = map[string]interface{}{}
		node[key] = child
	}
	setNode(child, segments[1:], value)
	if len(child) == 0 {
		delete(node, key)
	}
}

func encodeNode(value interface{}) (json.RawMessage, error) {
	if value == nil {
		return json.RawMessage("null"), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode node: %w", err)
	}
	return raw, nil
}
