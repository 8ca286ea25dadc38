package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedAttribute is returned when an attribute value has no
// canonical encoding.
var ErrUnsupportedAttribute = errors.New("unsupported front matter value")

// Fingerprint computes a content fingerprint for a document.
//
// The attributes, minus the fingerprint field itself, are encoded
// canonically (see CanonicalAttributes) so the hash does not depend on map
// order or on which integer type a value was decoded into.
func Fingerprint(doc Document) (string, error) {
	fields := make(map[string]any, len(doc.Attributes))
	for k, v := range doc.Attributes {
		if k == mdfp.FingerprintField {
			continue
		}
		fields[k] = v
	}

	fm, err := CanonicalAttributes(fields)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return mdfp.CalculateFingerprintFromParts(fm, doc.Body), nil
}

// FingerprintHTML fingerprints rendered output, which has no front matter.
func FingerprintHTML(html string) string {
	return mdfp.CalculateFingerprintFromParts("", html)
}

// CanonicalAttributes encodes attributes as block YAML with keys sorted at
// every level, LF newlines and no trailing newline. An empty map encodes to "".
func CanonicalAttributes(fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	node, err := canonicalMap(fields)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func canonicalMap(m map[string]any) (*yaml.Node, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val, err := canonicalValue(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		n.Content = append(n.Content, scalar("!!str", k), val)
	}
	return n, nil
}

func canonicalValue(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case string:
		return scalar("!!str", vv), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(vv)), nil
	case int:
		return scalar("!!int", strconv.FormatInt(int64(vv), 10)), nil
	case int8:
		return scalar("!!int", strconv.FormatInt(int64(vv), 10)), nil
	case int16:
		return scalar("!!int", strconv.FormatInt(int64(vv), 10)), nil
	case int32:
		return scalar("!!int", strconv.FormatInt(int64(vv), 10)), nil
	case int64:
		return scalar("!!int", strconv.FormatInt(vv, 10)), nil
	case uint:
		return scalar("!!int", strconv.FormatUint(uint64(vv), 10)), nil
	case uint8:
		return scalar("!!int", strconv.FormatUint(uint64(vv), 10)), nil
	case uint16:
		return scalar("!!int", strconv.FormatUint(uint64(vv), 10)), nil
	case uint32:
		return scalar("!!int", strconv.FormatUint(uint64(vv), 10)), nil
	case uint64:
		return scalar("!!int", strconv.FormatUint(vv, 10)), nil
	case float32:
		return scalar("!!float", strconv.FormatFloat(float64(vv), 'g', -1, 32)), nil
	case float64:
		return scalar("!!float", strconv.FormatFloat(vv, 'g', -1, 64)), nil
	case time.Time:
		return scalar("!!timestamp", vv.UTC().Format(time.RFC3339Nano)), nil
	case map[string]any:
		return canonicalMap(vv)
	case map[string]string:
		converted := make(map[string]any, len(vv))
		for k, val := range vv {
			converted[k] = val
		}
		return canonicalMap(converted)
	case map[any]any:
		converted := make(map[string]any, len(vv))
		for k, val := range vv {
			converted[fmt.Sprint(k)] = val
		}
		return canonicalMap(converted)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for i, item := range vv {
			node, err := canonicalValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq.Content = append(seq.Content, node)
		}
		return seq, nil
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			seq.Content = append(seq.Content, scalar("!!str", item))
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAttribute, v)
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
