package assemble

import (
	"bytes"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

const delimiter = "---\n"

// Frontmatter keys written by the assembler.
const (
	keyGenerator = "generator"
	keyTitle     = "title"
	keyWeight    = "weight"
	keyUID       = "uid"
)

var errMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// splitFrontmatter separates `---` delimited YAML frontmatter from the body.
// had is false when the document does not open with a delimiter.
func splitFrontmatter(content []byte) (fm, body []byte, had bool, err error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte(delimiter)) {
		return nil, content, false, nil
	}
	rest := content[len(delimiter):]
	if bytes.HasPrefix(rest, []byte(delimiter)) {
		return []byte{}, rest[len(delimiter):], true, nil
	}
	idx := bytes.Index(rest, []byte("\n"+delimiter))
	if idx < 0 {
		return nil, nil, false, errMissingClosingDelimiter
	}
	return rest[:idx+1], rest[idx+1+len(delimiter):], true, nil
}

// parseFrontmatter decodes raw frontmatter into a map.
func parseFrontmatter(fm []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(fm) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// serializeFrontmatter renders fields as YAML with sorted keys.
// Only the scalar types the assembler writes are supported.
func serializeFrontmatter(fields map[string]any) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		val := &yaml.Node{Kind: yaml.ScalarNode}
		switch v := fields[k].(type) {
		case string:
			val.Tag, val.Value = "!!str", v
		case int:
			val.Tag, val.Value = "!!int", strconv.Itoa(v)
		case bool:
			val.Tag, val.Value = "!!bool", strconv.FormatBool(v)
		default:
			return nil, errors.New("unsupported frontmatter value for key " + k)
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, val)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// joinFrontmatter reassembles a document from serialized frontmatter and body.
func joinFrontmatter(fm, body []byte) []byte {
	out := make([]byte, 0, 2*len(delimiter)+len(fm)+len(body))
	out = append(out, delimiter...)
	out = append(out, fm...)
	out = append(out, delimiter...)
	return append(out, body...)
}

// fingerprint hashes the frontmatter (without fingerprint and uid) together
// with the body, so the value only changes when the rendered content does.
func fingerprint(fields map[string]any, body []byte) (string, error) {
	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField || k == keyUID {
			continue
		}
		hashed[k] = v
	}
	fm, err := serializeFrontmatter(hashed)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body)), nil
}

// renderDocument attaches frontmatter, including its fingerprint, to body.
func renderDocument(fields map[string]any, body []byte) ([]byte, error) {
	fp, err := fingerprint(fields, body)
	if err != nil {
		return nil, err
	}
	withFP := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		withFP[k] = v
	}
	withFP[mdfp.FingerprintField] = fp
	fm, err := serializeFrontmatter(withFP)
	if err != nil {
		return nil, err
	}
	return joinFrontmatter(fm, body), nil
}
