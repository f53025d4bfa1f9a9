package parse

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/codetutor/internal/foundation/errors"
)

// ExtractYAML returns the YAML payload of a model response. A ```yaml fence
// wins over a bare fence; without a fence the whole response is used.
func ExtractYAML(text string) string {
	if body, ok := fenced(text, "```yaml"); ok {
		return body
	}
	if body, ok := fenced(text, "```yml"); ok {
		return body
	}
	if body, ok := fenced(text, "```"); ok {
		return body
	}
	return strings.TrimSpace(text)
}

func fenced(text, open string) (string, bool) {
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	// The opening fence runs to the end of its line.
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", false
	}
	rest = rest[nl+1:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// Index is an integer index that also accepts the "3 # comment" form models
// tend to produce when the comment ends up quoted.
type Index int

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *Index) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected an index, got a %s", node.Line, kindName(node.Kind))
	}
	v := node.Value
	if hash := strings.IndexByte(v, '#'); hash >= 0 {
		v = v[:hash]
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("line %d: %q is not an index", node.Line, node.Value)
	}
	*i = Index(n)
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "scalar"
	}
}

func decode(step, text string, out any) error {
	payload := ExtractYAML(text)
	if payload == "" {
		return malformed(step, "response is empty", nil)
	}
	if err := yaml.Unmarshal([]byte(payload), out); err != nil {
		return malformed(step, "response is not valid YAML", err)
	}
	return nil
}

func malformed(step, reason string, cause error) error {
	b := ferrors.MalformedOutput(fmt.Sprintf("%s: %s", step, reason)).WithContext("step", step)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

// Reason returns the text shown to the model when a response is rejected.
func Reason(err error) string {
	if ce, ok := ferrors.AsClassified(err); ok {
		if ce.Cause() != nil {
			return ce.Message() + ": " + ce.Cause().Error()
		}
		return ce.Message()
	}
	return err.Error()
}
