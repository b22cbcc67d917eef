package schema

import "strings"

// Issue is a single violation found while validating a value.
type Issue struct {
	// Path locates the offending value: "" for the root, "a.b" for nested
	// object fields and "list[2]" for array items.
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError reports every violation of a value against a Shape,
// ordered by path.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid value: " + strings.Join(parts, "; ")
}

// Fields returns the distinct paths of the offending values in order.
func (e *ValidationError) Fields() []string {
	var fields []string
	for _, issue := range e.Issues {
		if len(fields) > 0 && fields[len(fields)-1] == issue.Path {
			continue
		}
		fields = append(fields, issue.Path)
	}
	return fields
}
