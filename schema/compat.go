package schema

import (
	"fmt"
	"slices"
)

// Compatible reports whether every value accepted by producer is
// structurally acceptable to consumer: matching types, and every field the
// consumer requires is one the producer guarantees or the consumer can
// default. Constraints such as lengths and patterns are left to runtime
// validation. A nil shape on either side is compatible with anything.
func Compatible(producer, consumer *Shape) error {
	if producer == nil || consumer == nil {
		return nil
	}
	issues := compatible(producer.root, consumer.root, "")
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func compatible(p, c *node, path string) []Issue {
	if c.Type == "" || p.Type == "" {
		return nil
	}
	if p.Type != c.Type && !(p.Type == "integer" && c.Type == "number") {
		return []Issue{{Path: path, Message: fmt.Sprintf("produces %s but %s is expected", p.Type, c.Type)}}
	}

	var issues []Issue
	switch c.Type {
	case "array":
		issues = append(issues, compatible(p.Items, c.Items, path+"[]")...)
	case "object":
		for _, name := range sortedKeys(c.Properties) {
			cp := c.Properties[name]
			pp, declared := p.Properties[name]
			required := slices.Contains(c.Required, name) && cp.Default == nil
			if !declared {
				if required && (p.AdditionalProperties != nil && !*p.AdditionalProperties || len(p.Properties) > 0) {
					issues = append(issues, Issue{Path: join(path, name), Message: "is required but never produced"})
				}
				continue
			}
			if required && !slices.Contains(p.Required, name) {
				issues = append(issues, Issue{Path: join(path, name), Message: "is required but only optionally produced"})
			}
			issues = append(issues, compatible(pp, cp, join(path, name))...)
		}
	}
	return issues
}
