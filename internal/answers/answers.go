// Package answers collects the questionnaire answers for the active tool.
package answers

import (
	"strings"

	"github.com/cockroachdb/errors"

	"prompt_maker_server/internal/catalog"
)

var (
	// ErrNoActiveTool is returned when answers are edited before a tool is active.
	ErrNoActiveTool = errors.New("no active tool")
	// ErrFieldNotDeclared is returned for field ids the active tool does not declare.
	ErrFieldNotDeclared = errors.New("field not declared by active tool")
)

// Collector holds the answer set of one active tool. The zero value has no
// active tool. A Collector is not safe for concurrent use.
type Collector struct {
	tool   *catalog.Tool
	values map[string]string
}

// Activate discards any previous answers and starts an empty answer set for
// tool. A nil tool leaves the collector with no active tool.
func (c *Collector) Activate(tool *catalog.Tool) map[string]string {
	c.tool = tool
	c.values = nil
	if tool == nil {
		return map[string]string{}
	}
	c.values = make(map[string]string, len(tool.Fields))
	for _, f := range tool.Fields {
		c.values[f.ID] = ""
	}
	return c.Values()
}

// Reset drops the active tool and its answers.
func (c *Collector) Reset() {
	c.Activate(nil)
}

// Tool returns the active tool, or nil.
func (c *Collector) Tool() *catalog.Tool {
	return c.tool
}

// SetValue overwrites the answer for fieldID. Content is not validated.
func (c *Collector) SetValue(fieldID, value string) error {
	if c.tool == nil {
		return ErrNoActiveTool
	}
	if _, ok := c.values[fieldID]; !ok {
		return errors.Wrapf(ErrFieldNotDeclared, "tool %q has no field %q", c.tool.ID, fieldID)
	}
	c.values[fieldID] = value
	return nil
}

// Values returns a copy of the current answer set.
func (c *Collector) Values() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// IsComplete reports whether every declared field has a non-blank answer.
func (c *Collector) IsComplete() bool {
	return c.tool != nil && len(c.Missing()) == 0
}

// Missing lists, in questionnaire order, the fields whose answer is blank.
func (c *Collector) Missing() []string {
	if c.tool == nil {
		return nil
	}
	var missing []string
	for _, f := range c.tool.Fields {
		if strings.TrimSpace(c.values[f.ID]) == "" {
			missing = append(missing, f.ID)
		}
	}
	return missing
}
