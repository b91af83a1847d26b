// Package catalog holds the guided tools offered by Prompt Maker: their
// questionnaires and the prompt skeletons their answers are rendered into.
package catalog

import (
	_ "embed"
	"strings"
	"sync"
	"text/template"
	"text/template/parse"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

//go:embed tools.yaml
var defaultCatalogYAML []byte

// ErrToolNotFound is returned when a tool id is not part of the catalog.
var ErrToolNotFound = errors.New("tool not found")

// FieldKind tells the shells which input control to draw for a field.
type FieldKind string

const (
	KindText     FieldKind = "text"     // single-line
	KindTextarea FieldKind = "textarea" // multi-line
)

// Field is one question of a tool's questionnaire.
type Field struct {
	ID          string    `yaml:"id"`
	Label       string    `yaml:"label"`
	Placeholder string    `yaml:"placeholder"`
	Kind        FieldKind `yaml:"kind"`
}

// Section is one "# HEADING" block of a generated prompt. Body is a
// text/template over the answer map.
type Section struct {
	Heading string `yaml:"heading"`
	Body    string `yaml:"body"`

	tmpl *template.Template
}

// Tool is a guided prompt generator. Tools are immutable once loaded.
type Tool struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Fields      []Field   `yaml:"fields"`
	Sections    []Section `yaml:"sections"`
}

// HasField reports whether id is one of the tool's declared fields.
func (t *Tool) HasField(id string) bool {
	for _, f := range t.Fields {
		if f.ID == id {
			return true
		}
	}
	return false
}

// FieldIDs returns the declared field ids in questionnaire order.
func (t *Tool) FieldIDs() []string {
	ids := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		ids[i] = f.ID
	}
	return ids
}

// FAQItem is a question/answer pair shown on the help page.
type FAQItem struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// Catalog is the read-only registry of tools.
type Catalog struct {
	tools []*Tool
	byID  map[string]*Tool
	faq   []FAQItem
}

type catalogFile struct {
	Tools []*Tool   `yaml:"tools"`
	FAQ   []FAQItem `yaml:"faq"`
}

// Load parses and validates a YAML catalog. Every field a section template
// references must be declared by its tool.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	if len(file.Tools) == 0 {
		return nil, errors.New("catalog defines no tools")
	}

	c := &Catalog{
		tools: file.Tools,
		byID:  make(map[string]*Tool, len(file.Tools)),
		faq:   file.FAQ,
	}
	for _, tool := range file.Tools {
		if err := compileTool(tool); err != nil {
			return nil, err
		}
		if _, dup := c.byID[tool.ID]; dup {
			return nil, errors.Newf("duplicate tool id %q", tool.ID)
		}
		c.byID[tool.ID] = tool
	}
	return c, nil
}

func compileTool(tool *Tool) error {
	if strings.TrimSpace(tool.ID) == "" {
		return errors.New("tool with empty id")
	}
	if len(tool.Fields) == 0 {
		return errors.Newf("tool %q declares no fields", tool.ID)
	}

	seen := make(map[string]bool, len(tool.Fields))
	for _, f := range tool.Fields {
		if strings.TrimSpace(f.ID) == "" {
			return errors.Newf("tool %q has a field with empty id", tool.ID)
		}
		if seen[f.ID] {
			return errors.Newf("tool %q declares field %q twice", tool.ID, f.ID)
		}
		seen[f.ID] = true
		switch f.Kind {
		case KindText, KindTextarea:
		default:
			return errors.Newf("tool %q field %q has unknown kind %q", tool.ID, f.ID, f.Kind)
		}
	}

	if len(tool.Sections) == 0 {
		return errors.Newf("tool %q declares no sections", tool.ID)
	}
	for i := range tool.Sections {
		sec := &tool.Sections[i]
		name := tool.ID + "/" + sec.Heading
		tmpl, err := template.New(name).Option("missingkey=zero").Parse(sec.Body)
		if err != nil {
			return errors.Wrapf(err, "parse section %q", name)
		}
		if tmpl.Tree != nil {
			for _, ref := range referencedFields(tmpl.Tree.Root) {
				if !seen[ref] {
					return errors.Newf("section %q references undeclared field %q", name, ref)
				}
			}
		}
		sec.tmpl = tmpl
	}
	return nil
}

// referencedFields collects the top-level keys a template reads from its data.
func referencedFields(node parse.Node) []string {
	var refs []string
	var walk func(parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			walk(n.Pipe)
		case *parse.PipeNode:
			if n == nil {
				return
			}
			for _, cmd := range n.Cmds {
				walk(cmd)
			}
		case *parse.CommandNode:
			for _, arg := range n.Args {
				walk(arg)
			}
		case *parse.FieldNode:
			if len(n.Ident) > 0 {
				refs = append(refs, n.Ident[0])
			}
		case *parse.IfNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.Pipe)
			walk(n.List)
			walk(n.ElseList)
		}
	}
	walk(node)
	return refs
}

// List returns the tools in catalog order.
func (c *Catalog) List() []*Tool {
	out := make([]*Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Find looks a tool up by id. A miss means "no active tool", not a failure.
func (c *Catalog) Find(id string) (*Tool, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// FAQ returns the help page entries.
func (c *Catalog) FAQ() []FAQItem {
	out := make([]FAQItem, len(c.faq))
	copy(out, c.faq)
	return out
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultCatalogYAML)
		if err != nil {
			panic(errors.Wrap(err, "embedded catalog is invalid"))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
