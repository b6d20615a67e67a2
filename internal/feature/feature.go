// Package feature reads Gherkin feature files into the step texts a run
// would execute.
package feature

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

// Step is one executable step. Line is the step's line in the source file.
type Step struct {
	Line int
	Text string
}

// File is a parsed feature file.
type File struct {
	Path  string
	Title string
	// Steps holds every distinct step of every scenario with outline
	// examples substituted, in source order. Background steps appear once.
	Steps []Step
}

// Parse reads and compiles the feature file at path.
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ids := &messages.Incrementing{}
	doc, err := gherkin.ParseGherkinDocument(f, ids.NewId)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := &File{Path: path}
	if doc.Feature == nil {
		return out, nil
	}
	out.Title = doc.Feature.Name

	lines := stepLines(doc.Feature)
	seen := map[Step]bool{}
	for _, p := range gherkin.Pickles(*doc, path, ids.NewId) {
		for _, ps := range p.Steps {
			s := Step{Text: ps.Text}
			if len(ps.AstNodeIds) > 0 {
				s.Line = lines[ps.AstNodeIds[0]]
			}
			if !seen[s] {
				seen[s] = true
				out.Steps = append(out.Steps, s)
			}
		}
	}
	return out, nil
}

// Walk parses every .feature file under root, which may also name a single
// file, and calls fn for each.
func Walk(root string, fn func(*File) error) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".feature" {
			return nil
		}
		f, err := Parse(p)
		if err != nil {
			return err
		}
		return fn(f)
	})
}

// stepLines maps AST step ids to their source line.
func stepLines(feat *messages.Feature) map[string]int {
	lines := map[string]int{}
	add := func(steps []*messages.Step) {
		for _, s := range steps {
			if s.Location != nil {
				lines[s.Id] = int(s.Location.Line)
			}
		}
	}
	for _, c := range feat.Children {
		switch {
		case c.Background != nil:
			add(c.Background.Steps)
		case c.Scenario != nil:
			add(c.Scenario.Steps)
		case c.Rule != nil:
			for _, rc := range c.Rule.Children {
				if rc.Background != nil {
					add(rc.Background.Steps)
				}
				if rc.Scenario != nil {
					add(rc.Scenario.Steps)
				}
			}
		}
	}
	return lines
}
