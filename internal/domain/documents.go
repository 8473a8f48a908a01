package domain

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashita-ai/kaizen/configs"
)

// Subject describes what to create.
type Subject struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Params      map[string]string `yaml:"params,omitempty"`
}

// Rubric describes how candidates are judged.
type Rubric struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Text        string `yaml:"rubric"`
}

// LoadSubject resolves a subject document for a domain. A name containing a
// path separator or a .yaml suffix is read from disk, anything else from the
// embedded document set.
func LoadSubject(domainName, name string) (Subject, error) {
	var s Subject
	if err := loadDocument(domainName, "subjects", name, &s); err != nil {
		return Subject{}, err
	}
	if s.Name == "" || s.Description == "" {
		return Subject{}, fmt.Errorf("domain: subject %q must set name and description", name)
	}
	return s, nil
}

// LoadRubric resolves a rubric document for a domain, with the same name
// resolution as LoadSubject.
func LoadRubric(domainName, name string) (Rubric, error) {
	var r Rubric
	if err := loadDocument(domainName, "rubrics", name, &r); err != nil {
		return Rubric{}, err
	}
	if r.Name == "" || r.Text == "" {
		return Rubric{}, fmt.Errorf("domain: rubric %q must set name and rubric", name)
	}
	if r.DisplayName == "" {
		r.DisplayName = r.Name
	}
	return r, nil
}

// ListDocuments returns the embedded document names for one domain and kind
// ("subjects" or "rubrics"), sorted by fs.ReadDir order.
func ListDocuments(domainName, kind string) []string {
	entries, err := fs.ReadDir(configs.FS, path.Join(domainName, kind))
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return out
}

func loadDocument(domainName, kind, name string, v any) error {
	var (
		raw []byte
		err error
	)
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		raw, err = os.ReadFile(name)
	} else {
		raw, err = fs.ReadFile(configs.FS, path.Join(domainName, kind, name+".yaml"))
	}
	if err != nil {
		return fmt.Errorf("domain: load %s %q: %w", strings.TrimSuffix(kind, "s"), name, err)
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("domain: parse %s %q: %w", strings.TrimSuffix(kind, "s"), name, err)
	}
	return nil
}
