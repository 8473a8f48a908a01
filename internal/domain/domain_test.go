package domain_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/kaizen/internal/domain"
	"github.com/ashita-ai/kaizen/internal/llm"

	_ "github.com/ashita-ai/kaizen/internal/domain/svg"
	_ "github.com/ashita-ai/kaizen/internal/domain/text"
)

type fakePlugin struct {
	name string
}

func (p *fakePlugin) Name() string        { return p.name }
func (p *fakePlugin) Description() string { return "test plugin" }
func (p *fakePlugin) Subjects() []string  { return nil }
func (p *fakePlugin) Rubrics() []string   { return nil }
func (p *fakePlugin) Components(domain.Spec, llm.Client, llm.Client, *slog.Logger) (domain.Components, error) {
	return domain.Components{}, nil
}

func TestRegistryBuiltins(t *testing.T) {
	for _, name := range []string{"svg", "text"} {
		p, err := domain.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}

	var names []string
	for _, p := range domain.List() {
		names = append(names, p.Name())
	}
	assert.Contains(t, names, "svg")
	assert.Contains(t, names, "text")
}

func TestRegistryUnknownDomain(t *testing.T) {
	_, err := domain.Get("music")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown domain "music"`)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	domain.Register(&fakePlugin{name: "dup-test"})
	assert.Panics(t, func() {
		domain.Register(&fakePlugin{name: "dup-test"})
	})
}

func TestLoadSubjectEmbedded(t *testing.T) {
	s, err := domain.LoadSubject("svg", "unicorn")
	require.NoError(t, err)
	assert.Equal(t, "unicorn", s.Name)
	assert.NotEmpty(t, s.Description)
}

func TestLoadRubricEmbedded(t *testing.T) {
	r, err := domain.LoadRubric("svg", "anatomical_realism")
	require.NoError(t, err)
	assert.Equal(t, "anatomical_realism", r.Name)
	assert.NotEmpty(t, r.Text)
	assert.NotEmpty(t, r.DisplayName)
}

func TestLoadSubjectFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	doc := "name: custom\ndescription: a custom subject\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := domain.LoadSubject("svg", path)
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Name)
	assert.Equal(t, "a custom subject", s.Description)
}

func TestLoadSubjectUnknown(t *testing.T) {
	_, err := domain.LoadSubject("svg", "dragon")
	require.Error(t, err)
}

func TestLoadSubjectRequiresDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "incomplete.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: incomplete\n"), 0o644))

	_, err := domain.LoadSubject("svg", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must set name and description")
}

func TestListDocuments(t *testing.T) {
	subjects := domain.ListDocuments("svg", "subjects")
	assert.Contains(t, subjects, "unicorn")

	rubrics := domain.ListDocuments("text", "rubrics")
	assert.Contains(t, rubrics, "clarity")

	assert.Empty(t, domain.ListDocuments("nope", "subjects"))
}
