// ABOUTME: Tests for the skill registry
// ABOUTME: Covers manifest parsing, loading from directories, tool export and schema validation
package skills

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WildEllie/t3nets/internal/models"
)

const weatherManifest = `
name: weather
description: Current weather for a city
supports_raw: true
triggers: [weather, forecast]
parameters:
  type: object
  properties:
    city:
      type: string
  required: [city]
`

func okWorker(result models.SkillResult) Worker {
	return WorkerFunc(func(context.Context, map[string]any, map[string]string) (models.SkillResult, error) {
		return result, nil
	})
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(weatherManifest))
	require.NoError(t, err)
	assert.Equal(t, "weather", def.Name)
	assert.True(t, def.SupportsRaw)
	assert.Equal(t, []string{"weather", "forecast"}, def.Triggers)
	assert.Equal(t, "object", def.Parameters["type"])

	_, err = ParseDefinition([]byte("description: nameless"))
	assert.Error(t, err)

	_, err = ParseDefinition([]byte("name: [broken"))
	assert.Error(t, err)
}

func TestRegister_RejectsBadInput(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(models.SkillDefinition{Name: "  "}, nil))
	assert.Error(t, reg.Register(models.SkillDefinition{
		Name:       "bad",
		Parameters: map[string]any{"type": 12},
	}, nil))
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"weather/skill.yaml": {Data: []byte(weatherManifest)},
		"notes/skill.yaml":   {Data: []byte("name: notes\ndescription: Team notes\n")},
		"README.md":          {Data: []byte("ignored")},
	}
	reg := NewRegistry()
	names, err := reg.LoadFS(fsys, map[string]Worker{"weather": okWorker(models.SkillResult{"temp": 21})})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes", "weather"}, names)
	assert.Equal(t, []string{"notes", "weather"}, reg.Names())

	_, ok := reg.Worker("weather")
	assert.True(t, ok)
	_, ok = reg.Worker("notes")
	assert.False(t, ok)
}

func TestLoadFS_KeepsExistingWorker(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(models.SkillDefinition{Name: "weather"}, okWorker(models.SkillResult{"v": 1})))

	_, err := reg.LoadFS(fstest.MapFS{"weather/skill.yaml": {Data: []byte(weatherManifest)}}, nil)
	require.NoError(t, err)

	w, ok := reg.Worker("weather")
	require.True(t, ok)
	result, err := w.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result["v"])

	def, _ := reg.Get("weather")
	assert.Equal(t, "Current weather for a city", def.Description)
	assert.Len(t, reg.List(), 1)
}

func TestLoadFS_BadManifest(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.LoadFS(fstest.MapFS{"x/skill.yaml": {Data: []byte("description: no name")}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x/skill.yaml")
}

func TestLoadDirectory(t *testing.T) {
	reg := NewRegistry()

	names, err := reg.LoadDirectory(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)
	assert.Empty(t, names)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "weather"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "weather", ManifestName), []byte(weatherManifest), 0o644))

	names, err = reg.LoadDirectory(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"weather"}, names)

	file := filepath.Join(dir, "weather", ManifestName)
	_, err = reg.LoadDirectory(file, nil)
	assert.Error(t, err)
}

func TestToolsFor(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(models.SkillDefinition{Name: "a", Description: "A"}, nil))
	require.NoError(t, reg.Register(models.SkillDefinition{Name: "b", Description: "B", SupportsRaw: true}, nil))

	tools := reg.ToolsFor([]string{"b", "ghost", "a", "b"})
	require.Len(t, tools, 2)
	assert.Equal(t, "b", tools[0].Name)
	assert.Equal(t, "a", tools[1].Name)
	assert.Equal(t, "object", tools[1].InputSchema["type"])

	assert.Empty(t, reg.ToolsFor(nil))
	assert.NotNil(t, reg.ToolsFor(nil))

	assert.True(t, reg.SupportsRaw("b"))
	assert.False(t, reg.SupportsRaw("a"))
	assert.False(t, reg.SupportsRaw("ghost"))
}

func TestValidateParams(t *testing.T) {
	reg := NewRegistry()
	def, err := ParseDefinition([]byte(weatherManifest))
	require.NoError(t, err)
	require.NoError(t, reg.Register(def, nil))
	require.NoError(t, reg.Register(models.SkillDefinition{Name: "free"}, nil))

	assert.NoError(t, reg.ValidateParams("weather", map[string]any{"city": "Lisbon"}))
	assert.NoError(t, reg.ValidateParams("free", map[string]any{"anything": true}))

	err = reg.ValidateParams("weather", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city")

	err = reg.ValidateParams("weather", map[string]any{"city": 7})
	assert.Error(t, err)

	err = reg.ValidateParams("ghost", nil)
	assert.ErrorIs(t, err, ErrSkillNotFound)
}
