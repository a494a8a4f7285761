package patch

import (
	"testing"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestPatcher_PatchVersion(t *testing.T) {
	config := `{
    "name": "blinky",
    "dependencies": {"core": "*"},
    "targetVersions": {"target": "4.0.0", "targetId": "microbit"}
}`
	project := model.ReconstructedProject{
		Files:         model.ProjectFileSet{"pxt.json": config, "main.ts": "x"},
		EditorVersion: "5.1.2",
	}

	got := NewPatcher("", "").PatchVersion(project)

	patched := got.Files["pxt.json"]
	assert.Equal(t, "5.1.2", gjson.Get(patched, "targetVersions.target").String())
	assert.Equal(t, "microbit", gjson.Get(patched, "targetVersions.targetId").String())
	assert.Equal(t, "blinky", gjson.Get(patched, "name").String())
	assert.Equal(t, "*", gjson.Get(patched, "dependencies.core").String())
	assert.Equal(t, "x", got.Files["main.ts"])

	// input untouched
	assert.Equal(t, config, project.Files["pxt.json"])
}

func TestPatcher_CreatesMissingField(t *testing.T) {
	project := model.ReconstructedProject{
		Files:         model.ProjectFileSet{"pxt.json": `{"name":"a"}`},
		EditorVersion: "1.2.3",
	}

	got := NewPatcher("", "").PatchVersion(project)
	assert.Equal(t, "1.2.3", gjson.Get(got.Files["pxt.json"], "targetVersions.target").String())
	assert.Equal(t, "a", gjson.Get(got.Files["pxt.json"], "name").String())
}

func TestPatcher_BestEffort(t *testing.T) {
	tests := []struct {
		name    string
		files   model.ProjectFileSet
		version string
	}{
		{name: "missing config", files: model.ProjectFileSet{"main.ts": "x"}, version: "1.0.0"},
		{name: "invalid json", files: model.ProjectFileSet{"pxt.json": "{oops"}, version: "1.0.0"},
		{name: "array root", files: model.ProjectFileSet{"pxt.json": "[1,2]"}, version: "1.0.0"},
		{name: "no version", files: model.ProjectFileSet{"pxt.json": `{"a":1}`}, version: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := model.ReconstructedProject{Files: tt.files, EditorVersion: tt.version}
			got := NewPatcher("", "").PatchVersion(project)
			assert.Equal(t, project, got)
		})
	}
}

func TestPatcher_CustomFile(t *testing.T) {
	project := model.ReconstructedProject{
		Files:         model.ProjectFileSet{"project.json": `{"editor":{"version":"1"}}`},
		EditorVersion: "2",
	}

	got := NewPatcher("project.json", "editor.version").PatchVersion(project)
	assert.Equal(t, "2", gjson.Get(got.Files["project.json"], "editor.version").String())
}
