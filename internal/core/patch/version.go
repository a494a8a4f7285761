// Package patch corrects the editor version recorded inside a reconstructed project.
package patch

import (
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultVersionField is the JSON path of the target-platform version
const DefaultVersionField = "targetVersions.target"

// Patcher rewrites the target version field of the project configuration file
type Patcher struct {
	configFile string
	field      string
}

// NewPatcher creates a patcher; empty arguments select the defaults
func NewPatcher(configFile, field string) *Patcher {
	if configFile == "" {
		configFile = model.DefaultConfigFile
	}
	if field == "" {
		field = DefaultVersionField
	}
	return &Patcher{configFile: configFile, field: field}
}

// PatchVersion sets the version field to project.EditorVersion. Every other byte of the
// configuration is preserved. A missing or unparseable configuration leaves the project
// unchanged; this is best effort and never fails.
func (p *Patcher) PatchVersion(project model.ReconstructedProject) model.ReconstructedProject {
	if project.EditorVersion == "" {
		return project
	}

	raw, ok := project.Files[p.configFile]
	if !ok {
		util.LogDebugf("No %s in project, skipping version patch", p.configFile)
		return project
	}
	if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		util.LogDebugf("%s is not a JSON object, skipping version patch", p.configFile)
		return project
	}
	if gjson.Get(raw, p.field).String() == project.EditorVersion {
		return project
	}

	patched, err := sjson.Set(raw, p.field, project.EditorVersion)
	if err != nil {
		util.LogDebugf("Failed to patch %s in %s: %v", p.field, p.configFile, err)
		return project
	}

	files := project.Files.Clone()
	files[p.configFile] = patched
	return model.ReconstructedProject{Files: files, EditorVersion: project.EditorVersion}
}
