package catalog

import (
	"bytes"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	apperrors "iq-bot/internal/common/errors"
	"iq-bot/internal/common/logger"
)

const (
	contentDir      = "prompt-contents"
	systemFile      = "system/system.txt"
	styleGuideFile  = "style-guide/guide.yaml"
	contentFileType = ".txt"
)

// Resources reads the content, instruction and style guide files from a
// resource tree such as os.DirFS("resources").
type Resources struct {
	fsys   fs.FS
	logger logger.Logger
}

func NewResources(fsys fs.FS, log logger.Logger) *Resources {
	return &Resources{
		fsys:   fsys,
		logger: log.WithFields(map[string]interface{}{"component": "resources"}),
	}
}

// ContentTemplate returns the content text for a topic. Its placeholders use
// the f<key> form.
func (r *Resources) ContentTemplate(topic string) (string, error) {
	return r.read(path.Join(contentDir, topic+contentFileType))
}

// SystemTemplate returns the instruction text; it references {fprompt} and
// {fstyle_guide}.
func (r *Resources) SystemTemplate() (string, error) {
	return r.read(systemFile)
}

// StyleGuide returns the style guide normalized to YAML. A missing or
// unparsable guide yields the empty string.
func (r *Resources) StyleGuide() string {
	data, err := fs.ReadFile(r.fsys, styleGuideFile)
	if err != nil {
		r.logger.Warn("style guide not available", map[string]interface{}{"path": styleGuideFile, "error": err.Error()})
		return ""
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		r.logger.Warn("style guide is not valid YAML", map[string]interface{}{"path": styleGuideFile, "error": err.Error()})
		return ""
	}
	if node.Kind == 0 {
		return ""
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		r.logger.Warn("style guide could not be encoded", map[string]interface{}{"error": err.Error()})
		return ""
	}
	_ = enc.Close()
	return buf.String()
}

func (r *Resources) read(name string) (string, error) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return "", apperrors.NewResourceMissingError(name, err)
	}
	return string(data), nil
}
