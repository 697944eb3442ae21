package host

import (
	"path/filepath"
	"strings"
)

const (
	audioExportSuffix = "_audio_export.wav"
	subtitleSuffix    = "_subtitles."
)

// ProjectFileExt is the extension of a host project file.
const ProjectFileExt = ".prproj"

// BaseName strips the extension from a project name ("Show.prproj" -> "Show").
func BaseName(projectName string) string {
	name := strings.TrimSpace(projectName)
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// ProjectDir resolves the directory holding project artifacts. Hosts report
// either the project file path or its directory. Only a ProjectFileExt path is
// a file; directory names may contain dots.
func ProjectDir(projectPath string) string {
	p := filepath.Clean(strings.TrimSpace(projectPath))
	if strings.EqualFold(filepath.Ext(p), ProjectFileExt) {
		return filepath.Dir(p)
	}
	return p
}

// AudioExportPath is <projectDir>/<projectName>_audio_export.wav.
func AudioExportPath(projectPath, projectName string) string {
	return filepath.Join(ProjectDir(projectPath), BaseName(projectName)+audioExportSuffix)
}

// SubtitlePath is <projectDir>/<projectName>_subtitles.<format>.
func SubtitlePath(projectPath, projectName string, format Format) string {
	return filepath.Join(ProjectDir(projectPath), BaseName(projectName)+subtitleSuffix+string(format))
}
