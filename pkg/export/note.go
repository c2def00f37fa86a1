// Package export writes the dashboard as markdown notes with YAML
// frontmatter, one file per goal and task.
package export

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Note is a markdown file split into frontmatter and body.
type Note struct {
	Path        string
	Frontmatter any
	Content     string
}

// WriteNote writes a note, creating its directory.
func WriteNote(note *Note) error {
	fmData, err := yaml.Marshal(note.Frontmatter)
	if err != nil {
		return fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	content := fmt.Sprintf("---\n%s---\n%s", fmData, note.Content)

	if err := os.MkdirAll(filepath.Dir(note.Path), 0755); err != nil {
		return fmt.Errorf("failed to create note directory: %w", err)
	}
	if err := os.WriteFile(note.Path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	return nil
}

// ReadNote reads a note. Frontmatter is returned as a generic map; use Decode
// to bind it to a typed struct.
func ReadNote(path string) (*Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var fmLines, bodyLines []string
	inFrontmatter := false
	for line := 0; scanner.Scan(); line++ {
		text := scanner.Text()
		switch {
		case line == 0 && text == "---":
			inFrontmatter = true
		case inFrontmatter && text == "---":
			inFrontmatter = false
		case inFrontmatter:
			fmLines = append(fmLines, text)
		default:
			bodyLines = append(bodyLines, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var raw map[string]any
	if len(fmLines) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(fmLines, "\n")), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
	}

	return &Note{
		Path:        path,
		Frontmatter: raw,
		Content:     strings.Join(bodyLines, "\n"),
	}, nil
}

// Decode binds a note's frontmatter to out.
func (n *Note) Decode(out any) error {
	data, err := yaml.Marshal(n.Frontmatter)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// SanitizeFilename removes characters invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "-")
	}
	return strings.TrimSpace(name)
}
