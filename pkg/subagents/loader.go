package subagents

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter mirrors the YAML header of a definition file.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Tools       string `yaml:"tools"` // comma separated
}

// Load reads sub-agent definitions from every .md file under dir, in name
// order. Errors are aggregated per file so a single bad definition does not
// block the rest. A missing directory is not an error.
func Load(dir string) ([]Definition, []error) {
	var errs []error
	byName := map[string]Definition{}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("subagents: stat %s: %w", dir, err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("subagents: path %s is not a directory", dir)}
	}

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			errs = append(errs, fmt.Errorf("subagents: walk %s: %w", path, walkErr))
			return nil
		}
		if d.IsDir() || strings.ToLower(filepath.Ext(d.Name())) != ".md" {
			return nil
		}
		def, err := parseDefinitionFile(path)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		if _, exists := byName[def.Name]; exists {
			errs = append(errs, fmt.Errorf("subagents: duplicate definition %q in %s", def.Name, dir))
			return nil
		}
		byName[def.Name] = def
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, byName[name])
	}
	return defs, errs
}

func parseDefinitionFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("subagents: read %s: %w", path, err)
	}
	meta, body, err := splitFrontmatter(string(data))
	if err != nil {
		return Definition{}, fmt.Errorf("subagents: parse %s: %w", path, err)
	}

	name := strings.ToLower(strings.TrimSpace(meta.Name))
	if name == "" {
		name = strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}

	def := Definition{
		Name:        name,
		Description: strings.TrimSpace(meta.Description),
		Prompt:      body,
		Tools:       parseToolList(meta.Tools),
	}
	if err := validateDefinition(def); err != nil {
		return Definition{}, fmt.Errorf("subagents: validate %s: %w", path, err)
	}
	return def, nil
}

func splitFrontmatter(content string) (frontmatter, string, error) {
	trimmed := strings.TrimPrefix(content, "\uFEFF") // drop BOM if present
	lines := strings.Split(trimmed, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return frontmatter{}, "", errors.New("missing YAML frontmatter")
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return frontmatter{}, "", errors.New("missing closing frontmatter separator")
	}

	var meta frontmatter
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &meta); err != nil {
		return frontmatter{}, "", fmt.Errorf("decode YAML: %w", err)
	}

	body := strings.Join(lines[end+1:], "\n")
	body = strings.TrimPrefix(body, "\n")
	return meta, body, nil
}

func parseToolList(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := map[string]struct{}{}
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
