package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const scriptTemplate = `-- {{.Name}} ({{.Direction}})
-- Created: {{.Created}}

`

var (
	scriptFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)
	nonWordPattern    = regexp.MustCompile(`[^a-z0-9]+`)
)

// ScriptFile describes a created up/down script pair
type ScriptFile struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// CreateScript writes an empty up/down pair into dir, numbered one past the
// highest version already there.
func CreateScript(dir, name string) (*ScriptFile, error) {
	slug := slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	latest, err := latestVersion(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	sf := &ScriptFile{Version: latest + 1, Name: slug}
	base := fmt.Sprintf("%06d_%s", sf.Version, slug)
	sf.UpPath = filepath.Join(dir, base+".up.sql")
	sf.DownPath = filepath.Join(dir, base+".down.sql")

	tmpl := template.Must(template.New("script").Parse(scriptTemplate))
	created := time.Now().Format(time.RFC3339)
	for path, direction := range map[string]string{sf.UpPath: "up", sf.DownPath: "down"} {
		if err := writeScript(path, tmpl, map[string]string{"Name": slug, "Direction": direction, "Created": created}); err != nil {
			_ = os.Remove(sf.UpPath)
			_ = os.Remove(sf.DownPath)
			return nil, err
		}
	}
	return sf, nil
}

func writeScript(path string, tmpl *template.Template, data any) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

func slugify(name string) string {
	return strings.Trim(nonWordPattern.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// ListScripts returns the versioned base names (e.g. 000001_init) of every up
// script in fsys, in version order.
func ListScripts(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	type entry struct {
		version uint64
		base    string
	}
	var found []entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := scriptFilePattern.FindStringSubmatch(e.Name())
		if m == nil || m[3] != "up" {
			continue
		}
		v, _ := strconv.ParseUint(m[1], 10, 64)
		found = append(found, entry{version: v, base: m[1] + "_" + m[2]})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].version < found[j].version })

	out := make([]string, len(found))
	for i, e := range found {
		out[i] = e.base
	}
	return out, nil
}

func latestVersion(fsys fs.FS) (uint, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}
	var latest uint64
	for _, e := range entries {
		m := scriptFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if v, err := strconv.ParseUint(m[1], 10, 64); err == nil && v > latest {
			latest = v
		}
	}
	return uint(latest), nil
}
