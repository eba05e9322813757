package build

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is the dialect of the written artifact.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an artifact format. An empty value means FormatText.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (must be one of: text, yaml)", raw)
	}
}

// Output configures the artifact written at the end of a build. An empty Path
// disables writing.
type Output struct {
	Path        string
	Format      Format
	Title       string
	Description string
}

type yamlPayload struct {
	Payload []string `yaml:"payload"`
}

// Render produces the artifact body. The result only depends on out and
// domains, so the same rules always render to the same bytes.
func Render(out Output, domains []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, line := range []string{out.Title, out.Description} {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(&buf, "# %s\n", line)
		}
	}

	switch out.Format {
	case "", FormatText:
		for _, d := range domains {
			buf.WriteString(d)
			buf.WriteByte('\n')
		}
	case FormatYAML:
		if domains == nil {
			domains = []string{}
		}
		body, err := yaml.Marshal(yamlPayload{Payload: domains})
		if err != nil {
			return nil, fmt.Errorf("encode yaml artifact: %w", err)
		}
		buf.Write(body)
	default:
		return nil, fmt.Errorf("unknown output format %q", out.Format)
	}
	return buf.Bytes(), nil
}

// WriteArtifact writes data to path unless the file already holds the same
// bytes. The file is replaced through a rename so readers never see a partial
// artifact. It reports whether the file changed.
func WriteArtifact(fs afero.Fs, path string, data []byte) (bool, error) {
	existing, err := afero.ReadFile(fs, path)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return false, nil
	case err != nil && !os.IsNotExist(err):
		return false, fmt.Errorf("read artifact: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create artifact dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return false, fmt.Errorf("write artifact: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return false, fmt.Errorf("replace artifact: %w", err)
	}
	return true, nil
}
