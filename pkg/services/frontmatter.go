package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"hugo-drive-sync/pkg/models"
)

const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// ParseFrontMatter splits content into its metadata block and body. Content
// without a front matter block is returned whole as the body with a nil map and
// the default format.
func ParseFrontMatter(content []byte) (models.FrontMatter, string, string, error) {
	var fm map[string]interface{}
	format := FormatYAML

	yamlFormat := frontmatter.NewFormat("---", "---", func(data []byte, v interface{}) error {
		format = FormatYAML
		return yaml.Unmarshal(data, v)
	})
	tomlFormat := frontmatter.NewFormat("+++", "+++", func(data []byte, v interface{}) error {
		format = FormatTOML
		return toml.Unmarshal(data, v)
	})

	normalized := normalizeLineEndings(string(content))
	rest, err := frontmatter.Parse(strings.NewReader(normalized), &fm, yamlFormat, tomlFormat)
	if err != nil {
		return nil, "", format, fmt.Errorf("parse front matter: %w", err)
	}

	body := strings.TrimLeft(string(rest), "\n")
	if fm == nil {
		return nil, body, format, nil
	}
	return models.FrontMatter(sanitizeFrontMatter(fm)), body, format, nil
}

// ConstructFileContent renders front matter followed by body, as Hugo expects.
func ConstructFileContent(fm models.FrontMatter, body string, format string) ([]byte, error) {
	normalizedFM := sanitizeFrontMatter(fm)
	if normalizedFM == nil {
		normalizedFM = map[string]interface{}{}
	}

	var buf bytes.Buffer
	switch format {
	case FormatYAML, "":
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(normalizedFM); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	case FormatTOML:
		buf.WriteString("+++\n")
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(normalizedFM); err != nil {
			return nil, err
		}
		buf.WriteString("+++\n")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	body = strings.TrimSpace(body)
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

func sanitizeFrontMatter(fm map[string]interface{}) map[string]interface{} {
	if fm == nil {
		return nil
	}
	sanitized := make(map[string]interface{}, len(fm))
	for k, v := range fm {
		sanitized[k] = sanitizeFrontMatterValue(v)
	}
	return sanitized
}

func sanitizeFrontMatterValue(value interface{}) interface{} {
	switch v := value.(type) {
	case models.FrontMatter:
		return sanitizeFrontMatter(v)
	case map[string]interface{}:
		return sanitizeFrontMatter(v)
	case map[interface{}]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, inner := range v {
			normalized[fmt.Sprint(key)] = sanitizeFrontMatterValue(inner)
		}
		return normalized
	case []interface{}:
		slice := make([]interface{}, len(v))
		for i := range v {
			slice[i] = sanitizeFrontMatterValue(v[i])
		}
		return slice
	default:
		return v
	}
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}
