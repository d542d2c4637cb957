// Package category maps category identifiers (editor language ids) to
// display names.
package category

import "strings"

var builtinNames = map[string]string{
	"bat":             "Batch",
	"c":               "C",
	"clojure":         "Clojure",
	"coffeescript":    "CoffeeScript",
	"cpp":             "C++",
	"csharp":          "C#",
	"css":             "CSS",
	"dart":            "Dart",
	"dockerfile":      "Dockerfile",
	"elixir":          "Elixir",
	"erlang":          "Erlang",
	"fsharp":          "F#",
	"go":              "Go",
	"groovy":          "Groovy",
	"haskell":         "Haskell",
	"html":            "HTML",
	"ini":             "INI",
	"java":            "Java",
	"javascript":      "JavaScript",
	"javascriptreact": "JavaScript React",
	"json":            "JSON",
	"jsonc":           "JSON with Comments",
	"julia":           "Julia",
	"kotlin":          "Kotlin",
	"less":            "Less",
	"lua":             "Lua",
	"makefile":        "Makefile",
	"markdown":        "Markdown",
	"objective-c":     "Objective-C",
	"perl":            "Perl",
	"php":             "PHP",
	"plaintext":       "Plain Text",
	"powershell":      "PowerShell",
	"python":          "Python",
	"r":               "R",
	"ruby":            "Ruby",
	"rust":            "Rust",
	"scala":           "Scala",
	"scss":            "SCSS",
	"shellscript":     "Shell Script",
	"sql":             "SQL",
	"swift":           "Swift",
	"toml":            "TOML",
	"typescript":      "TypeScript",
	"typescriptreact": "TypeScript React",
	"vue":             "Vue",
	"xml":             "XML",
	"yaml":            "YAML",
	"zig":             "Zig",
}

// Directory resolves display names. The zero value is not usable; use
// NewDirectory.
type Directory struct {
	names map[string]string
}

// NewDirectory returns the built-in names with overrides applied. Override
// keys are matched case-insensitively.
func NewDirectory(overrides map[string]string) *Directory {
	names := make(map[string]string, len(builtinNames)+len(overrides))
	for id, name := range builtinNames {
		names[id] = name
	}
	for id, name := range overrides {
		if name == "" {
			continue
		}
		names[strings.ToLower(id)] = name
	}
	return &Directory{names: names}
}

// DisplayName returns the human-readable name for id, or id itself when
// unmapped.
func (d *Directory) DisplayName(id string) string {
	if d == nil {
		return id
	}
	if name, ok := d.names[strings.ToLower(id)]; ok {
		return name
	}
	return id
}
