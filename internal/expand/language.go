package expand

import (
	"path/filepath"
	"strings"
)

// Language is the fence tag and line-comment delimiters used to annotate
// an included file.
type Language struct {
	Tag    string
	Prefix string
	Suffix string
}

// Comment renders text as a single-line comment in l's syntax.
func (l Language) Comment(text string) string {
	return l.Prefix + text + l.Suffix
}

// PlainText is used for unknown extensions and converted documents.
var PlainText = Language{Tag: "txt", Prefix: "# "}

var (
	hashStyle   = Language{Prefix: "# "}
	slashStyle  = Language{Prefix: "// "}
	markupStyle = Language{Prefix: "<!-- ", Suffix: " -->"}
	blockStyle  = Language{Prefix: "/* ", Suffix: " */"}
	dashStyle   = Language{Prefix: "-- "}
	semiStyle   = Language{Prefix: "; "}
	pctStyle    = Language{Prefix: "% "}
)

// commentStyles maps a lowercase extension (without the dot) to its comment
// delimiters. The fence tag is the extension itself.
var commentStyles = map[string]Language{
	// scripts and config
	"py": hashStyle, "sh": hashStyle, "bash": hashStyle, "zsh": hashStyle, "fish": hashStyle,
	"rb": hashStyle, "pl": hashStyle, "r": hashStyle, "jl": hashStyle, "nim": hashStyle,
	"ex": hashStyle, "exs": hashStyle, "ps1": hashStyle, "tf": hashStyle, "cmake": hashStyle,
	"mk": hashStyle, "yaml": hashStyle, "yml": hashStyle, "toml": hashStyle, "conf": hashStyle,
	"env": hashStyle, "txt": hashStyle,

	// C family and web
	"go": slashStyle, "c": slashStyle, "h": slashStyle, "cc": slashStyle, "cpp": slashStyle,
	"hpp": slashStyle, "cs": slashStyle, "java": slashStyle, "kt": slashStyle, "kts": slashStyle,
	"scala": slashStyle, "swift": slashStyle, "rs": slashStyle, "dart": slashStyle,
	"zig": slashStyle, "php": slashStyle, "groovy": slashStyle, "proto": slashStyle,
	"js": slashStyle, "mjs": slashStyle, "cjs": slashStyle, "jsx": slashStyle,
	"ts": slashStyle, "tsx": slashStyle, "json": slashStyle, "jsonc": slashStyle, "sass": slashStyle,

	// markup
	"html": markupStyle, "htm": markupStyle, "xml": markupStyle, "xhtml": markupStyle,
	"svg": markupStyle, "vue": markupStyle, "md": markupStyle, "markdown": markupStyle,

	// stylesheets
	"css": blockStyle, "scss": blockStyle, "less": blockStyle,

	// data and query
	"sql": dashStyle, "lua": dashStyle, "hs": dashStyle, "elm": dashStyle,
	"graphql": hashStyle, "gql": hashStyle, "csv": hashStyle, "tsv": hashStyle,

	// lisps and assembly
	"ini": semiStyle, "clj": semiStyle, "lisp": semiStyle, "el": semiStyle, "asm": semiStyle,

	"tex": pctStyle, "erl": pctStyle,
}

// namedFiles covers conventional file names that carry no extension.
var namedFiles = map[string]Language{
	"makefile":      {Tag: "makefile", Prefix: "# "},
	"dockerfile":    {Tag: "dockerfile", Prefix: "# "},
	"containerfile": {Tag: "dockerfile", Prefix: "# "},
	"gemfile":       {Tag: "rb", Prefix: "# "},
	"justfile":      {Tag: "just", Prefix: "# "},
}

// LanguageFor picks the Language for path from its extension, falling back
// to well-known file names and then PlainText.
func LanguageFor(path string) Language {
	base := filepath.Base(path)
	if l, ok := namedFiles[strings.ToLower(base)]; ok {
		return l
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	if style, ok := commentStyles[ext]; ok {
		style.Tag = ext
		return style
	}
	return PlainText
}
