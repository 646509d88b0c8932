package lang

import (
	"path"
	"strings"
)

// byExtension maps a lowercased extension (without the dot) to a language.
var byExtension = map[string]string{
	"py":         "python",
	"js":         "javascript",
	"mjs":        "javascript",
	"cjs":        "javascript",
	"ts":         "typescript",
	"jsx":        "javascript (react)",
	"tsx":        "typescript (react)",
	"java":       "java",
	"c":          "c",
	"cpp":        "c++",
	"cc":         "c++",
	"cxx":        "c++",
	"hpp":        "c++",
	"h":          "c/c++ header",
	"cs":         "c#",
	"go":         "go",
	"rb":         "ruby",
	"php":        "php",
	"swift":      "swift",
	"kt":         "kotlin",
	"kts":        "kotlin",
	"scala":      "scala",
	"rs":         "rust",
	"dart":       "dart",
	"lua":        "lua",
	"sh":         "shell",
	"bash":       "shell",
	"zsh":        "shell",
	"html":       "html",
	"htm":        "html",
	"vue":        "vue",
	"svelte":     "svelte",
	"css":        "css",
	"scss":       "scss",
	"json":       "json",
	"md":         "markdown",
	"xml":        "xml",
	"yaml":       "yaml",
	"yml":        "yaml",
	"toml":       "toml",
	"ini":        "ini",
	"sql":        "sql",
	"proto":      "protobuf",
	"tf":         "terraform",
	"hcl":        "hcl",
	"gradle":     "gradle",
	"dockerfile": "dockerfile",
}

// byName maps extensionless base names, lowercased.
var byName = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
}

// Detect returns the language for p, or false when the extension is unknown.
func Detect(p string) (string, bool) {
	base := strings.ToLower(path.Base(strings.ReplaceAll(p, "\\", "/")))
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		l, ok := byName[base]
		return l, ok
	}
	l, ok := byExtension[base[i+1:]]
	return l, ok
}

// DetectCommon returns the most frequent language among paths. Ties go to the
// language seen first. It returns false when no path has a known language.
func DetectCommon(paths []string) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, p := range paths {
		l, ok := Detect(p)
		if !ok {
			continue
		}
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}

	best, bestCount := "", 0
	for _, l := range order {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best, bestCount > 0
}
