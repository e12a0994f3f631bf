package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Path separators, colons, and asterisks become dashes; other unsafe
// characters are removed and accents are folded. Returns "document" when
// nothing usable remains.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	cleaned := strings.TrimSpace(fileNameReplacer.Replace(name))
	cleaned = strings.Trim(cleaned, ".-")
	if cleaned == "" {
		return "document"
	}
	return strings.ReplaceAll(Fold(cleaned), " ", "_")
}
