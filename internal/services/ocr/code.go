package ocr

import "strings"

var codeIndicators = []string{
	"def ", "class ", "import ", "function", "const ", "let ",
	"var ", "public ", "private ", "void ", "return ", "if(",
	"for(", "while(", "{", "}", "=>", "==", "!=", "//", "/*",
}

// DetectCodePatterns reports whether recognized text looks like source code
// rather than prose.
func DetectCodePatterns(text string) bool {
	for _, indicator := range codeIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}

// Preview returns the first n whitespace-separated words of recognized text,
// for log output.
func Preview(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
