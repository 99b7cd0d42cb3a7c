package redact

import (
	"math"
	"regexp"
	"strings"
)

const Redacted = "[REDACTED_SECRET]"

var (
	awsAccessKey = regexp.MustCompile(`AKIA[0-9A-Z]{16}`)
	awsSecretKey = regexp.MustCompile(`(?i)aws(.{0,20})?(secret|access)["'\s:=]+[A-Za-z0-9/+=]{32,}`)
	ghToken      = regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{30,}`)
	openAIKey    = regexp.MustCompile(`sk-(proj-)?[A-Za-z0-9_\-]{20,}`)
	jwtToken     = regexp.MustCompile(`eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)
	privateKey   = regexp.MustCompile(`-----BEGIN (RSA|EC|DSA|OPENSSH) PRIVATE KEY-----[\s\S]+?-----END (RSA|EC|DSA|OPENSSH) PRIVATE KEY-----`)
	genericToken = regexp.MustCompile(`(?i)(token|secret|api[_-]?key|access[_-]?key)["'\s:=]+[A-Za-z0-9/+=]{16,}`)
	urlParams    = regexp.MustCompile(`([?&](token|key|secret|sig|signature|access_token|auth)=)[^&\s]+`)
	base64Like   = regexp.MustCompile(`[A-Za-z0-9+/=]{32,}`)
	hexLike      = regexp.MustCompile(`[A-Fa-f0-9]{32,}`)
)

// Redact masks secrets in a single string.
func Redact(input string) string {
	out, _ := redact(input)
	return out
}

// Source masks secrets in file contents. The result has exactly as many
// lines as the input so line numbers computed against it still address
// the file on disk. The second result is the number of secrets masked.
func Source(text string) (string, int) {
	return redact(text)
}

// Optional applies Source only when enabled.
func Optional(text string, enabled bool) (string, int) {
	if !enabled {
		return text, 0
	}
	return Source(text)
}

func redact(input string) (string, int) {
	if input == "" {
		return input, 0
	}
	n := 0
	replace := func(re *regexp.Regexp, fn func(string) string) {
		input = re.ReplaceAllStringFunc(input, func(match string) string {
			out := fn(match)
			if out != match {
				n++
			}
			return out
		})
	}
	whole := func(match string) string { return Redacted }

	replace(privateKey, keepLines)
	replace(awsAccessKey, whole)
	replace(awsSecretKey, whole)
	replace(ghToken, whole)
	replace(openAIKey, whole)
	replace(jwtToken, whole)
	replace(genericToken, whole)
	replace(urlParams, func(match string) string {
		return urlParams.ReplaceAllString(match, "${1}"+Redacted)
	})
	replace(base64Like, highEntropy)
	replace(hexLike, highEntropy)
	return input, n
}

// keepLines replaces every line of a multi-line match.
func keepLines(match string) string {
	lines := strings.Split(match, "\n")
	for i := range lines {
		lines[i] = Redacted
	}
	return strings.Join(lines, "\n")
}

func highEntropy(match string) string {
	if strings.Contains(match, Redacted) {
		return match
	}
	if entropy(match) >= 4.0 {
		return Redacted
	}
	return match
}

func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	length := float64(len([]rune(s)))
	var ent float64
	for _, count := range counts {
		p := float64(count) / length
		ent -= p * math.Log2(p)
	}
	return ent
}
