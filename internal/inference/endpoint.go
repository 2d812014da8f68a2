package inference

import "strings"

// Route suffixes per endpoint shape.
const (
	completionRoute = "/generate"
	chatRoute       = "/v1/chat/completions"
	openAIRoute     = "/v1"
)

// NormalizeEndpoint appends route to base unless base already ends with it.
// Trailing slashes on base are ignored. Applying it twice gives the same URL.
func NormalizeEndpoint(base, route string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.HasSuffix(base, route) {
		return base
	}
	return base + route
}
