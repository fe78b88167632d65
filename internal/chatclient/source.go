package chatclient

import "strings"

// SourceRewriter maps internal chunk source paths to the public URLs cited
// in rendered answers.
type SourceRewriter struct {
	// PathPrefix is the internal filesystem prefix of the documentation
	// corpus; sources under it are rewritten to BaseURL with any trailing
	// .md stripped.
	PathPrefix string
	BaseURL    string

	// Marker identifies a second corpus by substring; any source containing
	// it maps to the fixed DocsURL.
	Marker  string
	DocsURL string
}

// Rewrite converts one source string to its public form. Sources matching
// neither rule pass through unchanged.
func (r SourceRewriter) Rewrite(source string) string {
	if r.PathPrefix != "" && strings.HasPrefix(source, r.PathPrefix) {
		rewritten := r.BaseURL + strings.TrimPrefix(source, r.PathPrefix)
		return strings.TrimSuffix(rewritten, ".md")
	}
	if r.Marker != "" && strings.Contains(source, r.Marker) {
		return r.DocsURL
	}
	return source
}
