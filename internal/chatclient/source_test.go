package chatclient

import "testing"

func defaultRewriter() SourceRewriter {
	return SourceRewriter{
		PathPrefix: "/home/os/Documents/GPT/master-scroll-v3/pages",
		BaseURL:    "https://scroll.bibliothecadao.xyz",
		Marker:     "starknet-docs",
		DocsURL:    "https://docs.starknet.io/documentation",
	}
}

func TestRewrite(t *testing.T) {
	r := defaultRewriter()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "internal path with .md stripped",
			source: "/home/os/Documents/GPT/master-scroll-v3/pages/Cairo/syntax.md",
			want:   "https://scroll.bibliothecadao.xyz/Cairo/syntax",
		},
		{
			name:   "internal path without .md",
			source: "/home/os/Documents/GPT/master-scroll-v3/pages/Cairo/syntax",
			want:   "https://scroll.bibliothecadao.xyz/Cairo/syntax",
		},
		{
			name:   "corpus marker maps to docs root",
			source: "/data/starknet-docs/modules/accounts.adoc",
			want:   "https://docs.starknet.io/documentation",
		},
		{
			name:   "unknown source passes through",
			source: "/tmp/scratch/notes.md",
			want:   "/tmp/scratch/notes.md",
		},
		{
			name:   "empty source passes through",
			source: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Rewrite(tt.source); got != tt.want {
				t.Errorf("Rewrite(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRewrite_PrefixBeatsMarker(t *testing.T) {
	r := defaultRewriter()
	r.Marker = "master-scroll"

	got := r.Rewrite("/home/os/Documents/GPT/master-scroll-v3/pages/intro.md")
	if got != "https://scroll.bibliothecadao.xyz/intro" {
		t.Errorf("prefix rule must win over marker rule, got %q", got)
	}
}

func TestRewrite_ZeroValuePassesThrough(t *testing.T) {
	var r SourceRewriter
	if got := r.Rewrite("/any/source.md"); got != "/any/source.md" {
		t.Errorf("zero rewriter changed source: %q", got)
	}
}
