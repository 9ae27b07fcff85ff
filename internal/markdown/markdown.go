// Package markdown turns authored section text into sanitized HTML that can
// be dropped into the page shell's content slot.
package markdown

import (
	"sync"

	g "maragu.dev/gomponents"

	bm "github.com/microcosm-cc/bluemonday"
	bf "github.com/russross/blackfriday"
)

var (
	policyOnce sync.Once
	policy     *bm.Policy
)

// sanitizer is built once; a bluemonday policy is safe for concurrent use
// after construction.
func sanitizer() *bm.Policy {
	policyOnce.Do(func() {
		p := bm.UGCPolicy()
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// Render converts md with blackfriday's common extensions (tables, fenced
// code, autolinks, strikethrough) and strips anything the UGC policy does not
// allow. Headings get no id attributes; section anchors come from the manifest.
func Render(md []byte) []byte {
	return sanitizer().SanitizeBytes(bf.MarkdownCommon(md))
}

// Node is Render wrapped as a raw gomponents node.
func Node(md []byte) g.Node {
	return g.Raw(string(Render(md)))
}
