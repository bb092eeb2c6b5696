// Package markup post-processes server-provided HTML before it is displayed.
//
// Pipeline.Process is deterministic, performs no network access, and is
// idempotent: running it on its own output changes nothing. It parses the
// fragment with golang.org/x/net/html and rewrites the tree:
//
//   - @@PLUGINFILE@@ placeholders become {base}/webservice/pluginfile.php.
//   - Media sources pointing at pluginfile.php get the session token.
//   - <video> elements that reference YouTube become a privacy-enhanced
//     embed in a 16:9 wrapper; other videos get controls and fluid width.
//   - Video-platform iframes (YouTube, Vimeo, Dailymotion) are wrapped the
//     same way; YouTube hosts are rewritten to youtube-nocookie.com.
//   - Any other iframe is constrained to the available width.
//
// The result is a Trusted value. That type is the trust boundary: only this
// package produces it, and renderers accept nothing else as markup.
package markup
