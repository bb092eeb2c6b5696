package markup

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/five82/lectern/internal/moodle"
)

// Trusted is markup that went through the pipeline.
type Trusted string

func (t Trusted) String() string { return string(t) }

const (
	pluginfilePlaceholder = "@@PLUGINFILE@@"
	pluginfilePath        = "/webservice/pluginfile.php"
	wrapperClass          = "video-embed-wrapper"
	nocookieHost          = "www.youtube-nocookie.com"
	brandingParams        = "modestbranding=1&rel=0&showinfo=0&iv_load_policy=3"

	wrapperStyle = "position: relative; width: 100%; padding-bottom: 56.25%; height: 0; overflow: hidden; margin: 20px 0; border-radius: 12px; box-shadow: 0 4px 20px rgba(0,0,0,0.3);"
	embedStyle   = "position: absolute; top: 0; left: 0; width: 100%; height: 100%; border: none; border-radius: 12px;"
	embedAllow   = "accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share"
)

var (
	youtubeURLPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([a-zA-Z0-9_-]{11})`)
	youtubeIDPattern  = regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`)
	videoHostPattern  = regexp.MustCompile(`(?i)(youtube\.com|youtube-nocookie\.com|youtu\.be|vimeo\.com|dailymotion\.com)`)
)

// Pipeline rewrites HTML for one endpoint and token.
type Pipeline struct {
	BaseURL string
	Token   string
}

// Process runs the full pipeline over an HTML fragment.
func (p Pipeline) Process(fragment string) Trusted {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	base := strings.TrimRight(p.BaseURL, "/")
	fragment = strings.ReplaceAll(fragment, pluginfilePlaceholder, base+pluginfilePath)

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return Trusted(html.EscapeString(fragment))
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	for _, n := range collect(root, atom.Img, atom.Video, atom.Audio, atom.Source) {
		p.tokenizeSource(n)
	}
	for _, n := range collect(root, atom.Video) {
		rewriteVideo(n)
	}
	for _, n := range collect(root, atom.Iframe) {
		rewriteIframe(n)
	}

	return Trusted(render(root))
}

// YouTubeID extracts an 11-character video id from a URL or bare id.
func YouTubeID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if m := youtubeURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := youtubeIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}

// AppendToken adds token=... unless a token or wstoken parameter exists.
func AppendToken(rawURL, token string) string {
	return moodle.AppendToken(rawURL, token)
}

func (p Pipeline) tokenizeSource(n *html.Node) {
	src, ok := attr(n, "src")
	if !ok || !strings.Contains(src, "pluginfile.php") {
		return
	}
	setAttr(n, "src", AppendToken(src, p.Token))
}

func rewriteVideo(n *html.Node) {
	var id string
	for c := n.FirstChild; c != nil && id == ""; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Source {
			if src, ok := attr(c, "src"); ok {
				id, _ = YouTubeID(src)
			}
		}
	}
	if id == "" {
		if src, ok := attr(n, "src"); ok {
			id, _ = YouTubeID(src)
		}
	}

	if id == "" {
		setAttr(n, "controls", "")
		setAttr(n, "style", mergeStyle(attrOr(n, "style"), "width", "100%", "max-width", "100%"))
		return
	}

	iframe := element(atom.Iframe,
		html.Attribute{Key: "src", Val: "https://" + nocookieHost + "/embed/" + id + "?" + brandingParams},
		html.Attribute{Key: "style", Val: embedStyle},
		html.Attribute{Key: "allowfullscreen", Val: ""},
		html.Attribute{Key: "allow", Val: embedAllow},
		html.Attribute{Key: "title", Val: "YouTube video player"},
		html.Attribute{Key: "frameborder", Val: "0"},
	)
	wrapper := element(atom.Div,
		html.Attribute{Key: "class", Val: wrapperClass},
		html.Attribute{Key: "style", Val: wrapperStyle},
	)
	wrapper.AppendChild(iframe)
	replace(n, wrapper)
}

func rewriteIframe(n *html.Node) {
	src := attrOr(n, "src")
	if !videoHostPattern.MatchString(src) {
		setAttr(n, "style", mergeStyle(attrOr(n, "style"), "max-width", "100%", "border", "none"))
		return
	}

	if isYouTube(src) {
		src = toNocookie(src)
		if !strings.Contains(src, "modestbranding") {
			sep := "?"
			if strings.Contains(src, "?") {
				sep = "&"
			}
			src += sep + brandingParams
		}
		setAttr(n, "src", src)
	}

	if n.Parent != nil && hasClass(n.Parent, wrapperClass) {
		return
	}
	setAttr(n, "style", embedStyle)
	setAttr(n, "allowfullscreen", "")
	setAttr(n, "allow", embedAllow)
	removeAttr(n, "width")
	removeAttr(n, "height")

	wrapper := element(atom.Div,
		html.Attribute{Key: "class", Val: wrapperClass},
		html.Attribute{Key: "style", Val: wrapperStyle},
	)
	replace(n, wrapper)
	wrapper.AppendChild(n)
}

func isYouTube(src string) bool {
	lower := strings.ToLower(src)
	return strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be") || strings.Contains(lower, "youtube-nocookie.com")
}

func toNocookie(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	host := strings.ToLower(u.Hostname())
	if host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") {
		u.Host = nocookieHost
		return u.String()
	}
	return src
}
