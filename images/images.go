package images

import (
	"net/url"
	"path"
	"strings"
)

var renderableExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".svg":  true,
}

// IsRenderable reports whether raw is an absolute http(s) URL ending in a
// known image extension, or an inline base64 image.
func IsRenderable(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "data:image/") {
		return strings.Contains(raw, ";base64,")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return renderableExt[strings.ToLower(path.Ext(u.Path))]
}

// Filter keeps the renderable URLs, preserving order.
func Filter(urls []string) []string {
	var out []string
	for _, u := range urls {
		if IsRenderable(u) {
			out = append(out, u)
		}
	}
	return out
}
