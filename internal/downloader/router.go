package downloader

import (
	"regexp"
)

// Host identifies a supported file host.
type Host int

const (
	Invalid Host = iota
	Pillowcase
	Froste
	Pixeldrain
	Imgur
	Krakenfiles
)

func (h Host) String() string {
	switch h {
	case Pillowcase:
		return "pillowcase"
	case Froste:
		return "froste"
	case Pixeldrain:
		return "pixeldrain"
	case Imgur:
		return "imgur"
	case Krakenfiles:
		return "krakenfiles"
	default:
		return "invalid"
	}
}

type route struct {
	host    Host
	pattern *regexp.Regexp
}

// routes are tried in order; the first match wins.
var routes = []route{
	{Pillowcase, regexp.MustCompile(`https?://(?:pillowcase\.su|pillows\.su|plwcse\.top)/f/(\w+)`)},
	{Froste, regexp.MustCompile(`https?://music\.froste\.lol/song/(\w+)(?:/play)?`)},
	{Pixeldrain, regexp.MustCompile(`https?://pixeldrain\.com/u/(\w+)`)},
	{Imgur, regexp.MustCompile(`https?://imgur\.gg/f/(\w+)`)},
	{Krakenfiles, regexp.MustCompile(`https?://krakenfiles\.com/view/(\w+)/file\.html`)},
}

// Route maps a download link to its host and file identifier.
func Route(rawURL string) (Host, string, error) {
	for _, r := range routes {
		if m := r.pattern.FindStringSubmatch(rawURL); m != nil {
			return r.host, m[1], nil
		}
	}
	return Invalid, "", &UnsupportedHostError{URL: rawURL}
}
