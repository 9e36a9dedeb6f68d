// Package portal describes the upstream school portal that homeworksync talks to:
// the session cookie, the fixed endpoint paths, the browser-like header set the
// portal expects, and construction of the shared HTTP client.
//
// The portal is a PHP application. It authorizes its private JSON API with the
// PHPSESSID cookie and rejects requests that do not look like they come from a
// browser XHR, which is why the header set below is kept verbatim.
package portal

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/net/publicsuffix"
)

const (
	// CookieName is the session cookie the portal issues and checks.
	CookieName = "PHPSESSID"

	// DefaultBaseURL is the production portal address.
	DefaultBaseURL = "https://bogazicisehirkolejiobs.com"

	// LoginPath accepts form-encoded credentials and answers with JSON.
	LoginPath = "/require/class/login.php"

	homeworkListPath   = "/obsapi/homework/getHomeworkList"
	homeworkDetailPath = "/obsapi/homework/getHomeworkDetail"

	// The portal's own frontend appends a stringified FormData and a
	// cache-busting timestamp to every API call.
	formDataMarker = "[object%20FormData]"

	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9,tr;q=0.8"
	secCHUA        = `"Chromium";v="140", "Not=A?Brand";v="24", "Google Chrome";v="140"`
)

// NormalizeBaseURL trims whitespace and trailing slashes. An empty input yields DefaultBaseURL.
func NormalizeBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

// PageURL joins a public page path onto the base address.
func PageURL(base, path string) string {
	base = NormalizeBaseURL(base)
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// HomeworkListURL returns the homework list endpoint with a cache buster derived from now.
func HomeworkListURL(base string, now time.Time) string {
	return NormalizeBaseURL(base) + homeworkListPath + "?" + formDataMarker + "&_=" + cacheBuster(now)
}

// HomeworkDetailURL returns the homework detail endpoint for id.
func HomeworkDetailURL(base, id string, now time.Time) string {
	return NormalizeBaseURL(base) + homeworkDetailPath +
		"?id=" + url.QueryEscape(id) + "&" + formDataMarker + "&_=" + cacheBuster(now)
}

func cacheBuster(now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// APIHeaders returns the XHR header set used for every private API call.
func APIHeaders(base string) http.Header {
	base = NormalizeBaseURL(base)

	h := make(http.Header, 12)
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Priority", "u=1, i")
	h.Set("Referer", base+"/")
	h.Set("Sec-Ch-Ua", secCHUA)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"macOS"`)
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("User-Agent", userAgent)
	h.Set("X-Requested-With", "XMLHttpRequest")
	return h
}

// LoginHeaders extends APIHeaders with the Origin header the login endpoint checks.
func LoginHeaders(base string) http.Header {
	h := APIHeaders(base)
	h.Set("Origin", NormalizeBaseURL(base))
	return h
}

// PageHeaders returns a document-navigation header set for public pages.
// Accept-Encoding is left to the transport so responses are decoded transparently.
func PageHeaders() http.Header {
	h := make(http.Header, 4)
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Upgrade-Insecure-Requests", "1")
	return h
}

// SessionCookie wraps a session identifier as the portal cookie.
func SessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: CookieName, Value: token}
}

// NewCookieJar returns a jar scoped with the public suffix list.
func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewHTTPClient builds the client used for all portal traffic.
//
// Timeouts are applied per call through contexts, so the client itself has none.
// Responses are decompressed (gzip/zstd) by the transport.
func NewHTTPClient(jar http.CookieJar) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = 4

	return &http.Client{
		Transport: gzhttp.Transport(base),
		Jar:       jar,
	}
}
