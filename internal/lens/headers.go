package lens

import (
	"fmt"
	"net/http"
	"strings"
)

// clientData is the X-Client-Data value of a stock Chrome install.
const clientData = "CIW2yQEIorbJAQipncoBCIH+ygEIlaHLAQj1mM0BCIWgzQEI3ezNAQji+s0BCOmFzgEIponOAQj1ic4BCIeLzgEY1d3NARjS/s0BGNiGzgE="

// identity is the browser the client presents itself as.
type identity struct {
	fullVersion  string
	majorVersion string
	userAgent    string
}

func newIdentity(chromeVersion, userAgent string) identity {
	major, _, _ := strings.Cut(chromeVersion, ".")
	return identity{fullVersion: chromeVersion, majorVersion: major, userAgent: userAgent}
}

// sbisrc is the search-by-image source string Chrome reports for this version.
func (id identity) sbisrc() string {
	return fmt.Sprintf("Google Chrome %s (Official) Windows", id.fullVersion)
}

// header builds the navigation headers Chrome sends to lens.google.com.
//
// Accept-Encoding is left to the transport so compressed bodies are
// decoded transparently.
func (id identity) header() http.Header {
	brands := fmt.Sprintf(`"Not A(Brand";v="99", "Google Chrome";v="%s", "Chromium";v="%s"`,
		id.majorVersion, id.majorVersion)
	fullBrands := fmt.Sprintf(`"Not A(Brand";v="99.0.0.0", "Google Chrome";v="%s", "Chromium";v="%s"`,
		id.majorVersion, id.majorVersion)

	h := make(http.Header)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Cache-Control", "max-age=0")
	h.Set("Origin", "https://lens.google.com")
	h.Set("Referer", "https://lens.google.com/")
	h.Set("Sec-Ch-Ua", brands)
	h.Set("Sec-Ch-Ua-Arch", `"x86"`)
	h.Set("Sec-Ch-Ua-Bitness", `"64"`)
	h.Set("Sec-Ch-Ua-Full-Version", fmt.Sprintf("%q", id.fullVersion))
	h.Set("Sec-Ch-Ua-Full-Version-List", fullBrands)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Model", `""`)
	h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	h.Set("Sec-Ch-Ua-Platform-Version", `"15.0.0"`)
	h.Set("Sec-Ch-Ua-Wow64", "?0")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("User-Agent", id.userAgent)
	h.Set("X-Client-Data", clientData)
	return h
}

// consentHeader is header with the form and origin fields the consent
// endpoint expects.
func (id identity) consentHeader() http.Header {
	h := id.header()
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Set("Referer", "https://consent.google.com/")
	h.Set("Origin", "https://consent.google.com")
	return h
}

// normalizeHeaders lower-cases overlay keys and drops empty values.
func normalizeHeaders(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v == "" {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out
}
