package browser

import (
	"encoding/json"
	"strings"
)

// stealthScript masks the most common automation fingerprints. It runs
// before any page script on every new document. %LANGUAGES% is replaced
// with the configured locale list.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });

window.chrome = { runtime: {}, loadTimes: function() {}, csi: function() {}, app: {} };

Object.defineProperty(navigator, 'plugins', {
    get: () => [
        { name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer', description: 'Portable Document Format' },
        { name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai', description: '' },
        { name: 'Native Client', filename: 'internal-nacl-plugin', description: '' },
    ],
});

Object.defineProperty(navigator, 'languages', { get: () => %LANGUAGES% });

const originalQuery = window.navigator.permissions && window.navigator.permissions.query;
if (originalQuery) {
    window.navigator.permissions.query = (parameters) => (
        parameters.name === 'notifications' ?
            Promise.resolve({ state: Notification.permission }) :
            originalQuery(parameters)
    );
}
`

// initScript returns the script injected on every new document: the
// user-supplied one when set, otherwise the built-in stealth script.
func initScript(custom, acceptLanguage string) string {
	if strings.TrimSpace(custom) != "" {
		return custom
	}
	langs, _ := json.Marshal(languages(acceptLanguage))
	return strings.Replace(stealthScript, "%LANGUAGES%", string(langs), 1)
}

// languages turns an Accept-Language header value into the ordered list
// navigator.languages reports, dropping quality weights.
func languages(acceptLanguage string) []string {
	var out []string
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag != "" {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return []string{"en-US", "en"}
	}
	return out
}
