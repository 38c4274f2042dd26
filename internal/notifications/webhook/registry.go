package webhook

import (
	"strings"
)

// PlatformRegistry maps webhook URLs to platform-specific formatters. It
// supports URL pattern detection and an explicit override.
type PlatformRegistry struct {
	formatters map[Platform]PlatformFormatter
}

// NewPlatformRegistry creates a PlatformRegistry with all built-in formatters.
func NewPlatformRegistry() *PlatformRegistry {
	r := &PlatformRegistry{
		formatters: make(map[Platform]PlatformFormatter),
	}

	r.formatters[PlatformFeishu] = &FeishuFormatter{}
	r.formatters[PlatformSlack] = &SlackFormatter{}
	r.formatters[PlatformGeneric] = &GenericFormatter{}

	return r
}

// Detect determines the target Platform for a webhook URL.
//
// Detection logic (priority order):
//  1. override, when it names a registered platform.
//  2. URL patterns:
//     - "open.feishu.cn" or "open.larksuite.com" -> PlatformFeishu
//     - "hooks.slack.com" -> PlatformSlack
//  3. PlatformGeneric.
func (r *PlatformRegistry) Detect(url string, override string) Platform {
	if override != "" {
		p := Platform(strings.ToLower(override))
		if _, exists := r.formatters[p]; exists {
			return p
		}
	}

	lowerURL := strings.ToLower(url)

	if strings.Contains(lowerURL, "open.feishu.cn") || strings.Contains(lowerURL, "open.larksuite.com") {
		return PlatformFeishu
	}
	if strings.Contains(lowerURL, "hooks.slack.com") {
		return PlatformSlack
	}

	return PlatformGeneric
}

// Get returns the PlatformFormatter for the given platform.
// Returns the GenericFormatter if the platform is not registered.
func (r *PlatformRegistry) Get(p Platform) PlatformFormatter {
	if f, ok := r.formatters[p]; ok {
		return f
	}
	return r.formatters[PlatformGeneric]
}
