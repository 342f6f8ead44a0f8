package config

// SiteConfig holds per-domain configuration for a single target.
// This allows tuning classification and crawl behavior per site without
// touching the global flags.
type SiteConfig struct {
	// ProductPatterns are regular expressions matched against full URLs
	// to classify product pages. When set, they replace the built-in
	// pattern set for this domain.
	ProductPatterns []string `yaml:"productPatterns,omitempty"`

	// ExcludePatterns are regular expressions that veto a product
	// classification even when a product pattern matched.
	ExcludePatterns []string `yaml:"excludePatterns,omitempty"`

	// ContentSignals are literal strings searched for in page bodies
	// as additional product indicators (e.g. a shop-specific
	// "Artikelnummer" label).
	ContentSignals []string `yaml:"contentSignals,omitempty"`

	// Depth overrides the global maximum depth for this domain.
	// If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page budget for this domain.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Render forces the headless-browser fallback for this domain.
	Render bool `yaml:"render,omitempty"`
}

// File represents the structure of the .ecomcrawler configuration file.
type File struct {
	// Sites maps domains to their site-specific configurations.
	// Keys should be the bare host (e.g., "shop.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific domain.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[domain]; ok {
		if len(siteConfig.ProductPatterns) > 0 {
			result.ProductPatterns = siteConfig.ProductPatterns
		}
		if len(siteConfig.ExcludePatterns) > 0 {
			result.ExcludePatterns = siteConfig.ExcludePatterns
		}
		if len(siteConfig.ContentSignals) > 0 {
			result.ContentSignals = siteConfig.ContentSignals
		}
		if siteConfig.Depth != 0 {
			result.Depth = siteConfig.Depth
		}
		if siteConfig.MaxPages != 0 {
			result.MaxPages = siteConfig.MaxPages
		}
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if siteConfig.Render {
			result.Render = true
		}
	}

	return result
}
