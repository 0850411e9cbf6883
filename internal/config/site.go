package config

import "maps"

// SiteConfig holds site-specific configuration for a single base site URL.
// This allows customizing crawl behavior per site when scanning targets
// spread across several sites.
type SiteConfig struct {
	// SitemapPath overrides the sitemap index path for this site.
	// If empty, DefaultSitemapPath is used.
	SitemapPath string `yaml:"sitemapPath,omitempty"`

	// Headers are custom HTTP headers to include in requests to this
	// site (for example an auth cookie for a staging environment).
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page cap for this site.
	// If zero, the global MaxPages is used.
	MaxPages int `yaml:"maxPages,omitempty"`
}

// File represents the structure of the .linklens configuration file.
type File struct {
	// Sites maps base site URLs (or bare hosts) to their site-specific
	// configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to all sites unless
	// overridden in the site-specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a site, merging the
// site-specific entry over the defaults. The lookup tries the site URL
// as given and then without its scheme prefix.
func (cf *File) GetSiteConfig(site string) SiteConfig {
	result := cf.Defaults

	siteConfig, ok := cf.Sites[site]
	if !ok {
		siteConfig, ok = cf.Sites[stripScheme(site)]
	}
	if !ok {
		return result
	}

	if siteConfig.SitemapPath != "" {
		result.SitemapPath = siteConfig.SitemapPath
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if len(siteConfig.Headers) > 0 {
		// Copy before merging so site headers never leak into the
		// shared defaults map.
		merged := maps.Clone(result.Headers)
		if merged == nil {
			merged = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(merged, siteConfig.Headers)
		result.Headers = merged
	}

	return result
}

// stripScheme removes a leading http:// or https:// prefix.
func stripScheme(site string) string {
	for _, prefix := range []string{"https://", "http://"} {
		if len(site) > len(prefix) && site[:len(prefix)] == prefix {
			return site[len(prefix):]
		}
	}
	return site
}
