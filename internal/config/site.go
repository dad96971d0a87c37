package config

import "time"

// SiteConfig holds per-site overrides for a single host. This allows
// tuning crawl behavior for individual sites without changing globals.
type SiteConfig struct {
	// Depth overrides the global crawl depth for this site.
	// Negative or absent means use the global MaxDepth; zero is a valid
	// override meaning "start URL only".
	Depth *int `yaml:"depth,omitempty"`

	// MaxLinks overrides the global link budget for this site.
	MaxLinks int `yaml:"maxLinks,omitempty"`

	// RateLimitSeconds overrides the global minimum request interval,
	// expressed in seconds to keep the YAML plain numbers.
	RateLimitSeconds float64 `yaml:"rateLimitSeconds,omitempty"`

	// Keywords overrides the global keyword list for this site.
	Keywords []string `yaml:"keywords,omitempty"`

	// IgnorePatterns overrides the global link exclusion patterns for
	// this site. Links whose URL contains any pattern are not followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// DocMode forces the documentation extractor for this site.
	DocMode bool `yaml:"docMode,omitempty"`

	// SameDomainOnly forces same-domain link filtering for this site.
	SameDomainOnly bool `yaml:"sameDomainOnly,omitempty"`
}

// File represents the structure of the .webscraper configuration file.
type File struct {
	// Sites maps hostnames to their overrides (e.g. "docs.python.org").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to every site unless a
	// site-specific entry replaces them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a hostname: defaults
// first, then the site-specific entry on top.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[host]; ok {
		if site.Depth != nil {
			result.Depth = site.Depth
		}
		if site.MaxLinks > 0 {
			result.MaxLinks = site.MaxLinks
		}
		if site.RateLimitSeconds > 0 {
			result.RateLimitSeconds = site.RateLimitSeconds
		}
		if len(site.Keywords) > 0 {
			result.Keywords = site.Keywords
		}
		if len(site.IgnorePatterns) > 0 {
			result.IgnorePatterns = site.IgnorePatterns
		}
		if site.DocMode {
			result.DocMode = true
		}
		if site.SameDomainOnly {
			result.SameDomainOnly = true
		}
	}

	return result
}

// Apply copies the site overrides onto a Config. Unset fields leave the
// global values untouched.
func (s SiteConfig) Apply(c *Config) {
	if s.Depth != nil && *s.Depth >= 0 {
		c.MaxDepth = *s.Depth
	}
	if s.MaxLinks > 0 {
		c.MaxLinks = s.MaxLinks
	}
	if s.RateLimitSeconds > 0 {
		c.RateLimit = time.Duration(s.RateLimitSeconds * float64(time.Second))
	}
	if len(s.Keywords) > 0 {
		c.Keywords = s.Keywords
	}
	if len(s.IgnorePatterns) > 0 {
		c.IgnorePatterns = s.IgnorePatterns
	}
	if s.DocMode {
		c.DocMode = true
	}
	if s.SameDomainOnly {
		c.FilterSameDomain = true
	}
}
