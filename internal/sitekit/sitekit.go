// Package sitekit inspects Site Kit plugin state exposed through site
// options, so analytics emission can stand down when Site Kit already
// tracks the site.
package sitekit

import "github.com/storylens/storylens/internal/options"

const (
	// OptionActiveModules is the option Site Kit currently stores its
	// active module slugs under.
	OptionActiveModules = "googlesitekit_active_modules"
	// OptionActiveModulesLegacy is the pre-1.0 spelling, still honored as
	// a fallback when the current option is absent.
	OptionActiveModulesLegacy = "googlesitekit-active-modules"

	analyticsModule = "analytics"
)

// ActiveModules returns the Site Kit active-module slugs. The legacy option
// key is consulted only when the current key holds no usable list: a present
// but empty list does not fall back, a missing or malformed value does.
func ActiveModules(opts *options.Store) []string {
	if list := moduleList(opts, OptionActiveModules); list != nil {
		return list
	}
	return moduleList(opts, OptionActiveModulesLegacy)
}

// moduleList yields nil for a missing or non-list option and a non-nil
// (possibly empty) slice otherwise.
func moduleList(opts *options.Store, name string) []string {
	if _, ok := opts.Get(name); !ok {
		return nil
	}
	return opts.StringSlice(name)
}

// AnalyticsModuleActive reports whether Site Kit's analytics module is
// among the active modules.
func AnalyticsModuleActive(opts *options.Store) bool {
	for _, slug := range ActiveModules(opts) {
		if slug == analyticsModule {
			return true
		}
	}
	return false
}
