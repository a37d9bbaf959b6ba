// Package analytics synthesizes the amp-analytics gtag configuration a
// Web Stories site emits on single-story views, and wires its emission
// through an explicit hook registry.
package analytics

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/storylens/storylens/internal/hooks"
	"github.com/storylens/storylens/internal/options"
	"github.com/storylens/storylens/internal/sitekit"
)

// Hook and setting names matching the WordPress plugin surface.
const (
	HookPrintAnalytics         = "web_stories_print_analytics"
	HookSiteKitGtagOpt         = "googlesitekit_amp_gtag_opt"
	HookAnalyticsConfiguration = "web_stories_analytics_configuration"

	SettingTrackingID = "web_stories_ga_tracking_id"
)

// Trigger is one amp-analytics trigger entry.
type Trigger struct {
	On      string         `json:"on,omitempty"`
	TagName string         `json:"tagName,omitempty"`
	Request string         `json:"request,omitempty"`
	Vars    map[string]any `json:"vars,omitempty"`
}

// Config is the amp-analytics JSON body for a gtag-type tag.
type Config struct {
	RequestOrigin string             `json:"requestOrigin,omitempty"`
	Requests      map[string]string  `json:"requests,omitempty"`
	Vars          map[string]any     `json:"vars,omitempty"`
	Triggers      map[string]Trigger `json:"triggers,omitempty"`
}

// Emitter builds analytics configuration from injected collaborators. It
// keeps no state of its own; emission is suppressed when Site Kit already
// tracks the site or no tracking ID is configured.
type Emitter struct {
	Options *options.Store
	Hooks   *hooks.Registry
	// Out receives the tag markup printed by the registered action.
	Out io.Writer
	// TrackingIDOverride wins over the site setting when non-empty.
	TrackingIDOverride string
}

// NewEmitter returns an emitter over the given option store and registry.
func NewEmitter(opts *options.Store, reg *hooks.Registry) *Emitter {
	return &Emitter{Options: opts, Hooks: reg}
}

// Register wires the print action and the Site Kit gtag filter into the
// emitter's hook registry.
func (e *Emitter) Register() {
	e.Hooks.AddAction(HookPrintAnalytics, hooks.DefaultPriority, func(args ...any) {
		if e.Out != nil {
			e.PrintAnalyticsTag(e.Out)
		}
	})
	e.Hooks.AddFilter(HookSiteKitGtagOpt, hooks.DefaultPriority, func(value any, args ...any) any {
		gtagOpt, _ := value.(map[string]any)
		return e.FilterSiteKitGtagOpt(gtagOpt)
	})
}

// TrackingID returns the Google Analytics tracking ID in effect, or ""
// when none is configured.
func (e *Emitter) TrackingID() string {
	if e.TrackingIDOverride != "" {
		return e.TrackingIDOverride
	}
	return e.Options.GetString(SettingTrackingID)
}

// IsSiteKitAnalyticsModuleActive reports whether Site Kit's own analytics
// module is active for the site.
func (e *Emitter) IsSiteKitAnalyticsModuleActive() bool {
	return sitekit.AnalyticsModuleActive(e.Options)
}

// Suppression returns the reason tag emission is currently suppressed, or
// "" when a tag would be emitted.
func (e *Emitter) Suppression() string {
	if e.IsSiteKitAnalyticsModuleActive() {
		return "Site Kit analytics module is active"
	}
	if e.TrackingID() == "" {
		return "no tracking ID configured"
	}
	return ""
}

// DefaultConfig builds the gtag configuration for the current tracking ID
// and passes it through the web_stories_analytics_configuration filter.
// Filters receive and should return a Config.
func (e *Emitter) DefaultConfig() Config {
	id := e.TrackingID()
	cfg := Config{
		Vars: map[string]any{
			"gtag_id": id,
			"config": map[string]any{
				id: map[string]any{"groups": "default"},
			},
		},
		Triggers: Triggers(id),
	}
	if filtered, ok := e.Hooks.ApplyFilters(HookAnalyticsConfiguration, cfg).(Config); ok {
		return filtered
	}
	return cfg
}

// PrintAnalyticsTag writes the amp-analytics script tag to w. Suppressed
// silently when Site Kit's analytics module is active or no tracking ID is
// configured.
func (e *Emitter) PrintAnalyticsTag(w io.Writer) error {
	if e.Suppression() != "" {
		return nil
	}
	body, err := json.MarshalIndent(e.DefaultConfig(), "\t", "\t")
	if err != nil {
		return fmt.Errorf("encode analytics configuration: %w", err)
	}
	_, err = fmt.Fprintf(w, "<amp-analytics type=\"gtag\" data-credentials=\"include\">\n\t<script type=\"application/json\">\n\t%s\n\t</script>\n</amp-analytics>\n", body)
	if err != nil {
		return fmt.Errorf("print analytics tag: %w", err)
	}
	return nil
}

// FilterSiteKitGtagOpt merges the story trigger set into a third party's
// gtag configuration. Triggers already present in the external config keep
// their definitions; synthesized triggers fill the gaps. Events are sent to
// the external gtag_id when the config names one, otherwise to our own
// tracking ID. The input map is not mutated.
func (e *Emitter) FilterSiteKitGtagOpt(gtagOpt map[string]any) map[string]any {
	out := make(map[string]any, len(gtagOpt)+1)
	for k, v := range gtagOpt {
		out[k] = v
	}

	id := e.TrackingID()
	if vars, ok := out["vars"].(map[string]any); ok {
		if external, ok := vars["gtag_id"].(string); ok && external != "" {
			id = external
		}
	}

	merged := make(map[string]any)
	for name, trigger := range Triggers(id) {
		merged[name] = trigger
	}
	if existing, ok := out["triggers"].(map[string]any); ok {
		for name, trigger := range existing {
			merged[name] = trigger
		}
	}
	out["triggers"] = merged
	return out
}

// Triggers returns the static story trigger set, parameterized only by the
// tracking ID events are sent to.
func Triggers(trackingID string) map[string]Trigger {
	return map[string]Trigger{
		"storyProgress": {
			On:   "story-page-visible",
			Vars: storyEventVars(trackingID, "story_progress", "${storyPageIndex}"),
		},
		"storyEnd": {
			On:   "story-last-page-visible",
			Vars: storyEventVars(trackingID, "story_complete", "${title}"),
		},
		"trackFocusState": {
			On:      "story-focus",
			TagName: "a",
			Vars:    storyEventVars(trackingID, "story_focus", "${storyPageIndex}"),
		},
		"trackClickThrough": {
			On:      "story-click-through",
			TagName: "a",
			Vars:    storyEventVars(trackingID, "story_click_through", "${storyPageIndex}"),
		},
		"storyOpen": {
			On:   "story-open",
			Vars: storyEventVars(trackingID, "story_open", "${title}"),
		},
		"storyClose": {
			On:   "story-close",
			Vars: storyEventVars(trackingID, "story_close", "${title}"),
		},
		"audioMuted": {
			On:   "story-audio-muted",
			Vars: storyEventVars(trackingID, "story_audio_muted", "${storyPageIndex}"),
		},
		"audioUnmuted": {
			On:   "story-audio-unmuted",
			Vars: storyEventVars(trackingID, "story_audio_unmuted", "${storyPageIndex}"),
		},
		"pageAttachmentEnter": {
			On:   "story-page-attachment-enter",
			Vars: storyEventVars(trackingID, "story_page_attachment_enter", "${storyPageIndex}"),
		},
		"pageAttachmentExit": {
			On:   "story-page-attachment-exit",
			Vars: storyEventVars(trackingID, "story_page_attachment_exit", "${storyPageIndex}"),
		},
	}
}

func storyEventVars(trackingID, action, label string) map[string]any {
	vars := map[string]any{
		"event_name":     "custom",
		"event_action":   action,
		"event_category": "${title}",
		"send_to":        []string{trackingID},
	}
	if label != "" {
		vars["event_label"] = label
	}
	return vars
}
