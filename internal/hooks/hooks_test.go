package hooks

import (
	"testing"
)

func TestDoActionRunsInPriorityThenInsertionOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var order []string
	r.AddAction("web_stories_print_analytics", 20, func(args ...any) {
		order = append(order, "late")
	})
	r.AddAction("web_stories_print_analytics", DefaultPriority, func(args ...any) {
		order = append(order, "first")
	})
	r.AddAction("web_stories_print_analytics", DefaultPriority, func(args ...any) {
		order = append(order, "second")
	})

	r.DoAction("web_stories_print_analytics")

	want := []string{"first", "second", "late"}
	if len(order) != len(want) {
		t.Fatalf("expected %d invocations, got %d (%v)", len(want), len(order), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("invocation %d = %q, want %q (full order %v)", i, order[i], want[i], order)
		}
	}
}

func TestDoActionUnknownNameIsNoOp(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.DoAction("never_registered", 1, "arg")
	if r.HasAction("never_registered") {
		t.Fatal("expected no registration for unknown action name")
	}
}

func TestApplyFiltersThreadsValueThroughCallbacks(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.AddFilter("web_stories_analytics_configuration", DefaultPriority, func(value any, args ...any) any {
		return value.(string) + "-a"
	})
	r.AddFilter("web_stories_analytics_configuration", 5, func(value any, args ...any) any {
		return value.(string) + "-early"
	})

	got := r.ApplyFilters("web_stories_analytics_configuration", "base")
	if got != "base-early-a" {
		t.Fatalf("ApplyFilters() = %v, want base-early-a", got)
	}
}

func TestApplyFiltersUnknownNameReturnsValueUnchanged(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	in := map[string]any{"k": 1}
	got := r.ApplyFilters("missing_filter", in)
	if gotMap, ok := got.(map[string]any); !ok || gotMap["k"] != 1 {
		t.Fatalf("expected value passed through unchanged, got %#v", got)
	}
}

func TestAddNilCallbackIsIgnored(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.AddAction("a", DefaultPriority, nil)
	r.AddFilter("f", DefaultPriority, nil)
	if r.HasAction("a") || r.HasFilter("f") {
		t.Fatal("nil callbacks must not register")
	}
}

func TestFilterReceivesExtraArgs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.AddFilter("googlesitekit_amp_gtag_opt", DefaultPriority, func(value any, args ...any) any {
		if len(args) != 1 || args[0] != "story-slug" {
			t.Fatalf("unexpected filter args: %#v", args)
		}
		return value
	})
	r.ApplyFilters("googlesitekit_amp_gtag_opt", map[string]any{}, "story-slug")
}
