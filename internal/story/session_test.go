package story

import "testing"

func twoPageStory() *Story {
	return &Story{
		ID: 1,
		Pages: []Page{
			{ID: "p1", Elements: []Element{{ID: "a"}, {ID: "b"}}},
			{ID: "p2", Elements: []Element{{ID: "c"}}},
		},
	}
}

func TestSetStoryResetsPageAndSelection(t *testing.T) {
	t.Parallel()

	s := NewSession()
	s.SetStory(twoPageStory())
	s.SetPage(1)
	s.Select("c")

	s.SetStory(twoPageStory())
	if s.PageIndex() != 0 {
		t.Fatalf("PageIndex() = %d after SetStory, want 0", s.PageIndex())
	}
	if len(s.SelectedIDs()) != 0 {
		t.Fatalf("selection must clear on SetStory, got %v", s.SelectedIDs())
	}
}

func TestSetPageClampsAndReportsChange(t *testing.T) {
	t.Parallel()

	s := NewSession()
	if s.SetPage(1) {
		t.Fatal("SetPage without a story must report no change")
	}

	s.SetStory(twoPageStory())
	if !s.SetPage(1) {
		t.Fatal("moving to another page must report a change")
	}
	if s.SetPage(1) {
		t.Fatal("re-selecting the active page must report no change")
	}
	if s.SetPage(99) {
		t.Fatal("clamped page equal to current must report no change")
	}
	if s.PageIndex() != 1 {
		t.Fatalf("PageIndex() = %d, want clamped 1", s.PageIndex())
	}
	if !s.SetPage(-3) {
		t.Fatal("clamping to the first page from page 1 is a change")
	}
	if s.PageIndex() != 0 {
		t.Fatalf("PageIndex() = %d, want 0", s.PageIndex())
	}
}

func TestSetPageClearsSelection(t *testing.T) {
	t.Parallel()

	s := NewSession()
	s.SetStory(twoPageStory())
	s.Select("a")
	s.SetPage(1)
	if len(s.SelectedIDs()) != 0 {
		t.Fatalf("selection must clear on page change, got %v", s.SelectedIDs())
	}
}

func TestSelectDeduplicatesAndKeepsOrder(t *testing.T) {
	t.Parallel()

	s := NewSession()
	s.SetStory(twoPageStory())
	s.Select("b", "a", "b", "")

	got := s.SelectedIDs()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("SelectedIDs() = %v, want [b a]", got)
	}
}

func TestSelectedElementResolvesFirstSelection(t *testing.T) {
	t.Parallel()

	s := NewSession()
	s.SetStory(twoPageStory())

	if s.SelectedElement() != nil {
		t.Fatal("no selection must yield nil element")
	}

	s.Select("b")
	el := s.SelectedElement()
	if el == nil || el.ID != "b" {
		t.Fatalf("SelectedElement() = %+v, want element b", el)
	}

	s.Select("missing")
	if s.SelectedElement() != nil {
		t.Fatal("selection of an ID absent from the page must yield nil")
	}
}

func TestSelectedIDsReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewSession()
	s.SetStory(twoPageStory())
	s.Select("a")

	ids := s.SelectedIDs()
	ids[0] = "mutated"
	if got := s.SelectedIDs(); got[0] != "a" {
		t.Fatalf("internal selection mutated through returned slice: %v", got)
	}
}
