package story

// Session tracks which story is open, which page is active, and which
// element IDs are selected. A session never mutates the parsed story.
type Session struct {
	story    *Story
	pageIdx  int
	selected []string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// SetStory replaces the open story, resetting the page to the first one and
// clearing the selection.
func (s *Session) SetStory(st *Story) {
	s.story = st
	s.pageIdx = 0
	s.selected = nil
}

// Story returns the open story, or nil.
func (s *Session) Story() *Story {
	return s.story
}

// SetPage activates the page at idx, clamped into range, clearing the
// selection. It reports whether the active page actually changed.
func (s *Session) SetPage(idx int) bool {
	if s.story == nil || len(s.story.Pages) == 0 {
		return false
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.story.Pages)-1 {
		idx = len(s.story.Pages) - 1
	}
	if idx == s.pageIdx {
		return false
	}
	s.pageIdx = idx
	s.selected = nil
	return true
}

// PageIndex returns the active page index.
func (s *Session) PageIndex() int {
	return s.pageIdx
}

// CurrentPage returns the active page, or nil when no story is open.
func (s *Session) CurrentPage() *Page {
	if s.story == nil || s.pageIdx >= len(s.story.Pages) {
		return nil
	}
	return &s.story.Pages[s.pageIdx]
}

// Select replaces the selection with the given element IDs, keeping order
// and dropping duplicates.
func (s *Session) Select(ids ...string) {
	seen := make(map[string]bool, len(ids))
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	s.selected = next
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.selected = nil
}

// SelectedIDs returns a copy of the selected element IDs.
func (s *Session) SelectedIDs() []string {
	out := make([]string, len(s.selected))
	copy(out, s.selected)
	return out
}

// SelectedElement returns the first selected element on the active page, or
// nil when nothing is selected.
func (s *Session) SelectedElement() *Element {
	page := s.CurrentPage()
	if page == nil || len(s.selected) == 0 {
		return nil
	}
	for i := range page.Elements {
		if page.Elements[i].ID == s.selected[0] {
			return &page.Elements[i]
		}
	}
	return nil
}
