// Package story models Web Stories documents fetched from the REST API,
// plus the live selection session the inspector operates on.
package story

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// PatternType identifies a fill pattern family.
type PatternType string

const (
	PatternSolid  PatternType = "solid"
	PatternLinear PatternType = "linear"
	PatternRadial PatternType = "radial"
	PatternConic  PatternType = "conic"
)

// Color is an rgba color; A is a fraction in [0,1].
type Color struct {
	R int
	G int
	B int
	A float64
}

// UnmarshalJSON decodes the editor's {r,g,b,a} shape; a missing alpha means
// fully opaque.
func (c *Color) UnmarshalJSON(data []byte) error {
	var raw struct {
		R int      `json:"r"`
		G int      `json:"g"`
		B int      `json:"b"`
		A *float64 `json:"a"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.R, c.G, c.B = raw.R, raw.G, raw.B
	c.A = 1
	if raw.A != nil {
		c.A = *raw.A
	}
	return nil
}

// Hex returns the uppercase hex form of the color, with an alpha byte only
// when the color is not fully opaque.
func (c Color) Hex() string {
	if c.A < 1 {
		return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, int(math.Round(c.A*255)))
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Stop is one gradient color stop.
type Stop struct {
	Color    Color   `json:"color"`
	Position float64 `json:"position"`
}

// Pattern is an element fill: a solid color or a gradient.
type Pattern struct {
	Type     PatternType
	Color    Color
	Stops    []Stop
	Rotation float64
}

// UnmarshalJSON decodes the editor pattern shape, where a missing type
// means solid.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     string  `json:"type"`
		Color    *Color  `json:"color"`
		Stops    []Stop  `json:"stops"`
		Rotation float64 `json:"rotation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Type = PatternType(raw.Type)
	if p.Type == "" {
		p.Type = PatternSolid
	}
	if raw.Color != nil {
		p.Color = *raw.Color
	} else {
		p.Color = Color{A: 1}
	}
	p.Stops = raw.Stops
	p.Rotation = raw.Rotation
	return nil
}

// PreviewText returns a short displayable form of the pattern and whether a
// numeric preview exists. Solid colors preview as uppercase hex; gradients
// yield their family name but no numeric preview, so editors bound to a
// single fraction hide themselves.
func (p *Pattern) PreviewText() (string, bool) {
	if p == nil {
		return "", false
	}
	switch p.Type {
	case PatternLinear:
		return "Linear", false
	case PatternRadial:
		return "Radial", false
	case PatternConic:
		return "Conic", false
	}
	return p.Color.Hex(), true
}

// Opacity returns the pattern's alpha fraction. Gradients report the first
// stop's alpha so the inspector still has a value to show.
func (p *Pattern) Opacity() float64 {
	if p == nil {
		return 1
	}
	if p.Type != PatternSolid && p.Type != "" && len(p.Stops) > 0 {
		return p.Stops[0].Color.A
	}
	return p.Color.A
}

// SetOpacity replaces the pattern's alpha fraction, clamped to [0,1].
func (p *Pattern) SetOpacity(fraction float64) {
	if p == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if p.Type != PatternSolid && p.Type != "" {
		for i := range p.Stops {
			p.Stops[i].Color.A = fraction
		}
		return
	}
	p.Color.A = fraction
}

// Element is one positioned element on a story page.
type Element struct {
	ID         string
	Type       string
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Text       string
	Background *Pattern
}

// Page is one story page.
type Page struct {
	ID       string
	Elements []Element
}

// Story is a Web Stories document.
type Story struct {
	ID        int
	Title     string
	Slug      string
	Status    string
	Author    int
	Excerpt   string
	Link      string
	PosterURL string
	Pages     []Page
}

type restRendered struct {
	Raw      string `json:"raw"`
	Rendered string `json:"rendered"`
}

func (r restRendered) text() string {
	if strings.TrimSpace(r.Raw) != "" {
		return normalizeWhitespace(r.Raw)
	}
	return normalizeWhitespace(stripTags(r.Rendered))
}

type restElement struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	Content         string   `json:"content"`
	BackgroundColor *Pattern `json:"backgroundColor"`
}

type restPage struct {
	ID       string        `json:"id"`
	Elements []restElement `json:"elements"`
}

type restStoryData struct {
	Version int        `json:"version"`
	Pages   []restPage `json:"pages"`
}

type restStory struct {
	ID               int           `json:"id"`
	Slug             string        `json:"slug"`
	Status           string        `json:"status"`
	Link             string        `json:"link"`
	Title            restRendered  `json:"title"`
	Excerpt          restRendered  `json:"excerpt"`
	Author           int           `json:"author"`
	FeaturedMediaURL string        `json:"featured_media_url"`
	StoryData        restStoryData `json:"story_data"`
}

var (
	tagPattern           = regexp.MustCompile(`<[^>]*>`)
	extraneousWhitespace = regexp.MustCompile(`\s+`)
)

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, " ")
}

func normalizeWhitespace(s string) string {
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func convertStory(raw restStory) Story {
	st := Story{
		ID:        raw.ID,
		Title:     raw.Title.text(),
		Slug:      raw.Slug,
		Status:    raw.Status,
		Author:    raw.Author,
		Excerpt:   raw.Excerpt.text(),
		Link:      raw.Link,
		PosterURL: raw.FeaturedMediaURL,
	}
	for _, page := range raw.StoryData.Pages {
		p := Page{ID: page.ID, Elements: make([]Element, 0, len(page.Elements))}
		for _, el := range page.Elements {
			p.Elements = append(p.Elements, Element{
				ID:         el.ID,
				Type:       el.Type,
				X:          el.X,
				Y:          el.Y,
				Width:      el.Width,
				Height:     el.Height,
				Text:       normalizeWhitespace(stripTags(el.Content)),
				Background: el.BackgroundColor,
			})
		}
		st.Pages = append(st.Pages, p)
	}
	return st
}

// Parse decodes a single REST story payload.
func Parse(data []byte) (*Story, error) {
	var raw restStory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode story payload: %w", err)
	}
	st := convertStory(raw)
	return &st, nil
}

// ParseList decodes a REST story collection payload.
func ParseList(data []byte) ([]Story, error) {
	var raw []restStory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode story list payload: %w", err)
	}
	stories := make([]Story, 0, len(raw))
	for _, entry := range raw {
		stories = append(stories, convertStory(entry))
	}
	return stories, nil
}
