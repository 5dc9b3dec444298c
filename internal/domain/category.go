package domain

import "fmt"

// Category is the closed set of digest sections.
type Category int

const (
	MustKnow Category = iota
	SportsContext
	TechAndTools
	FunStuff
	Uncategorized
)

var categoryLabels = map[Category]string{
	MustKnow:      "Must Know",
	SportsContext: "Sports Context",
	TechAndTools:  "Tech & Tools",
	FunStuff:      "Fun Stuff",
	Uncategorized: "Uncategorized",
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{MustKnow, SportsContext, TechAndTools, FunStuff, Uncategorized}
}

// String returns the label the classifier and templates use.
func (c Category) String() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Slug is a stable, URL-safe identifier used for HTML anchors and metric labels.
func (c Category) Slug() string {
	switch c {
	case MustKnow:
		return "must-know"
	case SportsContext:
		return "sports-context"
	case TechAndTools:
		return "tech-and-tools"
	case FunStuff:
		return "fun-stuff"
	case Uncategorized:
		return "uncategorized"
	default:
		return "unknown"
	}
}

// ParseCategory maps a label back to its category. Matching is exact.
func ParseCategory(label string) (Category, error) {
	for c, l := range categoryLabels {
		if l == label {
			return c, nil
		}
	}
	return Uncategorized, fmt.Errorf("unknown category %q", label)
}
