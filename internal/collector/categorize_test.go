package collector

import (
	"testing"

	"coursespider/shared/config"
)

func TestCategorize(t *testing.T) {
	c := NewCategorizer(config.DefaultCategories)

	tests := []struct {
		name        string
		title       string
		description string
		wantCat     string
		wantSub     string
	}{
		{
			name:        "machine learning",
			title:       "Deep Learning with PyTorch",
			description: "A full machine learning course covering neural networks",
			wantCat:     "AI/ML",
			wantSub:     "PyTorch",
		},
		{
			name:        "react web dev",
			title:       "React Course for Beginners",
			description: "Build frontend apps with javascript and react",
			wantCat:     "Web Dev",
			wantSub:     "React",
		},
		{
			name:        "databases",
			title:       "MongoDB Database Design",
			description: "A document database design course from scratch",
			wantCat:     "Database",
			wantSub:     "MongoDB",
		},
		{
			name:        "no lexicon match",
			title:       "Sourdough Baking for Beginners",
			description: "Knead, proof, bake",
			wantCat:     "Other",
			wantSub:     "",
		},
		{
			name:        "subcategory fallback is empty",
			title:       "Penetration Testing Fundamentals",
			description: "An ethical hacking walkthrough",
			wantCat:     "Cybersecurity",
			wantSub:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, sub := c.Categorize(tt.title, tt.description)
			if cat != tt.wantCat {
				t.Errorf("category = %q, want %q", cat, tt.wantCat)
			}
			if sub != tt.wantSub {
				t.Errorf("subcategory = %q, want %q", sub, tt.wantSub)
			}
		})
	}
}

func TestCategorizeWordBoundaries(t *testing.T) {
	c := NewCategorizer(config.DefaultCategories)

	// "ai" must match as a word, not inside other words.
	cat, _ := c.Categorize("Waiting for paint to dry", "maintained daily")
	if cat != "Other" {
		t.Errorf("category = %q, want Other (no substring matches)", cat)
	}

	// Terms with non-word characters still match.
	cat, _ = c.Categorize("C++ course for beginners", "modern c++ programming")
	if cat != "Programming" {
		t.Errorf("category = %q, want Programming", cat)
	}
}

func TestCategorizeTieBreakIsPriorityOrder(t *testing.T) {
	c := NewCategorizer(config.DefaultCategories)

	// "ai" (AI/ML, weight 1) and "css" (Web Dev, weight 1) score equally;
	// AI/ML precedes Web Dev in the priority list and must win
	// deterministically.
	for i := 0; i < 10; i++ {
		cat, _ := c.Categorize("AI meets CSS", "")
		if cat != "AI/ML" {
			t.Fatalf("category = %q on iteration %d, want AI/ML by priority order", cat, i)
		}
	}
}

func TestCategorizeZeroScoreNeverLeaksSubcategory(t *testing.T) {
	c := NewCategorizer(config.DefaultCategories)

	cat, sub := c.Categorize("", "")
	if cat != "Other" || sub != "" {
		t.Errorf("Categorize(empty) = (%q, %q), want (Other, \"\")", cat, sub)
	}
}
