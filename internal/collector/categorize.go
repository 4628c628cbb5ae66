package collector

import (
	"regexp"
	"strings"
)

// weightedKeyword scores occurrences of a lexicon term.
type weightedKeyword struct {
	term   string
	weight int
}

// categoryLexicon maps each fixed category to its weighted keywords. It is
// static configuration data, compiled once at startup. "Other" carries no
// keywords: it is the zero-score fallback, never matched directly.
var categoryLexicon = map[string][]weightedKeyword{
	"AI/ML": {
		{"machine learning", 3}, {"deep learning", 3}, {"neural network", 3},
		{"artificial intelligence", 2}, {"tensorflow", 2}, {"pytorch", 2},
		{"computer vision", 2}, {"nlp", 2}, {"reinforcement learning", 2}, {"ai", 1},
	},
	"Web Dev": {
		{"web development", 3}, {"javascript", 2}, {"react", 2}, {"vue", 2},
		{"angular", 2}, {"node.js", 2}, {"full stack", 2}, {"frontend", 2},
		{"backend", 2}, {"html", 1}, {"css", 1}, {"responsive design", 2},
	},
	"Data Science": {
		{"data science", 3}, {"data analysis", 3}, {"pandas", 2}, {"numpy", 2},
		{"data visualization", 2}, {"data engineering", 2}, {"jupyter", 2}, {"big data", 2},
	},
	"Mobile": {
		{"android", 2}, {"ios", 2}, {"flutter", 2}, {"react native", 3},
		{"swift", 2}, {"kotlin", 2}, {"mobile app", 3}, {"app development", 2},
	},
	"Cloud": {
		{"aws", 2}, {"azure", 2}, {"google cloud", 2}, {"cloud computing", 3},
		{"serverless", 2}, {"cloud architecture", 2}, {"gcp", 2},
	},
	"Cybersecurity": {
		{"cybersecurity", 3}, {"ethical hacking", 3}, {"penetration testing", 3},
		{"network security", 2}, {"information security", 2}, {"security", 1},
	},
	"DevOps": {
		{"devops", 3}, {"ci/cd", 3}, {"jenkins", 2}, {"terraform", 2},
		{"ansible", 2}, {"docker", 2}, {"kubernetes", 2}, {"infrastructure as code", 2},
		{"site reliability", 2},
	},
	"Programming": {
		{"programming", 2}, {"python", 2}, {"java", 2}, {"c++", 2}, {"golang", 2},
		{"rust", 2}, {"coding", 1}, {"software development", 2}, {"algorithms", 2},
		{"data structures", 2},
	},
	"Database": {
		{"database", 3}, {"sql", 2}, {"mongodb", 2}, {"postgresql", 2},
		{"mysql", 2}, {"nosql", 2}, {"database design", 3},
	},
	"Design": {
		{"ui design", 3}, {"ux design", 3}, {"graphic design", 3}, {"figma", 2},
		{"web design", 2}, {"design thinking", 2}, {"adobe", 1},
	},
	"Game Dev": {
		{"game development", 3}, {"unity", 2}, {"unreal engine", 3}, {"godot", 2},
		{"game design", 2}, {"game programming", 3},
	},
	"Blockchain": {
		{"blockchain", 3}, {"solidity", 3}, {"smart contract", 3}, {"web3", 2},
		{"ethereum", 2}, {"cryptocurrency", 2}, {"defi", 2},
	},
	"Networking": {
		{"networking", 2}, {"computer network", 3}, {"ccna", 3}, {"tcp/ip", 3},
		{"routing", 2}, {"network protocol", 2},
	},
	"Embedded": {
		{"embedded systems", 3}, {"arduino", 2}, {"raspberry pi", 2},
		{"microcontroller", 3}, {"firmware", 2}, {"iot", 2},
	},
	"Math": {
		{"linear algebra", 3}, {"calculus", 3}, {"discrete math", 3},
		{"statistics", 2}, {"probability", 2}, {"mathematics", 2},
	},
}

// subcategoryLexicon refines the winning category with a free-text label.
// Keys are category names, entries are checked in order and the first match
// wins. No match means an empty subcategory.
var subcategoryLexicon = map[string][]struct {
	name  string
	terms []string
}{
	"Web Dev": {
		{"React", []string{"react"}},
		{"Vue.js", []string{"vue"}},
		{"Angular", []string{"angular"}},
		{"Node.js", []string{"node"}},
		{"Full Stack", []string{"fullstack", "full stack"}},
		{"Frontend", []string{"frontend"}},
		{"Backend", []string{"backend"}},
	},
	"AI/ML": {
		{"TensorFlow", []string{"tensorflow"}},
		{"PyTorch", []string{"pytorch"}},
		{"Deep Learning", []string{"deep learning"}},
		{"Computer Vision", []string{"computer vision"}},
		{"NLP", []string{"nlp", "natural language"}},
	},
	"Programming": {
		{"Python", []string{"python"}},
		{"JavaScript", []string{"javascript"}},
		{"Java", []string{"java"}},
		{"C++", []string{"c++"}},
		{"Go", []string{"golang", "go programming"}},
		{"Rust", []string{"rust"}},
	},
	"Cloud": {
		{"AWS", []string{"aws", "amazon web services"}},
		{"Azure", []string{"azure"}},
		{"GCP", []string{"google cloud", "gcp"}},
	},
	"Mobile": {
		{"Android", []string{"android", "kotlin"}},
		{"iOS", []string{"ios", "swift"}},
		{"Flutter", []string{"flutter"}},
		{"React Native", []string{"react native"}},
	},
	"Database": {
		{"SQL", []string{"sql"}},
		{"PostgreSQL", []string{"postgresql", "postgres"}},
		{"MongoDB", []string{"mongodb", "mongo"}},
		{"MySQL", []string{"mysql"}},
	},
	"Game Dev": {
		{"Unity", []string{"unity"}},
		{"Unreal", []string{"unreal"}},
		{"Godot", []string{"godot"}},
	},
}

// Categorizer assigns the fixed-taxonomy category and a free-text
// subcategory by scoring lexicon keywords over title and description.
type Categorizer struct {
	// priority is the configured category order, the deterministic
	// tie-break between equal scores.
	priority []string
	patterns map[string][]compiledKeyword
}

type compiledKeyword struct {
	re     *regexp.Regexp
	weight int
}

func NewCategorizer(priority []string) *Categorizer {
	c := &Categorizer{
		priority: priority,
		patterns: make(map[string][]compiledKeyword, len(categoryLexicon)),
	}
	for cat, keywords := range categoryLexicon {
		compiled := make([]compiledKeyword, 0, len(keywords))
		for _, kw := range keywords {
			compiled = append(compiled, compiledKeyword{
				re:     keywordPattern(kw.term),
				weight: kw.weight,
			})
		}
		c.patterns[cat] = compiled
	}
	return c
}

// keywordPattern builds a case-insensitive word-boundary matcher. Terms with
// non-word edge characters (c++, ci/cd, tcp/ip) get explicit edge guards
// because \b does not apply to them.
func keywordPattern(term string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(term)
	left, right := `\b`, `\b`
	if !isWordChar(term[0]) {
		left = `(?:^|\s)`
	}
	if !isWordChar(term[len(term)-1]) {
		right = `(?:$|\s)`
	}
	return regexp.MustCompile(`(?i)` + left + quoted + right)
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Categorize scores every category's keywords over title+description and
// returns the winner plus its subcategory. Zero total score falls back to
// "Other" with an empty subcategory.
func (c *Categorizer) Categorize(title, description string) (string, string) {
	text := title + " " + description

	best := "Other"
	bestScore := 0
	for _, cat := range c.priority {
		score := 0
		for _, kw := range c.patterns[cat] {
			score += len(kw.re.FindAllStringIndex(text, -1)) * kw.weight
		}
		// Strictly greater keeps the earlier category on ties.
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}
	if bestScore == 0 {
		return "Other", ""
	}

	return best, c.subcategorize(best, text)
}

func (c *Categorizer) subcategorize(category, text string) string {
	lower := strings.ToLower(text)
	for _, entry := range subcategoryLexicon[category] {
		for _, term := range entry.terms {
			if strings.Contains(lower, term) {
				return entry.name
			}
		}
	}
	return ""
}
