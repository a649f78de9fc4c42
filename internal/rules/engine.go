package rules

import (
	_ "embed"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"lifeos/internal/model"

	aho_corasick "github.com/petar-dambovaliev/aho-corasick"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// amountPattern matches a number with a currency symbol in front or a
// currency unit behind it. Group 1 or group 2 holds the number.
var amountPattern = regexp.MustCompile(`(?i)[¥￥$]\s*(\d+(?:\.\d{1,2})?)|(\d+(?:\.\d{1,2})?)\s*(?:块钱|元|块|rmb|yuan|dollars?|usd|cny|bucks)`)

type TagGroup struct {
	Tag      string   `yaml:"tag"`
	Triggers []string `yaml:"triggers"`
}

type Taxonomy struct {
	Types    map[model.RecordType][]string `yaml:"types"`
	BaseTags map[model.RecordType]string   `yaml:"base_tags"`
	Groups   []TagGroup                    `yaml:"tag_groups"`
	Emotion  struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	} `yaml:"emotion"`
}

func ParseTaxonomy(data []byte) (Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Taxonomy{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(t.Types) == 0 {
		return Taxonomy{}, fmt.Errorf("parse taxonomy: no record types")
	}
	return t, nil
}

// Engine classifies text with keyword and regex rules only.
type Engine struct {
	tax      Taxonomy
	ac       aho_corasick.AhoCorasick
	patterns []string
	// wordOnly marks ASCII patterns, which must match whole words.
	wordOnly []bool
	now      func() time.Time
}

var defaultEngine = mustDefaultEngine()

func mustDefaultEngine() *Engine {
	t, err := ParseTaxonomy(taxonomyYAML)
	if err != nil {
		panic(err)
	}
	return NewEngine(t)
}

// Default returns the engine built from the embedded taxonomy.
func Default() *Engine {
	return defaultEngine
}

func NewEngine(t Taxonomy) *Engine {
	seen := make(map[string]bool)
	var patterns []string
	add := func(words []string) {
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" || seen[w] {
				continue
			}
			seen[w] = true
			patterns = append(patterns, w)
		}
	}

	for _, rt := range model.RecordTypeOrder {
		add(t.Types[rt])
	}
	for _, g := range t.Groups {
		add(g.Triggers)
	}
	add(t.Emotion.Positive)
	add(t.Emotion.Negative)

	b := aho_corasick.NewAhoCorasickBuilder(aho_corasick.Opts{
		AsciiCaseInsensitive: false,
		MatchOnlyWholeWords:  false,
		MatchKind:            aho_corasick.StandardMatch,
		DFA:                  false,
	})

	wordOnly := make([]bool, len(patterns))
	for i, p := range patterns {
		wordOnly[i] = isASCII(p)
	}

	return &Engine{
		tax:      t,
		ac:       b.Build(patterns),
		patterns: patterns,
		wordOnly: wordOnly,
		now:      time.Now,
	}
}

// Classify never fails; a panic during classification yields the default
// diary result for text.
func (e *Engine) Classify(text string) (result model.ExtractionResult) {
	now := e.now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("rule classification failed", "error", r)
			result = model.DefaultResult(text, now)
		}
	}()

	lower := strings.ToLower(text)
	found := e.scan(lower)
	amount := ExtractAmount(lower)

	types := e.detectTypes(found, amount)

	return model.ExtractionResult{
		RecordTypes:  types,
		Amount:       amount,
		Tags:         e.tags(types, found),
		EmotionScore: e.emotion(found),
		RecordTime:   now.Format(model.TimeLayout),
		Summary:      summarize(text, types, amount),
	}
}

// scan returns every taxonomy keyword contained in s. English keywords
// only count as whole words, so "bus" is not found in "business".
func (e *Engine) scan(s string) map[string]bool {
	found := make(map[string]bool)
	iter := e.ac.IterOverlapping(s)
	for {
		m := iter.Next()
		if m == nil {
			break
		}
		i := m.Pattern()
		if i >= len(e.patterns) {
			continue
		}
		if e.wordOnly[i] && !wholeWord(s, m.Start(), m.End()) {
			continue
		}
		found[e.patterns[i]] = true
	}
	return found
}

// wholeWord reports whether s[start:end] has no ASCII letter or digit
// directly on either side. A neighbouring CJK character is a boundary.
func wholeWord(s string, start, end int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	return end >= len(s) || !isWordByte(s[end])
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func containsAny(found map[string]bool, words []string) bool {
	for _, w := range words {
		if found[strings.ToLower(w)] {
			return true
		}
	}
	return false
}

func (e *Engine) detectTypes(found map[string]bool, amount decimal.NullDecimal) []model.RecordType {
	var types []model.RecordType

	if containsAny(found, e.tax.Types[model.TypeExpense]) || (amount.Valid && amount.Decimal.IsPositive()) {
		types = append(types, model.TypeExpense)
	}
	if containsAny(found, e.tax.Types[model.TypeMood]) {
		types = append(types, model.TypeMood)
	}
	if containsAny(found, e.tax.Types[model.TypeEvent]) {
		types = append(types, model.TypeEvent)
	}

	if len(types) == 0 {
		types = append(types, model.TypeDiary)
	}
	return types
}

func (e *Engine) tags(types []model.RecordType, found map[string]bool) []string {
	var tags []string
	seen := make(map[string]bool)
	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, t := range types {
		add(e.tax.BaseTags[t])
	}
	for _, g := range e.tax.Groups {
		if containsAny(found, g.Triggers) {
			add(g.Tag)
		}
	}

	if len(tags) == 0 {
		tags = append(tags, model.UncategorizedTag)
	}
	return tags
}

func (e *Engine) emotion(found map[string]bool) int {
	score := 0
	for _, w := range e.tax.Emotion.Positive {
		if found[strings.ToLower(w)] {
			score += 2
		}
	}
	for _, w := range e.tax.Emotion.Negative {
		if found[strings.ToLower(w)] {
			score -= 2
		}
	}
	return model.ClampEmotion(score)
}

// ExtractAmount sums every currency amount in s. Unset when none is found.
func ExtractAmount(s string) decimal.NullDecimal {
	matches := amountPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return decimal.NullDecimal{}
	}

	total := decimal.Zero
	parsed := false
	for _, m := range matches {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		total = total.Add(d)
		parsed = true
	}

	if !parsed {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(total)
}

func summarize(text string, types []model.RecordType, amount decimal.NullDecimal) string {
	var parts []string
	for _, t := range types {
		switch t {
		case model.TypeExpense:
			if amount.Valid {
				parts = append(parts, "消费 ¥"+amount.Decimal.String())
			} else {
				parts = append(parts, "消费")
			}
		case model.TypeMood:
			parts = append(parts, "情绪记录")
		case model.TypeEvent:
			parts = append(parts, "事件")
		}
	}

	if len(parts) == 0 {
		return model.Truncate(text, 40)
	}
	return strings.Join(parts, " | ")
}
