// Package voice turns free-form shopping utterances into structured commands
// and executes them against the cart and catalog.
package voice

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent classifies what a spoken command asks for.
type Intent string

const (
	IntentAdd     Intent = "add"
	IntentRemove  Intent = "remove"
	IntentClear   Intent = "clear"
	IntentSearch  Intent = "search"
	IntentView    Intent = "view"
	IntentUnknown Intent = "unknown"
)

// ParsedCommand is the structured form of an utterance. Product is empty when
// no product phrase survived extraction.
type ParsedCommand struct {
	Intent   Intent `json:"intent"`
	Product  string `json:"product,omitempty"`
	Quantity int    `json:"quantity"`
	Brand    string `json:"brand,omitempty"`
	RawText  string `json:"rawText"`
}

// rule pairs a predicate with the intent it yields. Rules are evaluated in
// order and the first match wins, so broader verbs must come after narrower
// ones that share keywords.
type rule struct {
	intent Intent
	match  func(text string) bool
}

// Classifier maps lowercase utterances to intents via an ordered rule table.
type Classifier struct {
	rules []rule
}

// NewClassifier builds the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{
		rules: []rule{
			{IntentAdd, matchAny("add", "put", "include", "insert")},
			{IntentRemove, matchAny("remove", "delete", "take out", "drop")},
			{IntentClear, allOf(
				matchAny("clear", "empty", "delete all", "remove all"),
				matchAny("list", "cart"),
			)},
			{IntentSearch, matchAny("find", "search", "show", "get", "look for")},
			{IntentView, allOf(
				matchAny("show", "view", "display", "what's in"),
				matchAny("list", "cart"),
			)},
		},
	}
}

// Classify returns the intent of an utterance, IntentUnknown when no rule
// matches.
func (c *Classifier) Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		if r.match(lower) {
			return r.intent
		}
	}
	return IntentUnknown
}

// matchAny matches any of the keywords on word boundaries, so embedded verbs
// ("ladder", "address") never trigger an intent.
func matchAny(keywords ...string) func(string) bool {
	re := regexp.MustCompile(`\b(?:` + strings.Join(keywords, "|") + `)\b`)
	return re.MatchString
}

func allOf(preds ...func(string) bool) func(string) bool {
	return func(text string) bool {
		for _, p := range preds {
			if !p(text) {
				return false
			}
		}
		return true
	}
}

var (
	addPhraseRe    = regexp.MustCompile(`(?i)(?:add|put|include|insert)\s+(?:\d+\s+)?(.+?)(?:\s+to\b|\s*$)`)
	removePhraseRe = regexp.MustCompile(`(?i)(?:remove|delete|take out|drop)\s+(?:\d+\s+)?(.+?)(?:\s+from\b|\s*$)`)
	searchPhraseRe = regexp.MustCompile(`(?i)(?:find|search|show|get|look for)\s+(.+?)(?:\s+in\b|\s*$)`)
	brandRe        = regexp.MustCompile(`(?i)\b(?:brand|from)\s+([a-z]+)`)
	quantityRe     = regexp.MustCompile(`\b(\d+)\b`)
)

// fillerWords never carry product meaning and are stripped from extracted
// phrases.
var fillerWords = map[string]bool{
	"to": true, "from": true, "the": true, "a": true, "an": true,
	"my": true, "in": true, "please": true, "some": true,
}

// Extractor pulls the product phrase, quantity and brand hint out of an
// utterance, given its intent.
type Extractor struct{}

// NewExtractor creates an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the product phrase, quantity and brand hint of an
// utterance. Quantity defaults to 1 when no number appears in the text.
func (e *Extractor) Extract(text string, intent Intent) (product string, quantity int, brand string) {
	quantity = 1
	if m := quantityRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			quantity = n
		}
	}

	if m := brandRe.FindStringSubmatch(text); m != nil {
		brand = strings.ToLower(m[1])
	}

	var re *regexp.Regexp
	switch intent {
	case IntentAdd:
		re = addPhraseRe
	case IntentRemove:
		re = removePhraseRe
	case IntentSearch:
		re = searchPhraseRe
	default:
		return "", quantity, brand
	}

	m := re.FindStringSubmatch(text)
	if m == nil {
		return e.afterQuantity(text, intent), quantity, brand
	}
	return e.stripFillers(m[1], intent), quantity, brand
}

// afterQuantity handles utterances no template fits: the product phrase is
// everything after the first integer token, filler-stripped. Without a
// quantity token nothing survives.
func (e *Extractor) afterQuantity(text string, intent Intent) string {
	loc := quantityRe.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return e.stripFillers(text[loc[1]:], intent)
}

// stripFillers removes filler words and digits from a raw phrase. REMOVE
// commands additionally drop the words list and cart, which name the
// container rather than a product.
func (e *Extractor) stripFillers(raw string, intent Intent) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(raw)) {
		if fillerWords[w] {
			continue
		}
		if intent == IntentRemove && (w == "list" || w == "cart") {
			continue
		}
		if _, err := strconv.Atoi(w); err == nil {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Parser combines classification and extraction.
type Parser struct {
	classifier *Classifier
	extractor  *Extractor
}

// NewParser creates a parser with the default rule table.
func NewParser() *Parser {
	return &Parser{
		classifier: NewClassifier(),
		extractor:  NewExtractor(),
	}
}

// Parse turns an utterance into a structured command.
func (p *Parser) Parse(text string) ParsedCommand {
	intent := p.classifier.Classify(text)
	product, quantity, brand := p.extractor.Extract(text, intent)
	return ParsedCommand{
		Intent:   intent,
		Product:  product,
		Quantity: quantity,
		Brand:    brand,
		RawText:  text,
	}
}
