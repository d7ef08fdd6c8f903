package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		text     string
		expected Intent
	}{
		// Add patterns
		{"add milk to my list", IntentAdd},
		{"put 2 apples in my cart", IntentAdd},
		{"please include bread", IntentAdd},
		{"insert eggs", IntentAdd},

		// Remove patterns
		{"remove milk from my list", IntentRemove},
		{"delete the bananas", IntentRemove},
		{"take out the cheese", IntentRemove},
		{"drop the yogurt", IntentRemove},

		// Clear patterns
		{"clear my shopping list", IntentClear},
		{"empty the cart", IntentClear},

		// Remove keywords win over clear when both could apply
		{"remove all items from my cart", IntentRemove},
		{"delete all from my list", IntentRemove},

		// Search patterns
		{"find organic bananas", IntentSearch},
		{"search for pasta", IntentSearch},
		{"look for cheap cereal", IntentSearch},

		// Search keywords win over view; "show" is a search verb first
		{"show my cart", IntentSearch},
		{"show my shopping list", IntentSearch},

		// View patterns without search verbs
		{"view my list", IntentView},
		{"what's in my cart", IntentView},
		{"display the list", IntentView},

		// Verbs embedded inside other words never trigger an intent
		{"find a ladder", IntentSearch},
		{"update my address", IntentUnknown},
		{"display the gadget aisle", IntentUnknown},

		// Unknown
		{"hello there", IntentUnknown},
		{"checkout now", IntentUnknown},
		{"", IntentUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifier.Classify(tc.text), "intent mismatch for: %s", tc.text)
		})
	}
}

func TestExtractor_Extract(t *testing.T) {
	extractor := NewExtractor()

	tests := []struct {
		name         string
		text         string
		intent       Intent
		wantProduct  string
		wantQuantity int
		wantBrand    string
	}{
		{
			name:         "add with quantity",
			text:         "add 2 apples to my list",
			intent:       IntentAdd,
			wantProduct:  "apples",
			wantQuantity: 2,
		},
		{
			name:         "add without quantity defaults to one",
			text:         "add milk to my list",
			intent:       IntentAdd,
			wantProduct:  "milk",
			wantQuantity: 1,
		},
		{
			name:         "add multi-word product",
			text:         "add 3 organic bananas",
			intent:       IntentAdd,
			wantProduct:  "organic bananas",
			wantQuantity: 3,
		},
		{
			name:         "remove strips container words",
			text:         "remove milk from my list",
			intent:       IntentRemove,
			wantProduct:  "milk",
			wantQuantity: 1,
			wantBrand:    "my",
		},
		{
			name:         "remove with quantity",
			text:         "remove 2 apples from the cart",
			intent:       IntentRemove,
			wantProduct:  "apples",
			wantQuantity: 2,
			wantBrand:    "the",
		},
		{
			name:         "search phrase",
			text:         "find organic bananas",
			intent:       IntentSearch,
			wantProduct:  "organic bananas",
			wantQuantity: 1,
		},
		{
			name:         "brand hint",
			text:         "add cereal brand kellogg",
			intent:       IntentAdd,
			wantProduct:  "cereal brand kellogg",
			wantQuantity: 1,
			wantBrand:    "kellogg",
		},
		{
			name:         "only fillers leaves no product",
			text:         "add some to the list",
			intent:       IntentAdd,
			wantProduct:  "",
			wantQuantity: 1,
		},
		{
			name:         "template miss falls back to text after quantity",
			text:         "add-on 5 batteries",
			intent:       IntentAdd,
			wantProduct:  "batteries",
			wantQuantity: 5,
		},
		{
			name:         "template miss without quantity leaves no product",
			text:         "put-back milk",
			intent:       IntentAdd,
			wantProduct:  "",
			wantQuantity: 1,
		},
		{
			name:         "clear has no product phrase",
			text:         "clear my shopping list",
			intent:       IntentClear,
			wantProduct:  "",
			wantQuantity: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			product, quantity, brand := extractor.Extract(tc.text, tc.intent)
			assert.Equal(t, tc.wantProduct, product)
			assert.Equal(t, tc.wantQuantity, quantity)
			assert.Equal(t, tc.wantBrand, brand)
		})
	}
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser()

	cmd := parser.Parse("add 2 apples to my list")
	assert.Equal(t, IntentAdd, cmd.Intent)
	assert.Equal(t, "apples", cmd.Product)
	assert.Equal(t, 2, cmd.Quantity)
	assert.Equal(t, "add 2 apples to my list", cmd.RawText)
}
