package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// IngredientLineParser parses free-text ingredient lines like
// "2 cups diced tomatoes" or "1 ½ lb chicken breast" into quantity, unit
// and name. Names go on to the resolver untouched.
type IngredientLineParser struct {
	bulletPattern   *regexp.Regexp
	quantityPattern *regexp.Regexp
	rangePattern    *regexp.Regexp
	fractionPattern *regexp.Regexp
	unitPattern     *regexp.Regexp
}

// ParsedLine is the structured form of one free-text ingredient line
type ParsedLine struct {
	Name     string
	Quantity float64
	Unit     string
	Notes    string
	RawText  string
}

// Unicode vulgar fractions mapping
var unicodeFractions = map[rune]float64{
	'¼': 0.25,     // ¼
	'½': 0.5,      // ½
	'¾': 0.75,     // ¾
	'⅓': 0.333333, // ⅓
	'⅔': 0.666667, // ⅔
	'⅕': 0.2,      // ⅕
	'⅖': 0.4,      // ⅖
	'⅗': 0.6,      // ⅗
	'⅘': 0.8,      // ⅘
	'⅙': 0.166667, // ⅙
	'⅚': 0.833333, // ⅚
	'⅛': 0.125,    // ⅛
	'⅜': 0.375,    // ⅜
	'⅝': 0.625,    // ⅝
	'⅞': 0.875,    // ⅞
}

// Superscript digits for fractions like ¹/₂
var superscriptDigits = map[rune]int{
	'⁰': 0, '¹': 1, '²': 2, '³': 3,
	'⁴': 4, '⁵': 5, '⁶': 6, '⁷': 7,
	'⁸': 8, '⁹': 9,
}

// Subscript digits for fractions like ¹/₂
var subscriptDigits = map[rune]int{
	'₀': 0, '₁': 1, '₂': 2, '₃': 3,
	'₄': 4, '₅': 5, '₆': 6, '₇': 7,
	'₈': 8, '₉': 9,
}

// Unit normalization map
var unitNormalization = map[string]string{
	// Volume
	"tsp":          "teaspoon",
	"teaspoons":    "teaspoon",
	"tbsp":         "tablespoon",
	"tbs":          "tablespoon",
	"tablespoons":  "tablespoon",
	"fl oz":        "fluid ounce",
	"floz":         "fluid ounce",
	"fluid ounces": "fluid ounce",
	"c":            "cup",
	"cups":         "cup",
	"pt":           "pint",
	"pints":        "pint",
	"qt":           "quart",
	"quarts":       "quart",
	"l":            "liter",
	"liters":       "liter",
	"litres":       "liter",
	"ml":           "ml",
	"milliliter":   "ml",
	"milliliters":  "ml",

	// Weight
	"oz":        "ounce",
	"ounces":    "ounce",
	"lb":        "pound",
	"lbs":       "pound",
	"pounds":    "pound",
	"g":         "g",
	"gram":      "g",
	"grams":     "g",
	"kg":        "kilogram",
	"kilograms": "kilogram",

	// Count
	"pc":      "piece",
	"pcs":     "piece",
	"pieces":  "piece",
	"ea":      "piece",
	"each":    "piece",
	"bunch":   "bunch",
	"bunches": "bunch",
	"head":    "head",
	"heads":   "head",
	"clove":   "clove",
	"cloves":  "clove",
	"sprig":   "sprig",
	"sprigs":  "sprig",
	"stalk":   "stalk",
	"stalks":  "stalk",
	"slice":   "slice",
	"slices":  "slice",
	"can":     "can",
	"cans":    "can",
	"jar":     "jar",
	"jars":    "jar",
	"dash":    "dash",
	"dashes":  "dash",
	"pinch":   "pinch",
	"pinches": "pinch",
}

// NewIngredientLineParser creates a new parser instance
func NewIngredientLineParser() *IngredientLineParser {
	return &IngredientLineParser{
		// Optional markdown bullet or checkbox prefix
		bulletPattern: regexp.MustCompile(`^\s*(?:-\s*\[[ xX]?\]|[-*])\s*(.+)$`),

		// Quantity at start: 1, 1.5
		quantityPattern: regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*`),

		// Quantity range: 2.5 - 3
		rangePattern: regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*`),

		// ASCII fraction: 1/2, 3/4
		fractionPattern: regexp.MustCompile(`^(\d+)/(\d+)\s*`),

		// Units, longer alternatives first so "tablespoons" wins over "t"
		unitPattern: regexp.MustCompile(`(?i)^(tablespoons?|teaspoons?|fluid ounces?|milliliters?|kilograms?|bunches?|ounces?|pounds?|pieces?|liters?|sprigs?|stalks?|slices?|cloves?|quarts?|pinch(?:es)?|pints?|dashes?|heads?|grams?|each|cups?|cans?|jars?|tbsp|floz|tsp|tbs|cup|qt|pt|oz|lbs?|ml|kg|ea|pcs?|g|l|c)\b\s*`),
	}
}

// ParseLine parses one free-text ingredient line
func (p *IngredientLineParser) ParseLine(text string) ParsedLine {
	line := ParsedLine{
		RawText:  text,
		Quantity: 1.0,
	}

	content := strings.TrimSpace(text)
	if matches := p.bulletPattern.FindStringSubmatch(content); len(matches) == 2 {
		content = strings.TrimSpace(matches[1])
	}

	content, line.Quantity = p.extractQuantity(content)
	content, line.Unit = p.extractUnit(content)
	content, line.Notes = p.extractNotes(content)
	line.Name = p.cleanName(content)

	return line
}

// Parse parses multi-line text, one ingredient per line, skipping blanks
func (p *IngredientLineParser) Parse(content string) []ParsedLine {
	var lines []ParsedLine
	for _, raw := range strings.Split(content, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parsed := p.ParseLine(raw)
		if parsed.Name == "" {
			continue
		}
		lines = append(lines, parsed)
	}
	return lines
}

var wholeAndUnicodeFraction = regexp.MustCompile(`^(\d+)\s+`)
var wholeAndFractionPattern = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)\s*`)

// extractQuantity handles ranges, mixed numbers, fractions and decimals
func (p *IngredientLineParser) extractQuantity(s string) (string, float64) {
	s = strings.TrimSpace(s)
	quantity := 1.0

	// Range like "2.5 - 3" averages out
	if matches := p.rangePattern.FindStringSubmatch(s); len(matches) == 3 {
		low, _ := strconv.ParseFloat(matches[1], 64)
		high, _ := strconv.ParseFloat(matches[2], 64)
		quantity = (low + high) / 2
		return strings.TrimSpace(s[len(matches[0]):]), quantity
	}

	// Whole number + Unicode fraction: "1 ½"
	if matches := wholeAndUnicodeFraction.FindStringSubmatch(s); len(matches) == 2 {
		afterWhole := strings.TrimSpace(s[len(matches[0]):])
		rest, unicodeQty := p.extractUnicodeFraction(afterWhole)
		if unicodeQty > 0 {
			whole, _ := strconv.ParseFloat(matches[1], 64)
			return rest, whole + unicodeQty
		}
	}

	// Whole number + ASCII fraction: "1 1/2"
	if matches := wholeAndFractionPattern.FindStringSubmatch(s); len(matches) == 4 {
		whole, _ := strconv.ParseFloat(matches[1], 64)
		num, _ := strconv.ParseFloat(matches[2], 64)
		denom, _ := strconv.ParseFloat(matches[3], 64)
		if denom != 0 {
			quantity = whole + (num / denom)
		}
		return strings.TrimSpace(s[len(matches[0]):]), quantity
	}

	// Bare Unicode fraction
	rest, unicodeQty := p.extractUnicodeFraction(s)
	if unicodeQty > 0 {
		return rest, unicodeQty
	}

	// Bare ASCII fraction: "1/2"
	if matches := p.fractionPattern.FindStringSubmatch(s); len(matches) == 3 {
		num, _ := strconv.ParseFloat(matches[1], 64)
		denom, _ := strconv.ParseFloat(matches[2], 64)
		if denom != 0 {
			quantity = num / denom
		}
		return strings.TrimSpace(s[len(matches[0]):]), quantity
	}

	// Decimal or whole number
	if matches := p.quantityPattern.FindStringSubmatch(s); len(matches) == 2 {
		quantity, _ = strconv.ParseFloat(matches[1], 64)
		s = strings.TrimSpace(s[len(matches[0]):])
	}

	return s, quantity
}

// extractUnicodeFraction handles vulgar fractions and superscript/subscript
// pairs like ¹/₂
func (p *IngredientLineParser) extractUnicodeFraction(s string) (string, float64) {
	runes := []rune(s)
	idx := 0
	for idx < len(runes) && unicode.IsSpace(runes[idx]) {
		idx++
	}
	if idx >= len(runes) {
		return s, 0
	}

	if val, ok := unicodeFractions[runes[idx]]; ok {
		return strings.TrimSpace(string(runes[idx+1:])), val
	}

	numerator := 0
	hasNumerator := false
	for idx < len(runes) {
		digit, ok := superscriptDigits[runes[idx]]
		if !ok {
			break
		}
		numerator = numerator*10 + digit
		idx++
		hasNumerator = true
	}

	// Fraction slash (U+2044) or regular slash, then subscript denominator
	if hasNumerator && idx < len(runes) && (runes[idx] == '⁄' || runes[idx] == '/') {
		idx++
		denominator := 0
		hasDenominator := false
		for idx < len(runes) {
			digit, ok := subscriptDigits[runes[idx]]
			if !ok {
				break
			}
			denominator = denominator*10 + digit
			idx++
			hasDenominator = true
		}
		if hasDenominator && denominator > 0 {
			return strings.TrimSpace(string(runes[idx:])), float64(numerator) / float64(denominator)
		}
	}

	return s, 0
}

// extractUnit extracts and normalizes the unit
func (p *IngredientLineParser) extractUnit(s string) (string, string) {
	s = strings.TrimSpace(s)

	if matches := p.unitPattern.FindStringSubmatch(s); len(matches) >= 2 {
		unit := strings.ToLower(matches[1])
		if normalized, ok := unitNormalization[unit]; ok {
			unit = normalized
		}
		return strings.TrimSpace(s[len(matches[0]):]), unit
	}

	return s, ""
}

// extractNotes pulls parenthetical content and trailing comma clauses out
// of the name
func (p *IngredientLineParser) extractNotes(s string) (string, string) {
	var notes []string

	parenPattern := regexp.MustCompile(`\(([^)]+)\)`)
	if matches := parenPattern.FindAllStringSubmatch(s, -1); len(matches) > 0 {
		for _, m := range matches {
			notes = append(notes, strings.TrimSpace(m[1]))
		}
		s = parenPattern.ReplaceAllString(s, "")
	}

	if idx := strings.Index(s, ","); idx >= 0 {
		afterComma := strings.TrimSpace(s[idx+1:])
		if afterComma != "" {
			notes = append(notes, afterComma)
		}
		s = s[:idx]
	}

	return strings.TrimSpace(s), strings.Join(notes, "; ")
}

var lineSpacePattern = regexp.MustCompile(`\s+`)

func (p *IngredientLineParser) cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".,;:-_")
	s = lineSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
