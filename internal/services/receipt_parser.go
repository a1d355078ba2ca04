package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mealwise/meal-plan/internal/models"
)

// ReceiptParser turns raw OCR text into candidate item lines. Parsed names
// feed the ingredient resolver; confirmed lines become price overrides.
type ReceiptParser struct {
	pricePatterns   []*regexp.Regexp
	excludePatterns []*regexp.Regexp
	datePatterns    []*regexp.Regexp
	totalPatterns   []*regexp.Regexp
}

// NewReceiptParser creates a new receipt parser
func NewReceiptParser() *ReceiptParser {
	return &ReceiptParser{
		pricePatterns: []*regexp.Regexp{
			// ITEM NAME UPC $X.XX F (UPC is 11-14 digits)
			regexp.MustCompile(`^(.+?)\s+\d{11,14}\s+\$?(\d{1,3}\.\d{2})\s*[FNT]?\s*$`),
			// QTY x ITEM @ PRICE
			regexp.MustCompile(`^(\d+)\s*[xX@]\s*(.+?)\s+\$?(\d{1,3}\.\d{2})`),
			// ITEM NAME @ X.XX EA
			regexp.MustCompile(`^(.+?)\s+@\s*\$?(\d{1,3}\.\d{2})\s*(?:EA|EACH)?`),
			// ITEM NAME    $X.XX, optionally with a trailing tax flag
			regexp.MustCompile(`^(.+?)\s+\$?(\d{1,3}\.\d{2})\s*[FNT]?\s*$`),
		},
		excludePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^\s*(TAX|SUBTOTAL|SUB\s*TOTAL|TOTAL|GRAND\s*TOTAL|BALANCE|CHANGE|CASH|CREDIT|DEBIT|CARD|VISA|MASTERCARD|AMEX|DISCOVER|SAVINGS|DISCOUNT|COUPON|MEMBER|LOYALTY|POINTS|REWARD|THANK\s*YOU|HAVE\s*A|STORE\s*#|CASHIER|TRANS|REG|DATE|TIME|TEL|PHONE|ADDRESS|RECEIPT|RETURN|REFUND|VOID|SOLD\s*ITEMS?|PAID|PURCHASE)\b`),
			regexp.MustCompile(`^\s*[-=*]+\s*$`),
			regexp.MustCompile(`^\s*\d{2}[/-]\d{2}[/-]\d{2,4}\s*$`),
			regexp.MustCompile(`^\s*\d{1,2}:\d{2}\s*(AM|PM)?\s*$`),
			// Weight detail lines: "2.96 lb @ $0.99 / lb"
			regexp.MustCompile(`^\s*\d+\.?\d*\s*(lb|oz|kg|g)?\s*@\s*\$?\d+\.\d{2}\s*(\/\s*(lb|oz|kg|g)|EACH|EA)?\s*$`),
		},
		datePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`),
			regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`),
		},
		totalPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:TOTAL|GRAND\s*TOTAL|BALANCE\s*DUE|AMOUNT\s*DUE)\s*:?\s*\$?(\d+\.\d{2})`),
		},
	}
}

// Parse extracts item lines, the purchase date and the receipt total
func (p *ReceiptParser) Parse(ocrText string) (*models.ParsedReceipt, error) {
	lines := strings.Split(ocrText, "\n")
	result := &models.ParsedReceipt{
		Items: []models.ParsedItem{},
	}

	result.Date = p.extractDate(lines)
	result.Total = p.extractTotal(lines)

	lineNumber := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || p.shouldExclude(line) {
			continue
		}

		item := p.parseLine(line, lineNumber)
		if item != nil {
			result.Items = append(result.Items, *item)
			lineNumber++
		}
	}

	return result, nil
}

// parseLine attempts to parse a line as an item with price
func (p *ReceiptParser) parseLine(line string, lineNumber int) *models.ParsedItem {
	line = p.cleanLine(line)

	for _, pattern := range p.pricePatterns {
		matches := pattern.FindStringSubmatch(line)
		if len(matches) < 3 {
			continue
		}

		var name, priceStr string
		quantity := 1.0

		if len(matches) == 4 {
			// Pattern with quantity: QTY, NAME, PRICE
			if qty, err := strconv.Atoi(matches[1]); err == nil {
				quantity = float64(qty)
			}
			name = matches[2]
			priceStr = matches[3]
		} else {
			name = matches[1]
			priceStr = matches[2]
		}

		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			continue
		}

		name = p.cleanItemName(name)
		if name == "" {
			continue
		}

		// Implausible prices are usually phone numbers or UPC fragments
		if price <= 0 || price > 9999 {
			continue
		}

		return &models.ParsedItem{
			RawText:    line,
			Name:       name,
			Price:      price,
			Quantity:   quantity,
			LineNumber: lineNumber,
		}
	}

	return nil
}

func (p *ReceiptParser) shouldExclude(line string) bool {
	for _, pattern := range p.excludePatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

var receiptSpaceRe = regexp.MustCompile(`\s+`)

// cleanLine collapses whitespace and strips common OCR artifacts
func (p *ReceiptParser) cleanLine(line string) string {
	line = receiptSpaceRe.ReplaceAllString(line, " ")
	line = strings.ReplaceAll(line, "|", "")
	line = strings.ReplaceAll(line, "\\", "")
	return strings.TrimSpace(line)
}

func (p *ReceiptParser) cleanItemName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ".,;:-_")
	for _, prefix := range []string{"@", "#", "*"} {
		name = strings.TrimPrefix(name, prefix)
	}
	return strings.TrimSpace(name)
}

// extractDate finds the first plausible purchase date
func (p *ReceiptParser) extractDate(lines []string) *time.Time {
	for _, line := range lines {
		for _, pattern := range p.datePatterns {
			matches := pattern.FindStringSubmatch(line)
			if len(matches) < 4 {
				continue
			}

			month, err1 := strconv.Atoi(matches[1])
			day, err2 := strconv.Atoi(matches[2])
			year, err3 := strconv.Atoi(matches[3])
			if err1 != nil || err2 != nil || err3 != nil {
				continue
			}

			// YYYY-MM-DD when the first group is a 4-digit year
			if len(matches[1]) == 4 {
				year, _ = strconv.Atoi(matches[1])
				month, _ = strconv.Atoi(matches[2])
				day, _ = strconv.Atoi(matches[3])
			}

			if year < 100 {
				if year > 50 {
					year += 1900
				} else {
					year += 2000
				}
			}

			if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
				date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
				return &date
			}
		}
	}
	return nil
}

// extractTotal searches from the bottom, where receipts print their total
func (p *ReceiptParser) extractTotal(lines []string) *float64 {
	for i := len(lines) - 1; i >= 0; i-- {
		for _, pattern := range p.totalPatterns {
			matches := pattern.FindStringSubmatch(lines[i])
			if len(matches) >= 2 {
				total, err := strconv.ParseFloat(matches[1], 64)
				if err == nil && total > 0 {
					return &total
				}
			}
		}
	}
	return nil
}
