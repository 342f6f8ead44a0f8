package classifier

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content signal expressions.
// These mirror what product pages across platforms have in common:
// schema.org metadata, a product-detail container, and purchase controls.
var (
	// schemaProductRe matches ld+json blocks declaring a Product or
	// ItemPage entity.
	schemaProductRe = regexp.MustCompile(`"@type"\s*:\s*"(Product|ItemPage)"`)

	// productContainerRe matches id/class attribute values of
	// product-detail containers.
	productContainerRe = regexp.MustCompile(`(?i)product[-_]?(detail|page|view|info)`)

	// addToCartRe matches purchase button text.
	addToCartRe = regexp.MustCompile(`(?i)add to (cart|bag)`)

	// variantControlRe matches variant selector labels near purchase buttons.
	variantControlRe = regexp.MustCompile(`(?i)size|color|quantity`)
)

// analyzeContent inspects an HTML body for product indicators.
// Returns the name of the first matching signal, or "" when none match.
// An error means the body could not be parsed as HTML at all.
//
// Design decision: We use goquery for the structural checks because
// CSS-style selection over id/class attributes and script types is what
// the heuristic needs, and hand-walking the node tree for each check
// would triple this file.
func (c *Classifier) analyzeContent(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	// schema.org Product/ItemPage metadata is the strongest signal.
	signal := ""
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if schemaProductRe.MatchString(s.Text()) {
			signal = "content:ld+json"
			return false
		}
		return true
	})
	if signal != "" {
		return signal, nil
	}

	// Product-detail container by id or class.
	doc.Find("[id],[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if id, ok := s.Attr("id"); ok && productContainerRe.MatchString(id) {
			signal = "content:container"
			return false
		}
		if class, ok := s.Attr("class"); ok && productContainerRe.MatchString(class) {
			signal = "content:container"
			return false
		}
		return true
	})
	if signal != "" {
		return signal, nil
	}

	// Add-to-cart text together with a variant selector (size, color,
	// quantity). Either alone shows up on category pages too.
	if addToCartRe.MatchString(doc.Text()) {
		hasVariant := false
		doc.Find("select,button,label,option").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if variantControlRe.MatchString(s.Text()) {
				hasVariant = true
				return false
			}
			return true
		})
		if hasVariant {
			return "content:add-to-cart", nil
		}
	}

	// Site-specific literal signals from configuration. Matched
	// case-insensitively like the built-in signals.
	if len(c.contentSignals) > 0 {
		text := strings.ToLower(doc.Text())
		for _, s := range c.contentSignals {
			if s != "" && strings.Contains(text, strings.ToLower(s)) {
				return "content:signal:" + s, nil
			}
		}
	}

	return "", nil
}
