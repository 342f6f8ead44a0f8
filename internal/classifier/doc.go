// Package classifier decides whether a fetched page is a product page.
// It combines URL pattern heuristics with content signals (schema.org
// markup, product-detail containers, add-to-cart controls) and is tuned
// for recall: marking a category page as a product is preferable to
// missing a real product page.
package classifier
