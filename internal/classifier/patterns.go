package classifier

// DefaultProductPatterns are the built-in URL regular expressions that
// suggest a product page. They are matched case-insensitively against
// the full URL; the first match wins and names the verdict.
//
// The catalog covers the URL layouts of the large e-commerce platforms:
// path prefixes (/products/, /item/), single-letter conventions (/p/,
// Amazon's /dp/), SKU-bearing segments, and product-id query parameters.
var DefaultProductPatterns = []string{
	`/product[s]?/`,
	`/item[s]?/`,
	`/p/`,
	`/dp/`,

	// SKU-like path segment of 6+ alphanumerics
	`/[a-zA-Z0-9]{6,}(/|$)`,
	`-pd-`,
	`prod[_-]id`,

	// department/category/item layouts
	`/(men|women|kids|home)/[^/]+/[^/]+$`,

	`/catalog/`,
	`/shop/`,
	`/detail/`,

	// product-id query parameters
	`\?.*(product[_-]id|pid|itemid)=`,
}

// DefaultExcludePatterns veto a product classification regardless of
// other signals. They cover the utility pages every shop has that match
// product patterns by accident (a cart page under /shop/cart, a search
// results page with a pid parameter).
var DefaultExcludePatterns = []string{
	`/cart`,
	`/checkout`,
	`/login`,
	`/account`,
	`/search`,
	`/category`,
	`/wishlist`,
}
