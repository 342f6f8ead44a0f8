package classifier

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dreat42/Ecom-Crawler/internal/crawler"
	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// CombineMode controls how URL and content signals combine into a verdict.
type CombineMode int

const (
	// CombineAny marks a page as a product when either the URL or the
	// content signals match. This is the default: high recall, since a
	// missed product page costs more than a false positive.
	CombineAny CombineMode = iota

	// CombineAll requires both a URL match and a content match.
	// Useful for sites whose URL layout is too generic.
	CombineAll

	// CombineScore applies a weighted score: URL match 0.4, a path of
	// 2-4 segments 0.2, content match 0.4, product at >= 0.6. A URL
	// match alone is not enough in this mode.
	CombineScore
)

// scoreThreshold is the product cutoff for CombineScore.
const scoreThreshold = 0.6

// Classifier is the product-page heuristic.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	productPatterns []*regexp.Regexp
	patternNames    []string
	excludePatterns []*regexp.Regexp
	contentSignals  []string
	mode            CombineMode
}

// Option configures a Classifier.
type Option func(*options)

type options struct {
	productPatterns []string
	excludePatterns []string
	contentSignals  []string
	mode            CombineMode
}

// WithProductPatterns replaces the built-in URL patterns.
func WithProductPatterns(patterns []string) Option {
	return func(o *options) {
		if len(patterns) > 0 {
			o.productPatterns = patterns
		}
	}
}

// WithExcludePatterns replaces the built-in exclusion patterns.
func WithExcludePatterns(patterns []string) Option {
	return func(o *options) {
		if len(patterns) > 0 {
			o.excludePatterns = patterns
		}
	}
}

// WithContentSignals adds literal strings searched for in page bodies
// as additional content indicators, on top of the structural checks.
func WithContentSignals(signals []string) Option {
	return func(o *options) {
		o.contentSignals = signals
	}
}

// WithCombineMode sets how URL and content signals combine.
func WithCombineMode(mode CombineMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// New creates a Classifier.
// Pattern compilation errors are reported up front so a typo in a
// site config fails the run before any page is fetched.
func New(opts ...Option) (*Classifier, error) {
	o := &options{
		productPatterns: DefaultProductPatterns,
		excludePatterns: DefaultExcludePatterns,
		mode:            CombineAny,
	}
	for _, opt := range opts {
		opt(o)
	}

	c := &Classifier{
		contentSignals: o.contentSignals,
		mode:           o.mode,
	}

	for _, p := range o.productPatterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("invalid product pattern %q: %w", p, err)
		}
		c.productPatterns = append(c.productPatterns, re)
		c.patternNames = append(c.patternNames, p)
	}
	for _, p := range o.excludePatterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		c.excludePatterns = append(c.excludePatterns, re)
	}

	return c, nil
}

// Classify implements crawler.Classifier.
//
// Exclusion patterns veto everything: a /cart URL is never a product no
// matter what its markup says. Content signals only run on HTML bodies;
// non-HTML pages are classified by URL alone and their links are not
// followed.
func (c *Classifier) Classify(page *model.Page) (crawler.Verdict, error) {
	verdict := crawler.Verdict{FollowLinks: page.IsHTML()}

	for _, re := range c.excludePatterns {
		if re.MatchString(page.URL) {
			return verdict, nil
		}
	}

	urlMatch := -1
	for i, re := range c.productPatterns {
		if re.MatchString(page.URL) {
			urlMatch = i
			break
		}
	}

	contentMatch := ""
	if page.IsHTML() && len(page.Raw) > 0 {
		match, err := c.analyzeContent(page.Raw)
		if err != nil {
			// The URL verdict still stands; report the content
			// failure so the session can count it.
			if c.mode == CombineAny && urlMatch >= 0 {
				verdict.IsProduct = true
				verdict.MatchedBy = "url:" + c.patternNames[urlMatch]
				verdict.Confidence = 0.4
			}
			return verdict, fmt.Errorf("analyze %s: %w", page.URL, err)
		}
		contentMatch = match
	}

	verdict.Confidence = c.score(page.URL, urlMatch >= 0, contentMatch != "")

	switch c.mode {
	case CombineAll:
		verdict.IsProduct = urlMatch >= 0 && contentMatch != ""
	case CombineScore:
		verdict.IsProduct = verdict.Confidence >= scoreThreshold
	default: // CombineAny
		verdict.IsProduct = urlMatch >= 0 || contentMatch != ""
	}

	if verdict.IsProduct {
		if urlMatch >= 0 {
			verdict.MatchedBy = "url:" + c.patternNames[urlMatch]
		} else {
			verdict.MatchedBy = contentMatch
		}
	}

	return verdict, nil
}

// score computes the weighted confidence used by CombineScore and
// reported on every verdict.
func (c *Classifier) score(pageURL string, urlMatched, contentMatched bool) float64 {
	var confidence float64
	if urlMatched {
		confidence += 0.4
	}
	if contentMatched {
		confidence += 0.4
	}

	// Product pages tend to sit 2-4 path segments deep
	// (/shop/widgets/blue-widget), unlike homepages and deep archives.
	if u, err := url.Parse(pageURL); err == nil {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) >= 2 && len(segments) <= 4 && segments[0] != "" {
			confidence += 0.2
		}
	}

	return confidence
}
