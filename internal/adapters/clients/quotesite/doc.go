// Package quotesite adapts the quote website's HTML listing pages to domain types.
//
// The site renders each category as paginated HTML. This package builds page
// URLs, fetches them through the shared instrumented client and extracts quote
// records and the page count with goquery. Nothing outside this package knows
// about selectors, markup or query parameters.
package quotesite
