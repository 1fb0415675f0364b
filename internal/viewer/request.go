// Package viewer resolves which document an address names, loads and
// renders it, and holds the per-viewer display slot.
package viewer

import "net/url"

// DefaultPage is shown when an address names no page.
const DefaultPage = "index.md"

// DocumentRequest identifies the document an address asks for.
type DocumentRequest struct {
	Page string `json:"page"`
}

// ResolveRequest reads the page query parameter. A nil address or an absent
// or empty parameter yields DefaultPage.
func ResolveRequest(addr *url.URL) DocumentRequest {
	if addr == nil {
		return DocumentRequest{Page: DefaultPage}
	}
	page := addr.Query().Get("page")
	if page == "" {
		page = DefaultPage
	}
	return DocumentRequest{Page: page}
}

// ResolveAddress is ResolveRequest for an unparsed address. An address
// that fails to parse yields DefaultPage.
func ResolveAddress(raw string) DocumentRequest {
	u, err := url.Parse(raw)
	if err != nil {
		return DocumentRequest{Page: DefaultPage}
	}
	return ResolveRequest(u)
}
