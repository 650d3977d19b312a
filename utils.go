package fieldwise

import (
	"fmt"
	"net/url"
	"strings"
)

// TableLocator identifies a Bitable table extracted from a share URL.
// For wiki-hosted tables AppToken is the wiki node token and still needs
// resolution into the underlying app token.
type TableLocator struct {
	AppToken string `json:"appToken"`
	TableID  string `json:"tableId"`
	ViewID   string `json:"viewId,omitempty"`
	IsWiki   bool   `json:"isWiki,omitempty"`
}

// ParseTableURL extracts the app token, table id and view id from a
// Bitable or wiki share URL.
func ParseTableURL(rawURL string) (TableLocator, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return TableLocator{}, fmt.Errorf("invalid table url")
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return TableLocator{}, fmt.Errorf("invalid table url")
	}

	segments := strings.Split(path, "/")
	token := segments[len(segments)-1]
	if token == "" {
		return TableLocator{}, fmt.Errorf("invalid table url")
	}

	return TableLocator{
		AppToken: token,
		TableID:  u.Query().Get("table"),
		ViewID:   u.Query().Get("view"),
		IsWiki:   strings.Contains(u.Path, "/wiki/"),
	}, nil
}
