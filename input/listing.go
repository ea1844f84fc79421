package input

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/PuerkitoBio/goquery"
)

// Listing returns the links to record files found on an HTML index page,
// like a web server directory listing. Links are resolved against the page
// URL and sorted.
func Listing(ctx context.Context, link string) ([]string, error) {
	base, err := url.Parse(link)
	if err != nil {
		return nil, err
	}
	rc, err := fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return nil, err
	}
	var (
		links []string
		seen  = make(map[string]bool)
	)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		u, err := base.Parse(href)
		if err != nil || !hasRecordExt(u.Path) {
			return
		}
		u.Fragment = ""
		if v := u.String(); !seen[v] {
			seen[v] = true
			links = append(links, v)
		}
	})
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMembers, link)
	}
	sort.Strings(links)
	return links, nil
}
