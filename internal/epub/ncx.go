package epub

import (
	"encoding/xml"
	"strings"
)

// ncx models the EPUB 2 toc.ncx navigation document. Only the parts needed
// for chapter titles are decoded.
type ncx struct {
	XMLName   xml.Name   `xml:"ncx"`
	NavPoints []navPoint `xml:"navMap>navPoint"`
}

type navPoint struct {
	Label    string     `xml:"navLabel>text"`
	Content  navContent `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// parseNCXTitles flattens the NCX navMap into a map from content path
// (without fragment) to title. The first entry for a path wins.
func parseNCXTitles(data []byte) map[string]string {
	var doc ncx
	if err := xml.Unmarshal(stripBOM(data), &doc); err != nil {
		return nil
	}

	titles := make(map[string]string)
	var walk func(points []navPoint)
	walk = func(points []navPoint) {
		for _, np := range points {
			src := hrefWithoutFragment(np.Content.Src)
			label := strings.TrimSpace(np.Label)
			if src != "" && label != "" {
				if _, exists := titles[src]; !exists {
					titles[src] = label
				}
			}
			walk(np.Children)
		}
	}
	walk(doc.NavPoints)
	return titles
}

// hrefWithoutFragment strips the #fragment part of an href.
func hrefWithoutFragment(href string) string {
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		return href[:idx]
	}
	return href
}
