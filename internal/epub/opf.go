package epub

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// containerXML models META-INF/container.xml, used to locate the OPF.
type containerXML struct {
	XMLName   xml.Name   `xml:"container"`
	RootFiles []rootFile `xml:"rootfiles>rootfile"`
}

type rootFile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// opfPackage represents the root <package> element of an OPF file.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Titles       []string  `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators     []string  `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Languages    []string  `xml:"http://purl.org/dc/elements/1.1/ language"`
	Descriptions []string  `xml:"http://purl.org/dc/elements/1.1/ description"`
	Metas        []opfMeta `xml:"meta"`
}

// opfMeta represents a <meta> element in the OPF metadata.
// ePub 2 uses name/content attributes, which is all the cover lookup needs.
type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []manifestItem `xml:"item"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string         `xml:"toc,attr"`
	ItemRefs []spineItemRef `xml:"itemref"`
}

type spineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// parseContainer decodes container.xml and returns the OPF full-path.
// The rootfile with the OPF media type wins; otherwise the first non-empty
// full-path is used.
func parseContainer(data []byte) (string, error) {
	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", fmt.Errorf("parse container.xml: %w", err)
	}

	var fallback string
	for _, rf := range c.RootFiles {
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), "application/oebps-package+xml") {
			return fullPath, nil
		}
		if fallback == "" {
			fallback = fullPath
		}
	}

	if fallback == "" {
		return "", fmt.Errorf("container.xml has no usable rootfile: %w", ErrInvalidEPUB)
	}
	return fallback, nil
}

// parseOPF parses the OPF package document.
func parseOPF(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(stripBOM(data), &pkg); err != nil {
		return nil, fmt.Errorf("parse OPF: %w", err)
	}
	return &pkg, nil
}

// stripBOM removes a leading UTF-8 byte order mark; encoding/xml rejects it.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
