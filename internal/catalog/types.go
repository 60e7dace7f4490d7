package catalog

import "strings"

// Fingerprint is one content hash recorded for a file.
type Fingerprint struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// File is one on-disk backing file of an item.
type File struct {
	ID           string        `json:"id"`
	Path         string        `json:"path"`
	Fingerprints []Fingerprint `json:"fingerprints"`
}

// Item is one media entry in the catalog.
type Item struct {
	ID    string `json:"id"`
	Files []File `json:"files"`
	Paths struct {
		Screenshot string `json:"screenshot"`
	} `json:"paths"`
}

// PrimaryFile returns the item's first backing file.
func (i Item) PrimaryFile() (File, bool) {
	if len(i.Files) == 0 {
		return File{}, false
	}
	return i.Files[0], true
}

// FingerprintValue returns the value of the first fingerprint of the
// given type on the primary file, or an empty string.
func (i Item) FingerprintValue(kind string) string {
	file, ok := i.PrimaryFile()
	if !ok {
		return ""
	}
	for _, fp := range file.Fingerprints {
		if strings.EqualFold(fp.Type, kind) {
			return fp.Value
		}
	}
	return ""
}

// Filter selects items on the catalog side.
type Filter struct {
	// MissingFingerprint selects items whose primary file lacks a
	// fingerprint of this type (e.g. "phash").
	MissingFingerprint string
	// ExcludeTagIDs drops items carrying any of these tags.
	ExcludeTagIDs []int64
	// IncludeTagIDs keeps only items carrying one of these tags.
	IncludeTagIDs []int64
}

// Page addresses one page of a filtered result. Size -1 requests the
// full result set.
type Page struct {
	Number int
	Size   int
}

// AllItems is the pagination used for unpaged queries.
var AllItems = Page{Number: 1, Size: -1}
