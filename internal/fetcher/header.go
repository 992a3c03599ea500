package fetcher

import "strings"

// Header maps normalized column names of a tabular file to their position.
type Header map[string]int

// NewHeader indexes a header row. Names are lower-cased and trimmed, and
// spaces and dashes become underscores, so "Material Name" and
// "material_name" address the same column. The first occurrence of a
// duplicated name wins.
func NewHeader(cols []string) Header {
	h := make(Header, len(cols))
	for i, c := range cols {
		key := HeaderKey(c)
		if key == "" {
			continue
		}
		if _, ok := h[key]; !ok {
			h[key] = i
		}
	}
	return h
}

// HeaderKey normalizes a column name.
func HeaderKey(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(name)
}

// Has reports whether any of names is present.
func (h Header) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := h[HeaderKey(n)]; ok {
			return true
		}
	}
	return false
}

// Get returns the trimmed value of the first column among names that exists
// in the header. Short rows yield "".
func (h Header) Get(row []string, names ...string) string {
	for _, n := range names {
		i, ok := h[HeaderKey(n)]
		if !ok {
			continue
		}
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return ""
}
