// Package region restricts a materials snapshot to the records applicable
// to a target jurisdiction.
package region

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultCode is the jurisdiction used when a request names none.
const DefaultCode = "AU"

// Jurisdiction describes the locality tags that make a material applicable.
type Jurisdiction struct {
	Code       string   `yaml:"code" json:"code"`
	Name       string   `yaml:"name" json:"name"`
	RegionName string   `yaml:"region_name" json:"region_name"`
	States     []string `yaml:"states" json:"states"`

	// GlobalSources lists data-source labels that are applicable regardless
	// of locality tags. Empty unless configured.
	GlobalSources []string `yaml:"global_sources" json:"global_sources,omitempty"`
}

// hasState reports whether tag names one of the jurisdiction's states.
func (j Jurisdiction) hasState(tag string) bool {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	for _, s := range j.States {
		if strings.ToUpper(s) == tag {
			return true
		}
	}
	return false
}

// Registry holds the known jurisdictions keyed by upper-cased code.
type Registry struct {
	defaultCode string
	byCode      map[string]Jurisdiction
}

// DefaultRegistry returns the built-in jurisdiction table.
func DefaultRegistry() *Registry {
	r := &Registry{defaultCode: DefaultCode, byCode: make(map[string]Jurisdiction)}
	r.Add(Jurisdiction{
		Code:       "AU",
		Name:       "Australia",
		RegionName: "Australia",
		States:     []string{"NSW", "VIC", "QLD", "SA", "WA", "TAS", "NT", "ACT"},
	})
	r.Add(Jurisdiction{
		Code:       "NZ",
		Name:       "New Zealand",
		RegionName: "New Zealand",
	})
	return r
}

// Add registers or replaces a jurisdiction.
func (r *Registry) Add(j Jurisdiction) {
	code := strings.ToUpper(strings.TrimSpace(j.Code))
	j.Code = code
	if j.RegionName == "" {
		j.RegionName = j.Name
	}
	r.byCode[code] = j
}

// SetDefault changes the jurisdiction used for empty lookups.
func (r *Registry) SetDefault(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := r.byCode[code]; !ok {
		return eris.Errorf("region: unknown default jurisdiction %q", code)
	}
	r.defaultCode = code
	return nil
}

// Lookup finds a jurisdiction by code or by name, case-insensitively.
func (r *Registry) Lookup(name string) (Jurisdiction, bool) {
	key := strings.TrimSpace(name)
	if j, ok := r.byCode[strings.ToUpper(key)]; ok {
		return j, true
	}
	for _, j := range r.byCode {
		if strings.EqualFold(j.Name, key) {
			return j, true
		}
	}
	return Jurisdiction{}, false
}

// Resolve returns the jurisdiction for name. An empty name yields the
// default; an unknown name yields an ad-hoc jurisdiction matched on region
// text only.
func (r *Registry) Resolve(name string) Jurisdiction {
	if strings.TrimSpace(name) == "" {
		return r.byCode[r.defaultCode]
	}
	if j, ok := r.Lookup(name); ok {
		return j
	}
	name = strings.TrimSpace(name)
	return Jurisdiction{Code: strings.ToUpper(name), Name: name, RegionName: name}
}

// Registered reports whether code names a jurisdiction in the registry.
// Ad-hoc jurisdictions returned by Resolve are not registered.
func (r *Registry) Registered(code string) bool {
	_, ok := r.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// All returns the registered jurisdictions sorted by code.
func (r *Registry) All() []Jurisdiction {
	out := make([]Jurisdiction, 0, len(r.byCode))
	for _, j := range r.byCode {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Code < out[b].Code })
	return out
}

// LoadRegistry reads jurisdictions from a YAML file and merges them over
// the built-in table.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: read registry %s", path)
	}

	var wrapper struct {
		Default       string         `yaml:"default"`
		Jurisdictions []Jurisdiction `yaml:"jurisdictions"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "region: parse registry")
	}

	r := DefaultRegistry()
	for _, j := range wrapper.Jurisdictions {
		if strings.TrimSpace(j.Code) == "" {
			return nil, eris.New("region: jurisdiction without code")
		}
		r.Add(j)
	}
	if wrapper.Default != "" {
		if err := r.SetDefault(wrapper.Default); err != nil {
			return nil, err
		}
	}
	return r, nil
}
