// Package geo resolves free-text locations against a small embedded
// country, state and city dataset.
package geo

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/harshgondal/Job-Finder/internal/logger"
	"gopkg.in/yaml.v3"
)

//go:embed locations.yaml
var embedded []byte

type state struct {
	Name   string   `yaml:"name"`
	Code   string   `yaml:"code"`
	Cities []string `yaml:"cities"`
}

type country struct {
	Name    string   `yaml:"name"`
	Code    string   `yaml:"code"`
	Aliases []string `yaml:"aliases"`
	States  []state  `yaml:"states"`
}

type document struct {
	Countries []country `yaml:"countries"`
}

// Place is a resolved location. Fields below the resolved level are empty.
type Place struct {
	City        string
	State       string
	Country     string
	CountryCode string
}

// Dataset answers location lookups. It is read-only after Parse.
type Dataset struct {
	countries []country
}

var (
	defaultOnce sync.Once
	defaultSet  *Dataset
)

// Default returns the embedded dataset, parsed once.
func Default() *Dataset {
	defaultOnce.Do(func() {
		d, err := Parse(embedded)
		if err != nil {
			logger.Error("geo dataset unusable, location expansion disabled: %v", err)
			d = &Dataset{}
		}
		defaultSet = d
	})
	return defaultSet
}

// Parse reads a dataset in the locations.yaml format.
func Parse(raw []byte) (*Dataset, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse geo dataset: %w", err)
	}
	for _, c := range doc.Countries {
		if c.Name == "" || c.Code == "" {
			return nil, fmt.Errorf("parse geo dataset: country entry missing name or code")
		}
	}
	return &Dataset{countries: doc.Countries}, nil
}

// Resolve maps a location such as "Austin, TX" or "Remote - Germany" to
// the most specific place it names.
func (d *Dataset) Resolve(loc string) (Place, bool) {
	segments := splitSegments(loc)
	if len(segments) == 0 {
		return Place{}, false
	}

	if p, ok := d.resolveCity(segments); ok {
		return p, true
	}
	if p, ok := d.resolveState(segments); ok {
		return p, true
	}
	if c := d.findCountry(segments, normalize(loc)); c != nil {
		return Place{Country: c.Name, CountryCode: c.Code}, true
	}
	return Place{}, false
}

// CountryCode returns the ISO code of the country loc resolves to, or "".
func (d *Dataset) CountryCode(loc string) string {
	p, _ := d.Resolve(loc)
	return p.CountryCode
}

// Suggest proposes up to max alternate locations near loc, widest last:
// sibling cities and the enclosing state for a city, cities and the
// country for a state, leading cities for a country.
func (d *Dataset) Suggest(loc string, max int) []string {
	if max <= 0 {
		return nil
	}
	p, ok := d.Resolve(loc)
	if !ok {
		return nil
	}
	c := d.country(p.CountryCode)
	if c == nil {
		return nil
	}

	var out []string
	seen := map[string]bool{normalize(loc): true}
	add := func(s string) {
		k := normalize(s)
		if s == "" || seen[k] || len(out) >= max {
			return
		}
		seen[k] = true
		out = append(out, s)
	}

	switch {
	case p.City != "":
		seen[normalize(p.City)] = true
		st := c.state(p.State)
		add(p.State)
		if st != nil {
			for _, city := range st.Cities {
				add(city)
			}
		}
		add(c.Name)
	case p.State != "":
		seen[normalize(p.State)] = true
		if st := c.state(p.State); st != nil {
			for _, city := range st.Cities {
				add(city)
			}
		}
		add(c.Name)
	default:
		seen[normalize(c.Name)] = true
		for _, st := range c.States {
			if len(st.Cities) > 0 {
				add(st.Cities[0])
			}
		}
	}
	return out
}

func (d *Dataset) resolveCity(segments []string) (Place, bool) {
	var candidates []Place
	for _, seg := range segments {
		for _, c := range d.countries {
			for _, st := range c.States {
				for _, city := range st.Cities {
					if normalize(city) == seg {
						candidates = append(candidates, Place{City: city, State: st.Name, Country: c.Name, CountryCode: c.Code})
					}
				}
			}
		}
		if len(candidates) > 0 {
			break
		}
	}
	if len(candidates) == 0 {
		return Place{}, false
	}
	for _, p := range candidates {
		if d.qualifierMatches(p, segments) {
			return p, true
		}
	}
	return candidates[0], true
}

func (d *Dataset) resolveState(segments []string) (Place, bool) {
	var candidates []Place
	for _, seg := range segments {
		for _, c := range d.countries {
			for _, st := range c.States {
				if normalize(st.Name) == seg {
					candidates = append(candidates, Place{State: st.Name, Country: c.Name, CountryCode: c.Code})
				}
			}
		}
	}
	if len(candidates) == 0 {
		return Place{}, false
	}
	for _, p := range candidates {
		if d.qualifierMatches(p, segments) {
			return p, true
		}
	}
	return candidates[0], true
}

// qualifierMatches reports whether another segment names p's state or
// country, which disambiguates repeated city names.
func (d *Dataset) qualifierMatches(p Place, segments []string) bool {
	c := d.country(p.CountryCode)
	for _, seg := range segments {
		if p.City != "" && seg == normalize(p.City) {
			continue
		}
		if p.State != "" && c != nil {
			if st := c.state(p.State); st != nil && (seg == normalize(st.Name) || seg == normalize(st.Code)) {
				return true
			}
		}
		if c != nil && c.matches(seg) {
			return true
		}
	}
	return false
}

func (d *Dataset) findCountry(segments []string, whole string) *country {
	for _, seg := range segments {
		for i := range d.countries {
			if d.countries[i].matches(seg) {
				return &d.countries[i]
			}
		}
	}
	// "Remote - United States" and similar free text.
	padded := " " + whole + " "
	for i := range d.countries {
		c := &d.countries[i]
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			n := normalize(name)
			if len(n) > 3 && strings.Contains(padded, " "+n+" ") {
				return c
			}
		}
	}
	return nil
}

func (d *Dataset) country(code string) *country {
	for i := range d.countries {
		if strings.EqualFold(d.countries[i].Code, code) {
			return &d.countries[i]
		}
	}
	return nil
}

func (c *country) matches(seg string) bool {
	if seg == normalize(c.Name) || seg == normalize(c.Code) {
		return true
	}
	for _, a := range c.Aliases {
		if seg == normalize(a) {
			return true
		}
	}
	return false
}

func (c *country) state(name string) *state {
	for i := range c.States {
		if c.States[i].Name == name {
			return &c.States[i]
		}
	}
	return nil
}

func splitSegments(loc string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(loc, func(r rune) bool {
		return r == ',' || r == '/' || r == '(' || r == ')' || r == '|'
	}) {
		part = strings.Trim(normalize(part), "- ")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
