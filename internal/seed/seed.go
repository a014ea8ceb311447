// Package seed loads the optional starter-content YAML file used to build
// the very first document when storage is empty. Without a seed file the
// first document is just the bare defaults.
package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tabdeck/tabdeck/internal/schema"
)

// File is the root of the seed YAML:
//
//	columns:
//	  - name: Work
//	    groups:
//	      - title: Tools
//	        links:
//	          - title: GitHub
//	            url: https://github.com
type File struct {
	Columns []Column `yaml:"columns"`
}

type Column struct {
	Name    string  `yaml:"name"`
	Classes string  `yaml:"classes"`
	Groups  []Group `yaml:"groups"`
}

type Group struct {
	Title   string `yaml:"title"`
	Classes string `yaml:"classes"`
	Links   []Link `yaml:"links"`
}

type Link struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	// Icon is an external favicon-service URL for the link, optional.
	Icon string `yaml:"icon"`
}

// Loader reads and parses the seed file.
type Loader struct {
	filePath string
}

// NewLoader creates a seed loader.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the seed YAML file.
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return &f, nil
}

// Mapper converts seed config into a first-run document.
type Mapper struct {
	registry schema.ThemeRegistry
}

// NewMapper creates a seed mapper.
func NewMapper(reg schema.ThemeRegistry) *Mapper {
	return &Mapper{
		registry: reg,
	}
}

// Map builds a default document carrying the seed columns. Entities get
// permanent identifiers; the schema's addition limits apply.
func (m *Mapper) Map(f *File) (*schema.Document, error) {
	doc := schema.DefaultDocument(m.registry)

	for _, sc := range f.Columns {
		col := schema.Column{
			ID:            schema.PermanentID(),
			Name:          sc.Name,
			Groups:        []schema.Group{},
			CustomClasses: sc.Classes,
		}
		if err := doc.AddColumn(col); err != nil {
			return nil, fmt.Errorf("seed column %q: %w", sc.Name, err)
		}
		for _, sg := range sc.Groups {
			grp := schema.Group{
				ID:            schema.PermanentID(),
				Title:         sg.Title,
				Links:         []schema.Link{},
				CustomClasses: sg.Classes,
			}
			if err := doc.AddGroup(col.ID, grp); err != nil {
				return nil, fmt.Errorf("seed group %q: %w", sg.Title, err)
			}
			for _, sl := range sg.Links {
				if sl.URL == "" {
					continue
				}
				link := schema.Link{
					ID:    schema.PermanentID(),
					URL:   sl.URL,
					Title: sl.Title,
				}
				if sl.Icon != "" {
					icon := sl.Icon
					link.IconURLOverride = &icon
				}
				if err := doc.AddLink(grp.ID, link); err != nil {
					return nil, fmt.Errorf("seed link %q: %w", sl.Title, err)
				}
			}
		}
	}
	return doc, nil
}
