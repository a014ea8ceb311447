package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks an entity that exists only in memory: it has been
// created interactively but not yet committed. Temporary entities are never
// persisted; committing swaps the placeholder for a permanent UUID.
const TempIDPrefix = "tmp-"

// TempID returns a fresh placeholder identifier.
func TempID() string {
	return TempIDPrefix + uuid.NewString()
}

// PermanentID returns a fresh permanent identifier.
func PermanentID() string {
	return uuid.NewString()
}

// IsTempID reports whether id is a placeholder identifier.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// AddColumn appends a column. The id must be unique within the document.
func (d *Document) AddColumn(c Column) error {
	if c.ID == "" {
		return fmt.Errorf("column id is empty")
	}
	if d.FindColumn(c.ID) != nil {
		return fmt.Errorf("duplicate column id %q", c.ID)
	}
	if c.Groups == nil {
		c.Groups = []Group{}
	}
	d.Columns = append(d.Columns, c)
	return nil
}

// AddGroup appends a group to the named column, enforcing the per-column
// group limit.
func (d *Document) AddGroup(columnID string, g Group) error {
	col := d.FindColumn(columnID)
	if col == nil {
		return fmt.Errorf("column %q not found", columnID)
	}
	if g.ID == "" {
		return fmt.Errorf("group id is empty")
	}
	for _, existing := range col.Groups {
		if existing.ID == g.ID {
			return fmt.Errorf("duplicate group id %q in column %q", g.ID, columnID)
		}
	}
	if len(col.Groups) >= MaxGroupsPerColumn {
		return fmt.Errorf("column %q is full: at most %d groups per column", columnID, MaxGroupsPerColumn)
	}
	if g.Links == nil {
		g.Links = []Link{}
	}
	col.Groups = append(col.Groups, g)
	return nil
}

// AddLink appends a link to the named group, enforcing the per-group link
// limit.
func (d *Document) AddLink(groupID string, l Link) error {
	grp := d.FindGroup(groupID)
	if grp == nil {
		return fmt.Errorf("group %q not found", groupID)
	}
	if l.ID == "" {
		return fmt.Errorf("link id is empty")
	}
	for _, existing := range grp.Links {
		if existing.ID == l.ID {
			return fmt.Errorf("duplicate link id %q in group %q", l.ID, groupID)
		}
	}
	if len(grp.Links) >= MaxLinksPerGroup {
		return fmt.Errorf("group %q is full: at most %d links per group", groupID, MaxLinksPerGroup)
	}
	grp.Links = append(grp.Links, l)
	return nil
}

// FindColumn returns the column with the given id, or nil.
func (d *Document) FindColumn(id string) *Column {
	for i := range d.Columns {
		if d.Columns[i].ID == id {
			return &d.Columns[i]
		}
	}
	return nil
}

// FindGroup returns the group with the given id from any column, or nil.
func (d *Document) FindGroup(id string) *Group {
	for i := range d.Columns {
		for j := range d.Columns[i].Groups {
			if d.Columns[i].Groups[j].ID == id {
				return &d.Columns[i].Groups[j]
			}
		}
	}
	return nil
}

// FindLink returns the link with the given id from any group, or nil.
func (d *Document) FindLink(id string) *Link {
	for i := range d.Columns {
		for j := range d.Columns[i].Groups {
			for k := range d.Columns[i].Groups[j].Links {
				if d.Columns[i].Groups[j].Links[k].ID == id {
					return &d.Columns[i].Groups[j].Links[k]
				}
			}
		}
	}
	return nil
}

// Commit transitions a temporary entity to committed: its placeholder id is
// replaced with a permanent UUID. Returns the new id. Only this transition
// makes the entity eligible for persistence.
func (d *Document) Commit(tempID string) (string, error) {
	if !IsTempID(tempID) {
		return "", fmt.Errorf("entity %q is not temporary", tempID)
	}
	id := PermanentID()
	if col := d.FindColumn(tempID); col != nil {
		col.ID = id
		return id, nil
	}
	if grp := d.FindGroup(tempID); grp != nil {
		grp.ID = id
		return id, nil
	}
	if link := d.FindLink(tempID); link != nil {
		link.ID = id
		return id, nil
	}
	return "", fmt.Errorf("entity %q not found", tempID)
}

// Discard removes an entity (column, group or link) by id. Returns false
// when no entity matches.
func (d *Document) Discard(id string) bool {
	for i := range d.Columns {
		if d.Columns[i].ID == id {
			d.Columns = append(d.Columns[:i], d.Columns[i+1:]...)
			return true
		}
		for j := range d.Columns[i].Groups {
			g := &d.Columns[i].Groups[j]
			if g.ID == id {
				d.Columns[i].Groups = append(d.Columns[i].Groups[:j], d.Columns[i].Groups[j+1:]...)
				return true
			}
			for k := range g.Links {
				if g.Links[k].ID == id {
					g.Links = append(g.Links[:k], g.Links[k+1:]...)
					return true
				}
			}
		}
	}
	return false
}

// WithoutTemp returns a deep copy with every temporary entity removed.
// The persistence layer writes this view, never the live one.
func (d *Document) WithoutTemp() *Document {
	out := d.Clone()
	cols := out.Columns[:0]
	for _, col := range out.Columns {
		if IsTempID(col.ID) {
			continue
		}
		groups := col.Groups[:0]
		for _, g := range col.Groups {
			if IsTempID(g.ID) {
				continue
			}
			links := g.Links[:0]
			for _, l := range g.Links {
				if IsTempID(l.ID) {
					continue
				}
				links = append(links, l)
			}
			g.Links = links
			groups = append(groups, g)
		}
		col.Groups = groups
		cols = append(cols, col)
	}
	out.Columns = cols
	return out
}
