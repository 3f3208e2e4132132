// Package catalog holds the static counselor roster, habit library and
// support-group roster consumed by the workflow stages.
package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// Catalog is an immutable set of lookup tables. Lookups return copies.
type Catalog struct {
	counselors []models.Counselor
	habits     map[models.Category][]models.HabitRecord
	groups     map[models.Category][]models.SupportGroup
}

// File is the YAML layout accepted by LoadFile. Omitted sections keep the defaults.
type File struct {
	Counselors    []models.Counselor                         `yaml:"counselors"`
	Habits        map[models.Category][]models.HabitRecord   `yaml:"habits"`
	SupportGroups map[models.Category][]models.SupportGroup `yaml:"support_groups"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		counselors: defaultCounselors,
		habits:     defaultHabits,
		groups:     defaultGroups,
	}
}

// LoadFile reads a YAML catalog and overlays it on the defaults.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c := Default()
	if len(f.Counselors) > 0 {
		c.counselors = f.Counselors
	}
	if len(f.Habits) > 0 {
		c.habits = f.Habits
	}
	if len(f.SupportGroups) > 0 {
		c.groups = f.SupportGroups
	}
	if len(c.habits[models.CategoryGeneral]) == 0 {
		return nil, fmt.Errorf("invalid catalog: habits must include a %q list", models.CategoryGeneral)
	}

	slog.Info("Catalog loaded from file", "path", path,
		"counselors", len(c.counselors), "habitCategories", len(c.habits), "groupCategories", len(c.groups))
	return c, nil
}

// Validate checks ids and category values in a catalog file.
func (f *File) Validate() error {
	seen := map[string]bool{}
	for i, co := range f.Counselors {
		if co.ID == "" || co.Name == "" {
			return fmt.Errorf("counselors[%d]: id and name must not be empty", i)
		}
		if seen[co.ID] {
			return fmt.Errorf("counselors[%d]: duplicate id %q", i, co.ID)
		}
		seen[co.ID] = true
		for _, s := range co.Specializations {
			if !models.IsValidCategory(s) {
				return fmt.Errorf("counselors[%d]: %w %q", i, models.ErrInvalidCategory, s)
			}
		}
	}
	for cat, habits := range f.Habits {
		if !models.IsValidCategory(cat) {
			return fmt.Errorf("habits: %w %q", models.ErrInvalidCategory, cat)
		}
		for i, h := range habits {
			if h.ID == "" || h.Name == "" {
				return fmt.Errorf("habits[%s][%d]: id and name must not be empty", cat, i)
			}
		}
	}
	for cat, groups := range f.SupportGroups {
		if !models.IsValidCategory(cat) {
			return fmt.Errorf("support_groups: %w %q", models.ErrInvalidCategory, cat)
		}
		for i, g := range groups {
			if g.ID == "" {
				return fmt.Errorf("support_groups[%s][%d]: id must not be empty", cat, i)
			}
			if g.Size.Capacity() == 0 {
				return fmt.Errorf("support_groups[%s][%d]: unknown size %q", cat, i, g.Size)
			}
		}
	}
	return nil
}

// CounselorsFor returns counselors whose specializations contain category.
// CategoryGeneral returns the full roster.
func (c *Catalog) CounselorsFor(category models.Category) []models.Counselor {
	out := []models.Counselor{}
	for _, co := range c.counselors {
		if category == models.CategoryGeneral || co.Specializes(category) {
			out = append(out, co)
		}
	}
	return out
}

// Counselor looks up a counselor by id.
func (c *Catalog) Counselor(id string) (models.Counselor, bool) {
	for _, co := range c.counselors {
		if co.ID == id {
			return co, true
		}
	}
	return models.Counselor{}, false
}

// HabitsFor returns the habit list for category, falling back to the general list.
func (c *Catalog) HabitsFor(category models.Category) []models.HabitRecord {
	habits, ok := c.habits[category]
	if !ok || len(habits) == 0 {
		habits = c.habits[models.CategoryGeneral]
	}
	return append([]models.HabitRecord(nil), habits...)
}

// GroupsFor returns the groups for category that still have an opening.
// Categories without groups fall back to the general groups.
func (c *Catalog) GroupsFor(category models.Category) []models.SupportGroup {
	groups, ok := c.groups[category]
	if !ok {
		groups = c.groups[models.CategoryGeneral]
	}
	out := []models.SupportGroup{}
	for _, g := range groups {
		if g.HasOpening() {
			out = append(out, g)
		}
	}
	return out
}
