package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/NimaCare/internal/models"
)

func TestCounselorsFor(t *testing.T) {
	c := Default()

	career := c.CounselorsFor(models.CategoryCareer)
	require.NotEmpty(t, career)
	for _, co := range career {
		assert.True(t, co.Specializes(models.CategoryCareer), co.Name)
	}

	assert.Len(t, c.CounselorsFor(models.CategoryGeneral), len(defaultCounselors))
	assert.Empty(t, c.CounselorsFor(models.Category("astrology")))
}

func TestCounselorLookup(t *testing.T) {
	c := Default()
	co, ok := c.Counselor("therapist_001")
	require.True(t, ok)
	assert.Equal(t, "Dr. Sarah Johnson", co.Name)

	_, ok = c.Counselor("missing")
	assert.False(t, ok)
}

func TestHabitsForEveryCategory(t *testing.T) {
	c := Default()
	for _, cat := range models.Categories {
		habits := c.HabitsFor(cat)
		assert.Len(t, habits, 3, string(cat))
	}

	career := c.HabitsFor(models.CategoryCareer)
	assert.Equal(t, "End-of-day reflection", career[0].Name)
	assert.Equal(t, "Skills development time", career[1].Name)
	assert.Equal(t, "Work-life boundary ritual", career[2].Name)

	assert.Equal(t, c.HabitsFor(models.CategoryGeneral), c.HabitsFor(models.Category("unknown")))
}

func TestHabitsForReturnsCopy(t *testing.T) {
	c := Default()
	habits := c.HabitsFor(models.CategoryAnxiety)
	habits[0].Name = "changed"
	assert.NotEqual(t, "changed", c.HabitsFor(models.CategoryAnxiety)[0].Name)
}

func TestGroupsForSkipsFullGroups(t *testing.T) {
	c := Default()

	career := c.GroupsFor(models.CategoryCareer)
	require.Len(t, career, 1)
	assert.Equal(t, "car_group_001", career[0].ID)

	general := c.GroupsFor(models.CategoryGeneral)
	relationships := c.GroupsFor(models.CategoryRelationships)
	assert.Equal(t, general, relationships)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	yamlData := `
counselors:
  - id: c1
    name: Test Counselor
    specializations: [grief]
    years_experience: 3
    capacity: 5
    current_load: 1
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)

	grief := c.CounselorsFor(models.CategoryGrief)
	require.Len(t, grief, 1)
	assert.Equal(t, "Test Counselor", grief[0].Name)
	assert.Len(t, c.HabitsFor(models.CategoryCareer), 3, "habits should keep defaults")
}

func TestLoadFileRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	yamlData := `
counselors:
  - id: c1
    name: Test Counselor
    specializations: [astrology]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidCategory))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
