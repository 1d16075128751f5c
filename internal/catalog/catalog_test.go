package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var sources = []string{"golfnow", "foreup", "ezlinks", "teesnap", "teeon"}

func TestDefaultCatalogIsValid(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, c.Courses)

	problems := c.Validate(sources)
	require.NoError(t, problems.Err())

	course, ok := c.Find("saddle-rock")
	require.True(t, ok)
	require.Equal(t, "ezlinks", course.Source)
	require.Equal(t, "Saddle Rock", course.Filter)
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
courses:
  - id: only
    name: Only Course
    source: teeon
    course_code: ONLY
    driver: browser
    price_min: 20
    price_max: 90
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []Course{{
		ID:         "only",
		Name:       "Only Course",
		Source:     "teeon",
		CourseCode: "ONLY",
		Driver:     "browser",
		PriceMin:   20,
		PriceMax:   90,
	}}, c.Courses)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSelect(t *testing.T) {
	c := Catalog{Courses: []Course{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	all, err := c.Select(nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	some, err := c.Select([]string{"c", "a"})
	require.NoError(t, err)
	require.Equal(t, []Course{{ID: "a"}, {ID: "c"}}, some)

	_, err = c.Select([]string{"nope"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Catalog{Courses: []Course{
		{ID: "a", Name: "Lakeview Golf Course", Source: "golfnow"},
		{ID: "a", Name: "Lakeview Golf Course ", Source: "golfnow"},
		{ID: "", Name: "Hillcrest", Source: "carrier-pigeon", Driver: "telegraph"},
		{ID: "d", Name: "Pinecrest", Source: "teeon", PriceMin: 90, PriceMax: 10},
		{ID: "e", Name: "Ocean", Source: "ezlinks", Filter: "Ocean"},
		{ID: "f", Name: "Ocean", Source: "ezlinks", Filter: "Ocean"},
	}}

	problems := c.Validate(sources)
	require.Len(t, problems.Errors, 5)
	require.Len(t, problems.Warnings, 1)
	require.Contains(t, problems.Warnings[0], `"a"`)
}
