// Package catalog holds the static mapping from a course to the addressing a
// source adapter needs to reach its booking page. It is read-only for the
// lifetime of a run.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed courses.yaml
var defaultCatalog []byte

type Course struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Source string `yaml:"source"`

	BaseURL       string `yaml:"base_url"`
	BookingURL    string `yaml:"booking_url"`
	FacilityID    string `yaml:"facility_id"`
	ScheduleID    string `yaml:"schedule_id"`
	BookingClass  string `yaml:"booking_class"`
	Subdomain     string `yaml:"subdomain"`
	CourseCode    string `yaml:"course_code"`
	CourseGroupID string `yaml:"course_group_id"`

	// Filter selects this course on pages shared by several courses.
	Filter string `yaml:"filter"`
	// Driver overrides the adapter's default session kind.
	Driver string `yaml:"driver"`
	// PriceMin and PriceMax override the adapter's fallback price bound.
	PriceMin int `yaml:"price_min"`
	PriceMax int `yaml:"price_max"`
}

type Catalog struct {
	Courses []Course `yaml:"courses"`
}

func Parse(data []byte) (Catalog, error) {
	var c Catalog
	err := yaml.Unmarshal(data, &c)
	if err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

// Default is the catalog compiled into the binary.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the compiled-in catalog when path is
// empty.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func (c Catalog) Find(id string) (Course, bool) {
	idx := slices.IndexFunc(c.Courses, func(course Course) bool {
		return course.ID == id
	})
	if idx < 0 {
		return Course{}, false
	}
	return c.Courses[idx], true
}

// Select returns the courses named by ids in catalog order, or every course
// when ids is empty.
func (c Catalog) Select(ids []string) ([]Course, error) {
	if len(ids) == 0 {
		return c.Courses, nil
	}
	for _, id := range ids {
		if _, ok := c.Find(id); !ok {
			return nil, fmt.Errorf("unknown course %q", id)
		}
	}
	var out []Course
	for _, course := range c.Courses {
		if slices.Contains(ids, course.ID) {
			out = append(out, course)
		}
	}
	return out, nil
}
