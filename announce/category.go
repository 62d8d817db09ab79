// Package announce keeps the morning and curfew announcement lists and
// broadcasts them at their trigger times.
package announce

import "fmt"

// Category is one of the two announcement groups.
type Category int

const (
	Morning Category = iota
	Curfew

	categoryCount = 2
)

// Categories lists every category in display order.
var Categories = [categoryCount]Category{Morning, Curfew}

func (c Category) String() string {
	switch c {
	case Morning:
		return "morning"
	case Curfew:
		return "curfew"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Title is the capitalised name used in list headers.
func (c Category) Title() string {
	switch c {
	case Morning:
		return "Morning"
	case Curfew:
		return "Curfew"
	default:
		return c.String()
	}
}

// FileName is the name of the file the category is persisted to.
func (c Category) FileName() string {
	return c.String() + "Announcements.json"
}

func (c Category) valid() bool {
	return c == Morning || c == Curfew
}

// ParseCategory matches name exactly against "morning" and "curfew".
func ParseCategory(name string) (Category, error) {
	switch name {
	case "morning":
		return Morning, nil
	case "curfew":
		return Curfew, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, name)
	}
}
