// Package level implements the per-level countdown and pass/fail state machine.
package level

import "fmt"

// Level defines one round of the run: the reference pose the player copies.
type Level struct {
	ID        int
	Name      string
	Reference string // Reference image shown for this level
}

// DefaultLevels are the four levels of a standard run.
var DefaultLevels = []Level{
	{ID: 1, Name: "Stand Tall", Reference: "images/1.jpg"},
	{ID: 2, Name: "Arms Wide", Reference: "images/2.jpg"},
	{ID: 3, Name: "Side Lean", Reference: "images/3.jpg"},
	{ID: 4, Name: "Hero Pose", Reference: "images/4.jpg"},
}

// ReferenceFor returns the conventional reference image path for level id.
func ReferenceFor(id int) string {
	return fmt.Sprintf("images/%d.jpg", id)
}

// Lookup returns the level at the given 1-based index.
// Returns nil if index is out of range.
func Lookup(levels []Level, index int) *Level {
	if index < 1 || index > len(levels) {
		return nil
	}
	return &levels[index-1]
}
