// Package identity derives stable user identifiers from a person's name.
package identity

import (
	"regexp"
	"strings"
)

// DefaultUserID is used when a name yields no usable characters.
const DefaultUserID = "default_user"

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// GenerateUserID lowercases first+last, strips everything but Unicode
// letters, digits and underscores, and
// falls back to DefaultUserID when nothing is left.
//
//	GenerateUserID("Rithik", "Porandla") == "rithikporandla"
func GenerateUserID(firstName, lastName string) string {
	raw := strings.ToLower(firstName + lastName)
	id := nonWord.ReplaceAllString(raw, "")
	if id == "" {
		return DefaultUserID
	}
	return id
}
