package enums

import "strings"

type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non-binary"
	GenderOther     Gender = "other"
)

func ParseGender(raw string) (Gender, bool) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(raw))); g {
	case GenderMale, GenderFemale, GenderNonBinary, GenderOther:
		return g, true
	default:
		return "", false
	}
}

func (g Gender) Valid() bool {
	_, ok := ParseGender(string(g))
	return ok
}
