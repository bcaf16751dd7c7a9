package rules

const (
	MinAge = 18
	MaxAge = 100
)

func ValidAge(age int) bool {
	return age >= MinAge && age <= MaxAge
}
