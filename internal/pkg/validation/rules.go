package validation

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Validation rule patterns and limits
var (
	// Diacritics accepted in usernames and counted as upper/lower case letters
	// by the password policy.
	Diacritics = "æøåÆØÅ"

	// PhonePattern is an 8 digit national number
	PhonePattern = `^\d{8}$`

	PasswordMinLength    = 8
	PasswordMinDigits    = 2
	UsernameMaxLength    = 50
	NameMaxLength        = 100
	PositionFieldMaxLen  = 255
	PositionAmountMin    = 1
	PositionAmountMax    = 25
	NotesMaxLength       = 1000
	DescriptionMaxLength = 5000
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Phone *regexp.Regexp
}{
	Phone: regexp.MustCompile(PhonePattern),
}

// stripPolicy drops every element and keeps only the text content
var stripPolicy = bluemonday.StrictPolicy()

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterRules(v); err != nil {
		panic(err)
	}
	return v
}

// Validator returns the shared validator instance with the custom rules registered
func Validator() *validator.Validate {
	return validate
}

// RegisterRules installs the custom tags (username, phone8, strongpassword)
// on a validator, e.g. the one gin uses for binding.
func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool {
			return ValidUsername(fl.Field().String())
		},
		"phone8": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || ValidPhone(s)
		},
		"strongpassword": func(fl validator.FieldLevel) bool {
			return len(PasswordProblems(fl.Field().String())) == 0
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeUsername trims and lowercases a username
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsEmail reports whether s is a syntactically valid email address
func IsEmail(s string) bool {
	if s == "" {
		return false
	}
	return validate.Var(s, "email") == nil
}

// ValidUsername allows letters, digits, underscore, hyphen and the configured diacritics
func ValidUsername(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > UsernameMaxLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		case strings.ContainsRune(Diacritics, r):
		default:
			return false
		}
	}
	return true
}

// ValidPhone reports whether s is exactly eight digits
func ValidPhone(s string) bool {
	return CompiledPatterns.Phone.MatchString(s)
}

// ValidURL reports whether s is an absolute http(s) URL
func ValidURL(s string) bool {
	if validate.Var(s, "url") != nil {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isPolicyLetter(r rune) bool {
	return r <= unicode.MaxASCII || strings.ContainsRune(Diacritics, r)
}

// PasswordProblems lists every complexity rule the password breaks; empty means acceptable.
func PasswordProblems(password string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < PasswordMinLength {
		problems = append(problems, "must be at least 8 characters long")
	}

	var upper, lower, digits int
	for _, r := range password {
		switch {
		case unicode.IsUpper(r) && isPolicyLetter(r):
			upper++
		case unicode.IsLower(r) && isPolicyLetter(r):
			lower++
		case r >= '0' && r <= '9':
			digits++
		}
	}
	if upper == 0 {
		problems = append(problems, "must contain at least one uppercase letter")
	}
	if lower == 0 {
		problems = append(problems, "must contain at least one lowercase letter")
	}
	if digits < PasswordMinDigits {
		problems = append(problems, "must contain at least two digits")
	}
	return problems
}

// StripTags removes markup from user supplied text. The sanitizer escapes
// the surviving text; notes are stored as plain text, so entities are decoded.
func StripTags(s string) string {
	return html.UnescapeString(stripPolicy.Sanitize(s))
}

// ClampRunes truncates s to at most max runes
func ClampRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// SanitizeNotes strips markup and clamps to NotesMaxLength characters
func SanitizeNotes(s string) string {
	return ClampRunes(StripTags(s), NotesMaxLength)
}

// StringValidation is a small builder for free-text form fields
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new required string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length in characters
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length in characters
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	value := strings.TrimSpace(v.Value)
	if value == "" {
		return !v.Required
	}

	n := utf8.RuneCountInString(value)
	if v.MinLen > 0 && n < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return false
	}
	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		return false
	}
	return true
}

// NumericValidation checks an integer against an inclusive range
type NumericValidation struct {
	Value int
	Min   int
	Max   int
}

// NewNumericValidation creates a new numeric validation
func NewNumericValidation(value int) *NumericValidation {
	return &NumericValidation{Value: value}
}

// Between sets the inclusive bounds
func (v *NumericValidation) Between(min, max int) *NumericValidation {
	v.Min = min
	v.Max = max
	return v
}

// Validate performs validation
func (v *NumericValidation) Validate() bool {
	return v.Value >= v.Min && v.Value <= v.Max
}
