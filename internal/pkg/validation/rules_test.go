package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{"plain", "kari_nordmann", true},
		{"hyphen and digits", "ola-1990", true},
		{"norwegian letters", "bjørn_ærlig", true},
		{"space", "kari nordmann", false},
		{"at sign", "kari@nordmann", false},
		{"empty", "", false},
		{"other diacritic", "józef", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidUsername(tt.username))
		})
	}
}

func TestPasswordProblems(t *testing.T) {
	assert.Empty(t, PasswordProblems("Passord12"))
	assert.Empty(t, PasswordProblems("ÆbleKake12"), "Norwegian capitals count as upper case")

	problems := PasswordProblems("short1")
	assert.Contains(t, problems, "must be at least 8 characters long")
	assert.Contains(t, problems, "must contain at least one uppercase letter")
	assert.Contains(t, problems, "must contain at least two digits")

	assert.Equal(t, []string{"must contain at least one lowercase letter"}, PasswordProblems("PASSORD12"))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("12345678"))
	assert.False(t, ValidPhone("1234567"))
	assert.False(t, ValidPhone("+4712345678"))
	assert.False(t, ValidPhone("1234 5678"))
}

func TestValidURL(t *testing.T) {
	assert.True(t, ValidURL("https://example.com/jobs/1"))
	assert.True(t, ValidURL("http://localhost:8080"))
	assert.False(t, ValidURL("ftp://example.com"))
	assert.False(t, ValidURL("javascript:alert(1)"))
	assert.False(t, ValidURL("not a url"))
}

func TestSanitizeNotes(t *testing.T) {
	assert.Equal(t, "Great candidate", SanitizeNotes("<b>Great</b> candidate"))
	assert.Equal(t, "", SanitizeNotes("<script>alert(1)</script>"), "script bodies are dropped")
	assert.Equal(t, "R&D team, 5 < 6", SanitizeNotes("<p>R&amp;D team, 5 &lt; 6</p>"))

	long := make([]rune, NotesMaxLength+50)
	for i := range long {
		long[i] = 'ø'
	}
	assert.Len(t, []rune(SanitizeNotes(string(long))), NotesMaxLength)
}

func TestStringValidation(t *testing.T) {
	assert.False(t, NewStringValidation("   ").Validate(), "blank is missing when required")
	assert.True(t, NewStringValidation("").WithRequired(false).Validate())
	assert.False(t, NewStringValidation("abcdef").WithMaxLength(5).Validate())
	assert.True(t, NewStringValidation("æøå").WithMaxLength(3).Validate(), "length counts characters, not bytes")
}

func TestNumericValidation(t *testing.T) {
	assert.True(t, NewNumericValidation(1).Between(PositionAmountMin, PositionAmountMax).Validate())
	assert.True(t, NewNumericValidation(25).Between(PositionAmountMin, PositionAmountMax).Validate())
	assert.False(t, NewNumericValidation(0).Between(PositionAmountMin, PositionAmountMax).Validate())
	assert.False(t, NewNumericValidation(26).Between(PositionAmountMin, PositionAmountMax).Validate())
}

func TestRegisteredTags(t *testing.T) {
	v := Validator()
	assert.NoError(t, v.Var("kari_n", "username"))
	assert.Error(t, v.Var("kari n", "username"))
	assert.NoError(t, v.Var("", "phone8"), "phone is optional")
	assert.Error(t, v.Var("123", "phone8"))
	assert.NoError(t, v.Var("Passord12", "strongpassword"))
	assert.Error(t, v.Var("passord", "strongpassword"))
}
