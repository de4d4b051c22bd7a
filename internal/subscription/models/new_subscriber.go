package models

import (
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/rivo/uniseg"

	dErrors "bulletin/pkg/domain-errors"
)

// maxNameGraphemes caps display names at 256 user-perceived characters. A
// grapheme is what the Unicode standard calls a user-perceived character:
// `å` may be composed of two code points but counts once.
const maxNameGraphemes = 256

// forbiddenNameRunes are rejected anywhere in a display name.
var forbiddenNameRunes = map[rune]bool{
	'/': true, '(': true, ')': true, '"': true,
	'<': true, '>': true, '\\': true, '{': true, '}': true,
}

// NewSubscriber is validated subscriber input. Construct via
// ParseNewSubscriber at trust boundaries; the fields are unexported so a
// value that exists is a value that passed validation.
type NewSubscriber struct {
	email string
	name  string
}

// Email returns the validated email address.
func (n NewSubscriber) Email() string { return n.email }

// Name returns the validated display name.
func (n NewSubscriber) Name() string { return n.name }

// ParseNewSubscriber validates raw subscribe input. It is a pure function:
// failures are reported as domain errors naming the offending field and rule,
// and nothing is persisted or mutated.
func ParseNewSubscriber(email, name string) (NewSubscriber, error) {
	if err := validateEmail(email); err != nil {
		return NewSubscriber{}, err
	}
	if err := validateName(name); err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{email: email, name: name}, nil
}

func validateEmail(email string) error {
	if !govalidator.IsEmail(email) {
		return dErrors.New(dErrors.CodeInvalidInput, "email: not a valid email address")
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name: must not be empty")
	}
	if uniseg.GraphemeClusterCount(name) > maxNameGraphemes {
		return dErrors.New(dErrors.CodeInvalidInput, "name: length exceeds 256 characters")
	}
	for _, r := range name {
		if forbiddenNameRunes[r] {
			return dErrors.New(dErrors.CodeInvalidInput, "name: contains forbidden character "+string(r))
		}
	}
	return nil
}
