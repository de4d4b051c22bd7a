package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulletin/internal/subscription/models"
	dErrors "bulletin/pkg/domain-errors"
)

func TestParseNewSubscriberAcceptsValidInput(t *testing.T) {
	sub, err := models.ParseNewSubscriber("ursula_le_guin@gmail.com", "Ursula le Guin")
	require.NoError(t, err)
	assert.Equal(t, "ursula_le_guin@gmail.com", sub.Email())
	assert.Equal(t, "Ursula le Guin", sub.Name())
}

func TestParseNewSubscriberRejectsmalformedEmails(t *testing.T) {
	for _, email := range []string{
		"",
		"not-an-email",
		"missing-at-sign.com",
		"@no-local-part.com",
		"spaces in@example.com",
	} {
		_, err := models.ParseNewSubscriber(email, "Ursula le Guin")
		require.Error(t, err, "email %q should be rejected", email)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
		assert.Contains(t, dErrors.MessageOf(err), "email")
	}
}

func TestParseNewSubscriberRejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := models.ParseNewSubscriber("ursula@example.com", name)
		require.Error(t, err, "name %q should be rejected", name)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
		assert.Contains(t, dErrors.MessageOf(err), "name")
	}
}

func TestParseNewSubscriberNameGraphemeBoundary(t *testing.T) {
	// "å" written as 'a' plus a combining ring is two runes but one
	// user-perceived character, so 256 of them must pass.
	grapheme := "å"

	_, err := models.ParseNewSubscriber("ursula@example.com", strings.Repeat(grapheme, 256))
	assert.NoError(t, err, "256 graphemes is within policy")

	_, err = models.ParseNewSubscriber("ursula@example.com", strings.Repeat(grapheme, 257))
	require.Error(t, err, "257 graphemes exceeds policy")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestParseNewSubscriberRejectsForbiddenCharacters(t *testing.T) {
	for _, forbidden := range []string{"/", "(", ")", `"`, "<", ">", `\`, "{", "}"} {
		_, err := models.ParseNewSubscriber("ursula@example.com", "Ursula"+forbidden+"le Guin")
		require.Error(t, err, "name containing %q should be rejected", forbidden)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	}
}

func TestParseNewSubscriberIsPure(t *testing.T) {
	// Same input, same outcome; no hidden state.
	for i := 0; i < 3; i++ {
		_, err := models.ParseNewSubscriber("not-an-email", "Ursula")
		require.Error(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := models.ParseNewSubscriber("ursula@example.com", "Ursula")
		require.NoError(t, err)
	}
}
