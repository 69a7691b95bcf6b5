package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cqroot/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAsk answers prompts from a fixed list, then quits. The defaults it
// was offered are recorded.
type scriptedAsk struct {
	answers  []string
	defaults []string
}

func (s *scriptedAsk) ask(current string) (string, error) {
	s.defaults = append(s.defaults, current)
	if len(s.answers) == 0 {
		return "", prompt.ErrUserQuit
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func TestBrowse(t *testing.T) {
	script := &scriptedAsk{answers: []string{
		"http://feeds/show",
		"  ",
		"http://feeds/missing",
		"http://feeds/show",
	}}
	v := testApp(t).NewViewer()

	var out bytes.Buffer
	require.NoError(t, browse(context.Background(), v, script.ask, &out, LocaleFor("")))

	text := out.String()
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("Episodes (3)")))
	assert.Contains(t, text, noURLMessage)
	assert.Contains(t, text, FetchErrorMessage)
	assert.Contains(t, text, "1. Ep1\n   Published: 1/1/2024\n")

	assert.Equal(t, []string{
		"",
		"http://feeds/show",
		"http://feeds/show",
		"http://feeds/missing",
		"http://feeds/show",
	}, script.defaults, "the last loaded url is offered again")
	assert.NotNil(t, v.Show)
	assert.Empty(t, v.Error)
}

func TestBrowsePromptError(t *testing.T) {
	broken := errors.New("no tty")
	err := browse(context.Background(), testApp(t).NewViewer(), func(string) (string, error) {
		return "", broken
	}, &bytes.Buffer{}, LocaleFor(""))
	assert.ErrorIs(t, err, broken)
}
