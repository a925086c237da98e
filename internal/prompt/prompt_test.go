package prompt_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/magnetctl/internal/collect"
	"github.com/slok/magnetctl/internal/prompt"
)

func TestNewTerminalConfirmer(t *testing.T) {
	_, err := prompt.NewTerminalConfirmer(prompt.TerminalConfirmerConfig{Out: &bytes.Buffer{}})
	assert.Error(t, err)

	_, err = prompt.NewTerminalConfirmer(prompt.TerminalConfirmerConfig{In: strings.NewReader("")})
	assert.Error(t, err)
}

func TestTerminalConfirmerConfirm(t *testing.T) {
	tests := map[string]struct {
		input     string
		expAnswer bool
		expErr    bool
	}{
		"Yes should confirm.": {
			input:     "y\n",
			expAnswer: true,
		},

		"A full yes with spaces and caps should confirm.": {
			input:     "  YES \n",
			expAnswer: true,
		},

		"An empty answer should reject.": {
			input:     "\n",
			expAnswer: false,
		},

		"Anything else should reject.": {
			input:     "nope\n",
			expAnswer: false,
		},

		"A last line without newline should be used.": {
			input:     "y",
			expAnswer: true,
		},

		"A closed input should fail.": {
			input:  "",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			out := &bytes.Buffer{}
			c, err := prompt.NewTerminalConfirmer(prompt.TerminalConfirmerConfig{
				In:  strings.NewReader(test.input),
				Out: out,
			})
			require.NoError(err)

			gotAnswer, err := c.Confirm(context.Background(), collect.Prompt{
				Title:       "Exit task",
				Message:     "The task will be cancelled.",
				ConfirmText: "Exit",
				Severity:    collect.SeverityDanger,
			})

			if test.expErr {
				assert.True(errors.Is(err, io.EOF))
			} else if assert.NoError(err) {
				assert.Equal(test.expAnswer, gotAnswer)
			}
			assert.Contains(out.String(), "[DANGER] Exit task")
			assert.Contains(out.String(), "Exit? [y/N]: ")
		})
	}
}

func TestTerminalConfirmerMultiplePrompts(t *testing.T) {
	require := require.New(t)

	c, err := prompt.NewTerminalConfirmer(prompt.TerminalConfirmerConfig{
		In:  strings.NewReader("y\nn\n"),
		Out: io.Discard,
	})
	require.NoError(err)

	a1, err := c.Confirm(context.Background(), collect.Prompt{Title: "first"})
	require.NoError(err)
	a2, err := c.Confirm(context.Background(), collect.Prompt{Title: "second"})
	require.NoError(err)
	_, err = c.Confirm(context.Background(), collect.Prompt{Title: "third"})

	require.True(a1)
	require.False(a2)
	require.True(errors.Is(err, io.EOF))
}

func TestTerminalConfirmerContextCancel(t *testing.T) {
	require := require.New(t)

	r, w := io.Pipe()
	defer w.Close()
	c, err := prompt.NewTerminalConfirmer(prompt.TerminalConfirmerConfig{In: r, Out: io.Discard})
	require.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Confirm(ctx, collect.Prompt{Title: "first"})
	require.True(errors.Is(err, context.Canceled))

	// The answer typed after an abandoned prompt goes to the next one.
	go func() { _, _ = w.Write([]byte("yes\n")) }()
	ok, err := c.Confirm(context.Background(), collect.Prompt{Title: "second"})
	require.NoError(err)
	require.True(ok)
}
