package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
)

const (
	cityPrompt   = "Enter a city name: "
	emptyCityMsg = "City name cannot be empty. Please try again."
	apiKeyPrompt = "Enter your OpenWeatherMap API key: "
)

// ValidateCity trims raw, collapses inner whitespace and title-cases the
// result. Empty input is rejected.
func ValidateCity(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: city name cannot be empty", models.ErrValidation)
	}
	return cases.Title(language.Und).String(strings.Join(fields, " ")), nil
}

// Prompter reads answers line by line from an interactive console.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	logger zerolog.Logger

	// pending is a read abandoned by a canceled context. The next ask
	// consumes it instead of reading from in concurrently.
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

func NewPrompter(in io.Reader, out io.Writer, logger zerolog.Logger) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, logger: logger}
}

// ReadCity asks until a valid city is entered. Running out of input before
// that yields a validation error.
func (p *Prompter) ReadCity(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line, err := p.ask(ctx, cityPrompt)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		city, vErr := ValidateCity(line)
		if vErr == nil {
			p.logger.Debug().Str("city", city).Msg("city accepted")
			return city, nil
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", vErr
			}
			return "", fmt.Errorf("reading city: %w", err)
		}

		p.logger.Debug().Str("raw", line).Msg("empty city rejected")
		if _, wErr := fmt.Fprintln(p.out, emptyCityMsg); wErr != nil {
			return "", wErr
		}
	}
}

// ReadAPIKey asks once for the provider credential.
func (p *Prompter) ReadAPIKey(ctx context.Context) (string, error) {
	line, err := p.ask(ctx, apiKeyPrompt)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	key := strings.TrimSpace(line)
	if key == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return "", fmt.Errorf("%w: an API key is required", models.ErrCredential)
	}
	return key, nil
}

// ask prints prompt and returns the next line. A final line without a
// trailing newline is returned together with io.EOF. The console read
// blocks regardless of ctx, so it runs in its own goroutine and is left
// behind when ctx is done.
func (p *Prompter) ask(ctx context.Context, prompt string) (string, error) {
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", err
	}

	ch := p.pending
	if ch == nil {
		ch = make(chan readResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- readResult{line: strings.TrimRight(line, "\r\n"), err: err}
		}()
	}

	select {
	case res := <-ch:
		p.pending = nil
		return res.line, res.err
	case <-ctx.Done():
		p.pending = ch
		return "", ctx.Err()
	}
}
