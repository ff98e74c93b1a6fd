package skill

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	httpRequestTimeout = 10 * time.Second
	httpBodyLimit      = 2000
)

// HTTPRequest returns the built-in HTTP fetch skill. The input is a URL;
// anything that is not a well-formed http/https URL, and any transport
// failure, is reported as "Error: ..." text. Responses are rendered as
// "HTTP {status}: {body}" with the body truncated to 2000 characters.
func HTTPRequest() Skill {
	client := &http.Client{Timeout: httpRequestTimeout}
	return Skill{
		ID:          "http_request",
		Description: "Fetch a URL over HTTP or HTTPS and return the response status and body",
		Handler: func(ctx context.Context, input string) (string, error) {
			target := strings.TrimSpace(input)
			parsed, err := url.Parse(target)
			if err != nil {
				return fmt.Sprintf("Error: invalid URL: %v", err), nil
			}
			if parsed.Scheme != "http" && parsed.Scheme != "https" {
				return fmt.Sprintf("Error: unsupported URL scheme %q, only http and https are allowed", parsed.Scheme), nil
			}

			// Hard cap on top of the client timeout so a slow body read
			// cannot stall the turn.
			ctx, cancel := context.WithTimeout(ctx, httpRequestTimeout)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return fmt.Sprintf("Error: %v", err), nil
			}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Sprintf("Error: request failed: %v", err), nil
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, httpBodyLimit+1))
			if err != nil {
				return fmt.Sprintf("Error: reading response: %v", err), nil
			}
			text := string(body)
			if len(text) > httpBodyLimit {
				// Back up to a rune boundary so truncation never splits a
				// multibyte character.
				cut := httpBodyLimit
				for cut > 0 && !utf8.RuneStart(text[cut]) {
					cut--
				}
				text = text[:cut] + "... (truncated)"
			}
			return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, text), nil
		},
	}
}
