package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxErrorBody bounds how much of a failed response is read for the message.
const maxErrorBody = 64 << 10

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPError is returned by DoGet for non-2xx responses.
type HTTPError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
}

// DoGet performs a GET request with the given headers and returns the full
// body of a 2xx response.
func DoGet(ctx context.Context, client HTTPDoer, url string, headers map[string]string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Message:    SummarizeBody(resp.Header.Get("Content-Type"), b),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

// SummarizeBody condenses an error response into one line. HTML pages are
// reduced to their title and first heading.
func SummarizeBody(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		if s := summarizeHTML(trimmed); s != "" {
			return s
		}
	}
	return truncate(strings.Join(strings.Fields(string(trimmed)), " "), 200)
}

func summarizeHTML(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var parts []string
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" && (len(parts) == 0 || h1 != parts[0]) {
		parts = append(parts, h1)
	}
	if len(parts) == 0 {
		parts = append(parts, doc.Text())
	}
	return truncate(strings.Join(strings.Fields(strings.Join(parts, " - ")), " "), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
