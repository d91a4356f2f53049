package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// Search asks the backend to answer question from the user's documents,
// citing up to topK retrieved passages.
func (c *Client) Search(ctx context.Context, question string, topK int) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("search: %w: question is empty", ErrValidation)
	}
	if topK < 1 {
		return nil, fmt.Errorf("search: %w", ErrInvalidTopK)
	}

	var resp searchResponse
	err := c.do(ctx, request{
		op:     metrics.OpSearch,
		method: http.MethodGet,
		path:   "/api/search",
		query: url.Values{
			"q":     {question},
			"top_k": {strconv.Itoa(topK)},
		},
		auth: true,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if resp.Answer == nil {
		return nil, fmt.Errorf("search: %w", malformed(metrics.OpSearch, "missing answer"))
	}
	sources, err := parseSources(metrics.OpSearch, resp.Sources)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return &models.Answer{
		Text:    *resp.Answer,
		Sources: sources,
	}, nil
}
