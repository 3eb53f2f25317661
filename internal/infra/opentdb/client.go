package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trivia-quiz-service/internal/domain"
)

// DefaultBaseURL is the public Open Trivia Database endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Client fetches question batches from an Open Trivia DB compatible API.
// Prompts and answers arrive HTML-entity encoded and are unescaped here so
// the rest of the system only ever sees plain text.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	ResponseCode int         `json:"response_code"`
	Results      []apiResult `json:"results"`
}

type apiResult struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

func (c *Client) FetchBatch(ctx context.Context, category int, difficulty string, amount int) ([]domain.Question, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	query.Set("category", strconv.Itoa(category))
	query.Set("difficulty", difficulty)
	endpoint := c.baseURL + "/api.php?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFetch, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned status %d", domain.ErrUpstreamFetch, resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamFetch, err)
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("%w: provider response code %d", domain.ErrUpstreamFetch, payload.ResponseCode)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("%w: no questions returned", domain.ErrUpstreamFetch)
	}

	questions := make([]domain.Question, len(payload.Results))
	for i, result := range payload.Results {
		incorrect := make([]string, len(result.IncorrectAnswers))
		for j, answer := range result.IncorrectAnswers {
			incorrect[j] = html.UnescapeString(answer)
		}
		questions[i] = domain.Question{
			Index:            i,
			Prompt:           html.UnescapeString(result.Question),
			CorrectAnswer:    html.UnescapeString(result.CorrectAnswer),
			IncorrectAnswers: incorrect,
		}
	}
	return questions, nil
}
