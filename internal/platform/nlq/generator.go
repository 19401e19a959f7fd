package nlq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// QueryGenerator is the external collaborator boundary: free text plus
// a schema description in, a SQL string out. The caller validates the
// result before executing it.
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, text, schema string) (string, error)
}

// OpenAIGenerator implements QueryGenerator against the OpenAI chat
// completions API.
type OpenAIGenerator struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

func NewOpenAIGenerator(apiKey, model, baseURL string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:  &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGenerator) GenerateQuery(ctx context.Context, text, schema string) (string, error) {
	prompt := fmt.Sprintf(`Here is the database schema:

%s

The user asked the following:
%s

Reply with the SQL query only, no surrounding text, like: "SELECT * FROM some_table"`,
		schema, text)

	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant that generates SQL queries."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat completions response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions returned no choices")
	}

	// Models wrap queries in markdown fences more often than not.
	query := strings.ReplaceAll(parsed.Choices[0].Message.Content, "`", "")
	query = strings.TrimPrefix(strings.TrimSpace(query), "sql")
	return strings.TrimSpace(query), nil
}
