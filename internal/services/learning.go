package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/mindloop/learncoach-backend/internal/logger"
)

const (
	// maxSourceChars caps how much extracted text is sent to the model.
	maxSourceChars = 15000
	// maxFetchBytes caps how much of a remote page is read.
	maxFetchBytes = 10 << 20
)

const generateQuestionPrompt = "You are a 'Feynman coach'. Your goal is to help the user learn by teaching. " +
	"The user will provide a passage of text. " +
	"1. Never summarize the text directly. " +
	"2. Identify the core concept or logic. " +
	"3. Produce one challenging Socratic question that asks the user to explain the core concept in plain language " +
	"(for example: 'Explain this core idea as if you were teaching it to a 5 year old'). " +
	"Output only the question text, with no conversational filler."

const evaluateAnswerPrompt = "You are a 'Feynman coach'. Compare the user's explanation against the original text. " +
	"1. Identify misunderstandings or missing key points. " +
	"2. Give constructive feedback. " +
	"3. Assign a mastery score from 0 to 100. " +
	"Return the result as JSON with keys: 'feedback' (string), 'score' (number), 'transcription' (string, the user's answer)."

// GeneratedQuestion is the output of GenerateQuestion. OriginalContent is
// echoed back so the client can submit it with the answer for evaluation.
type GeneratedQuestion struct {
	Question        string `json:"question"`
	OriginalContent string `json:"original_content"`
}

// AnswerEvaluation is the model's judgement of a user explanation.
type AnswerEvaluation struct {
	Feedback      string  `json:"feedback"`
	Score         float64 `json:"score"`
	Transcription string  `json:"transcription"`
}

type LearningService interface {
	GenerateQuestion(ctx context.Context, contentType, content, provider string) (*GeneratedQuestion, error)
	EvaluateAnswer(ctx context.Context, originalContent, answer, provider string) (*AnswerEvaluation, error)
	Providers() []ProviderInfo
}

type learningService struct {
	llm        LLMClient
	httpClient *http.Client
	log        *logger.Logger
}

func NewLearningService(llm LLMClient, log *logger.Logger) LearningService {
	return &learningService{
		llm:        llm,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With("service", "LearningService"),
	}
}

func (s *learningService) GenerateQuestion(ctx context.Context, contentType, content, provider string) (*GeneratedQuestion, error) {
	text := content
	if contentType == "url" {
		extracted, err := s.extractTextFromURL(ctx, content)
		if err != nil {
			return nil, err
		}
		text = extracted
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("Could not extract text from content")
	}
	text = capRunes(text, maxSourceChars)

	question, err := s.llm.ChatComplete(ctx, provider, "", []ChatMessage{
		{Role: "system", Content: generateQuestionPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		s.log.Error("Failed to generate question", "provider", provider, "error", err.Error())
		return nil, err
	}

	return &GeneratedQuestion{
		Question:        strings.TrimSpace(question),
		OriginalContent: text,
	}, nil
}

func (s *learningService) EvaluateAnswer(ctx context.Context, originalContent, answer, provider string) (*AnswerEvaluation, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("No answer provided")
	}

	var eval AnswerEvaluation
	err := s.llm.ChatCompleteJSON(ctx, provider, "", []ChatMessage{
		{Role: "system", Content: evaluateAnswerPrompt},
		{Role: "user", Content: fmt.Sprintf("Original Text: %s\n\nUser Answer: %s", originalContent, answer)},
	}, &eval)
	if err != nil {
		s.log.Error("Failed to evaluate answer", "provider", provider, "error", err.Error())
		return nil, err
	}

	// The model is asked to echo the answer but the submitted text is
	// authoritative.
	eval.Transcription = answer
	return &eval, nil
}

func (s *learningService) Providers() []ProviderInfo {
	return s.llm.AvailableProviders()
}

// capRunes trims to at most max runes, never splitting a multi-byte
// character.
func capRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// extractTextFromURL fetches a page and pulls its readable article text.
func (s *learningService) extractTextFromURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("Invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("Failed to fetch URL: status %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxFetchBytes)
	article, err := readability.FromReader(body, parsed)
	if err != nil {
		return "", fmt.Errorf("Failed to extract article: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("Could not extract text from content")
	}
	return text, nil
}
