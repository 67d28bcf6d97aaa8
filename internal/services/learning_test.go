package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"
)

type stubLLMClient struct {
	chatResponse string
	jsonResponse string
	lastMessages []ChatMessage
	err          error
}

func (s *stubLLMClient) ChatComplete(ctx context.Context, provider, model string, messages []ChatMessage) (string, error) {
	s.lastMessages = messages
	return s.chatResponse, s.err
}

func (s *stubLLMClient) ChatCompleteJSON(ctx context.Context, provider, model string, messages []ChatMessage, out any) error {
	s.lastMessages = messages
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.jsonResponse), out)
}

func (s *stubLLMClient) AvailableProviders() []ProviderInfo {
	return nil
}

func (s *stubLLMClient) ResolveProvider(name string) (ProviderConfig, error) {
	return ProviderConfig{Name: name}, nil
}

func TestGenerateQuestionFromText(t *testing.T) {
	stub := &stubLLMClient{chatResponse: "  Why does this work?  "}
	svc := NewLearningService(stub, testLogger(t))

	got, err := svc.GenerateQuestion(context.Background(), "text", "Some study material.", "deepseek")
	if err != nil {
		t.Fatalf("GenerateQuestion: %v", err)
	}
	if got.Question != "Why does this work?" {
		t.Fatalf("unexpected question: %q", got.Question)
	}
	if got.OriginalContent != "Some study material." {
		t.Fatalf("unexpected original content: %q", got.OriginalContent)
	}
	if len(stub.lastMessages) != 2 || stub.lastMessages[0].Role != "system" {
		t.Fatalf("unexpected messages sent to model: %+v", stub.lastMessages)
	}
}

func TestGenerateQuestionRejectsEmptyContent(t *testing.T) {
	svc := NewLearningService(&stubLLMClient{}, testLogger(t))
	if _, err := svc.GenerateQuestion(context.Background(), "text", "   ", "deepseek"); err == nil {
		t.Fatal("expected error for empty content, got nil")
	}
}

func TestGenerateQuestionTruncatesLongContent(t *testing.T) {
	stub := &stubLLMClient{chatResponse: "q"}
	svc := NewLearningService(stub, testLogger(t))

	long := strings.Repeat("a", maxSourceChars+500)
	got, err := svc.GenerateQuestion(context.Background(), "text", long, "deepseek")
	if err != nil {
		t.Fatalf("GenerateQuestion: %v", err)
	}
	if len(got.OriginalContent) != maxSourceChars {
		t.Fatalf("content length = %d, want %d", len(got.OriginalContent), maxSourceChars)
	}
	if len(stub.lastMessages[1].Content) != maxSourceChars {
		t.Fatalf("model input length = %d, want %d", len(stub.lastMessages[1].Content), maxSourceChars)
	}
}

func TestGenerateQuestionTruncatesOnRuneBoundary(t *testing.T) {
	stub := &stubLLMClient{chatResponse: "q"}
	svc := NewLearningService(stub, testLogger(t))

	long := strings.Repeat("界", maxSourceChars+10)
	got, err := svc.GenerateQuestion(context.Background(), "text", long, "deepseek")
	if err != nil {
		t.Fatalf("GenerateQuestion: %v", err)
	}
	if !utf8.ValidString(got.OriginalContent) {
		t.Fatal("truncated content is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(got.OriginalContent); n != maxSourceChars {
		t.Fatalf("rune count = %d, want %d", n, maxSourceChars)
	}
}

func TestEvaluateAnswer(t *testing.T) {
	stub := &stubLLMClient{jsonResponse: `{"feedback":"Good explanation","score":85,"transcription":"model echo"}`}
	svc := NewLearningService(stub, testLogger(t))

	eval, err := svc.EvaluateAnswer(context.Background(), "original text", "my answer", "groq")
	if err != nil {
		t.Fatalf("EvaluateAnswer: %v", err)
	}
	if eval.Feedback != "Good explanation" {
		t.Fatalf("unexpected feedback: %q", eval.Feedback)
	}
	if eval.Score != 85 {
		t.Fatalf("unexpected score: %v", eval.Score)
	}
	// The submitted answer wins over whatever the model echoed.
	if eval.Transcription != "my answer" {
		t.Fatalf("unexpected transcription: %q", eval.Transcription)
	}
}

func TestEvaluateAnswerRejectsEmptyAnswer(t *testing.T) {
	svc := NewLearningService(&stubLLMClient{}, testLogger(t))
	if _, err := svc.EvaluateAnswer(context.Background(), "original", "  ", "groq"); err == nil {
		t.Fatal("expected error for empty answer, got nil")
	}
}
