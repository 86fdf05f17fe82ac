package upload

import (
	"context"
	"fmt"
	"io"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiService implements FileService on the Gemini SDK's file API. The
// target search store is identified by name in the manifest; attaching
// uploaded files to it happens on the service side.
type GeminiService struct {
	client *genai.Client
}

// NewGeminiService builds a service authenticated with apiKey.
func NewGeminiService(ctx context.Context, apiKey string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiService{client: client}, nil
}

// Upload sends one plaintext document and returns its service file ID.
func (s *GeminiService) Upload(ctx context.Context, r io.Reader, displayName string) (string, error) {
	file, err := s.client.UploadFile(ctx, "", r, &genai.UploadFileOptions{
		DisplayName: displayName,
		MIMEType:    "text/plain",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", displayName, err)
	}
	return file.Name, nil
}

// Close releases the underlying client.
func (s *GeminiService) Close() error {
	return s.client.Close()
}
