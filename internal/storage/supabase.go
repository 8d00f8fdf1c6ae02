package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// SupabaseStorage uploads line-item photos to a Supabase Storage bucket.
type SupabaseStorage struct {
	projectRef string
	apiKey     string
	bucketName string
	httpClient *http.Client
}

func NewSupabaseStorage(projectRef, apiKey, bucketName string) *SupabaseStorage {
	return &SupabaseStorage{
		projectRef: projectRef,
		apiKey:     apiKey,
		bucketName: bucketName,
		httpClient: &http.Client{},
	}
}

// UploadFile stores the file under path and returns the storage key.
func (s *SupabaseStorage) UploadFile(ctx context.Context, path string, file io.Reader, contentType string) (string, error) {
	url := fmt.Sprintf("https://%s.supabase.co/storage/v1/object/%s/%s",
		s.projectRef, s.bucketName, path)

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(fileBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	return path, nil
}

// DeleteFile removes a previously uploaded file.
func (s *SupabaseStorage) DeleteFile(ctx context.Context, path string) error {
	url := fmt.Sprintf("https://%s.supabase.co/storage/v1/object/%s/%s",
		s.projectRef, s.bucketName, path)

	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// PublicURL returns the public URL for an uploaded file.
func (s *SupabaseStorage) PublicURL(path string) string {
	return fmt.Sprintf("https://%s.supabase.co/storage/v1/object/public/%s/%s",
		s.projectRef, s.bucketName, path)
}
