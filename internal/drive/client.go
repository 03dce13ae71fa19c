// Package drive implements the Google Drive storage collaborator. It owns
// the inner transient-error retry (short, fixed delays) so callers only ever
// see one outcome per upload call; longer outages are the job-level
// backoff's problem.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/drive-uploader/internal/circuitbreaker"
	"github.com/drive-uploader/internal/config"
	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/models"
	"github.com/drive-uploader/internal/retry"
	"golang.org/x/time/rate"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Client talks to the Google Drive v3 API for one upload at a time.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	uploadBaseURL string
	limiter       *rate.Limiter
	breaker       *circuitbreaker.CircuitBreaker
	schedule      retry.Schedule
}

// NewClient creates a new Drive client
func NewClient(cfg *config.DriveConfig) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:       cfg.BaseURL,
		uploadBaseURL: cfg.UploadBaseURL,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		breaker:       circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("drive")),
		schedule:      retry.TransientHTTPSchedule(),
	}
}

// transientStatusError marks provider responses worth an immediate retry.
type transientStatusError struct {
	statusCode int
	body       string
}

func (e *transientStatusError) Error() string {
	return fmt.Sprintf("drive returned status %d: %s", e.statusCode, e.body)
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRetryable(err error) bool {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return false
	}
	var statusErr *transientStatusError
	if errors.As(err, &statusErr) {
		return true
	}
	// Plain transport errors (connection reset, timeout) are retryable
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Upload renders the per-record destination folder beneath the tenant root
// and uploads the artifact into it. Expected business conditions come back
// as Skipped/Failed outcomes; an error return means something unexpected
// (typically context cancellation or a request that could not be built).
func (c *Client) Upload(ctx context.Context, integration *models.TenantIntegration, displayName, fileName string, data []byte) (models.UploadOutcome, error) {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"tenantId": integration.TenantID,
		"fileName": fileName,
	})

	folderID, err := c.ensureFolder(ctx, integration.AccessToken, integration.RootFolderID, displayName)
	if err != nil {
		if ctx.Err() != nil {
			return models.UploadOutcome{}, ctx.Err()
		}
		return models.UploadOutcome{
			Status:  models.UploadStatusFailed,
			Message: fmt.Sprintf("failed to prepare destination folder: %v", err),
		}, nil
	}

	existingID, err := c.findFile(ctx, integration.AccessToken, folderID, fileName)
	if err != nil {
		if ctx.Err() != nil {
			return models.UploadOutcome{}, ctx.Err()
		}
		return models.UploadOutcome{
			Status:  models.UploadStatusFailed,
			Message: fmt.Sprintf("failed to check for existing file: %v", err),
		}, nil
	}
	if existingID != "" {
		logger.Info("File already exists in destination folder, skipping upload")
		return models.UploadOutcome{
			Status:   models.UploadStatusSkipped,
			Message:  "file already exists in destination folder",
			FileID:   existingID,
			FolderID: folderID,
		}, nil
	}

	fileID, err := c.uploadFile(ctx, integration.AccessToken, folderID, fileName, data)
	if err != nil {
		if ctx.Err() != nil {
			return models.UploadOutcome{}, ctx.Err()
		}
		return models.UploadOutcome{
			Status:  models.UploadStatusFailed,
			Message: fmt.Sprintf("upload failed: %v", err),
		}, nil
	}

	logger.WithField("fileId", fileID).Info("File uploaded")
	return models.UploadOutcome{
		Status:   models.UploadStatusUploaded,
		Message:  "uploaded",
		FileID:   fileID,
		FolderID: folderID,
	}, nil
}

// doJSON issues one API request with rate limiting, circuit breaking and
// the transient retry schedule, decoding the JSON response into out.
func (c *Client) doJSON(ctx context.Context, buildReq func() (*http.Request, error), out interface{}) error {
	result := retry.WithSchedule(ctx, c.schedule, isRetryable, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		return c.breaker.Execute(ctx, func() error {
			req, err := buildReq()
			if err != nil {
				return err
			}
			req = req.WithContext(ctx)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return err
			}

			if isTransientStatus(resp.StatusCode) {
				return &transientStatusError{statusCode: resp.StatusCode, body: truncate(string(body), 200)}
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("drive returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
			}

			if out != nil {
				if err := json.Unmarshal(body, out); err != nil {
					return fmt.Errorf("failed to decode drive response: %w", err)
				}
			}
			return nil
		})
	})

	return result.Error()
}

type driveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type driveFileList struct {
	Files []driveFile `json:"files"`
}

// ensureFolder finds or creates the per-record subfolder beneath the tenant
// root, returning its id.
func (c *Client) ensureFolder(ctx context.Context, token, rootID, folderName string) (string, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		folderName, rootID, folderMimeType)

	var list driveFileList
	err := c.doJSON(ctx, func() (*http.Request, error) {
		u := fmt.Sprintf("%s/files?q=%s&fields=files(id,name)", c.baseURL, url.QueryEscape(query))
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}, &list)
	if err != nil {
		return "", err
	}

	if len(list.Files) > 0 {
		return list.Files[0].ID, nil
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"name":     folderName,
		"mimeType": folderMimeType,
		"parents":  []string{rootID},
	})
	if err != nil {
		return "", err
	}

	var created driveFile
	err = c.doJSON(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/files", bytes.NewReader(metadata))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &created)
	if err != nil {
		return "", err
	}

	return created.ID, nil
}

// findFile returns the id of a file with the given name in the folder, or
// empty when none exists.
func (c *Client) findFile(ctx context.Context, token, folderID, fileName string) (string, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", fileName, folderID)

	var list driveFileList
	err := c.doJSON(ctx, func() (*http.Request, error) {
		u := fmt.Sprintf("%s/files?q=%s&fields=files(id,name)", c.baseURL, url.QueryEscape(query))
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	}, &list)
	if err != nil {
		return "", err
	}

	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].ID, nil
}

// uploadFile performs a multipart upload of the PDF into the folder.
func (c *Client) uploadFile(ctx context.Context, token, folderID, fileName string, data []byte) (string, error) {
	metadata, err := json.Marshal(map[string]interface{}{
		"name":    fileName,
		"parents": []string{folderID},
	})
	if err != nil {
		return "", err
	}

	var uploaded driveFile
	err = c.doJSON(ctx, func() (*http.Request, error) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)

		metaHeader := textproto.MIMEHeader{}
		metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
		metaPart, err := writer.CreatePart(metaHeader)
		if err != nil {
			return nil, err
		}
		if _, err := metaPart.Write(metadata); err != nil {
			return nil, err
		}

		fileHeader := textproto.MIMEHeader{}
		fileHeader.Set("Content-Type", "application/pdf")
		filePart, err := writer.CreatePart(fileHeader)
		if err != nil {
			return nil, err
		}
		if _, err := filePart.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		u := fmt.Sprintf("%s/files?uploadType=multipart&fields=id,name", c.uploadBaseURL)
		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())
		return req, nil
	}, &uploaded)
	if err != nil {
		return "", err
	}

	return uploaded.ID, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
