package api

import (
	"context"
	"io"
	"net/url"

	"github.com/dvcrn/console-client/internal/request"
)

const filesPrefix = "/file"

type FileRecord struct {
	ID               string `json:"id"`
	ObjectName       string `json:"object_name"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	ContentType      string `json:"content_type"`
	UploaderID       string `json:"uploader_id"`
	ProfileName      string `json:"profile_name"`
	CreatedAt        string `json:"created_at,omitempty"`
	ETag             string `json:"etag,omitempty"`
	URL              string `json:"url,omitempty"`
}

// FileInfo describes an object in storage.
type FileInfo struct {
	ObjectName   string `json:"object_name"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

// UploadByProfile uploads file under the named storage profile and
// registers it.
func (a *API) UploadByProfile(ctx context.Context, profile, filename string, file io.Reader) (*FileRecord, error) {
	body, contentType, err := multipartFile(map[string]string{"profile_name": profile}, filename, file)
	if err != nil {
		return nil, err
	}
	rec, err := request.Post[FileRecord](ctx, a.Client, filesPrefix+"/upload/by_profile", request.WithBody(body, contentType))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (a *API) ListFiles(ctx context.Context, profile, prefix string) ([]FileInfo, error) {
	return request.Get[[]FileInfo](ctx, a.Client, filesPrefix+"/",
		request.WithParams(url.Values{"profile_name": {profile}, "prefix": {prefix}}))
}

func (a *API) FileExists(ctx context.Context, profile, objectName string) (bool, error) {
	return request.Get[bool](ctx, a.Client, filesPrefix+"/exists",
		request.WithParams(url.Values{"profile_name": {profile}, "object_name": {objectName}}))
}

// PresignedGetURL returns a temporary download URL for an object.
func (a *API) PresignedGetURL(ctx context.Context, profile, objectName string) (string, error) {
	return request.Get[string](ctx, a.Client, filesPrefix+"/presigned-url/get",
		request.WithParams(url.Values{"profile_name": {profile}, "object_name": {objectName}}))
}

// DeleteFiles removes objects from storage.
func (a *API) DeleteFiles(ctx context.Context, profile string, objectNames []string) error {
	_, err := a.Client.Delete(ctx, filesPrefix+"/", request.WithJSON(map[string]any{
		"profile_name": profile,
		"object_names": objectNames,
	}))
	return err
}
