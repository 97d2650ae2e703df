package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const jsonMimeType = "application/json"

// DriveDocuments implements Documents on Google Drive v3. Requests are
// authorized by the supplied HTTP client; the API key, when set, is sent as
// the key query parameter.
type DriveDocuments struct {
	svc  *drive.Service
	opts []googleapi.CallOption
}

var _ Documents = (*DriveDocuments)(nil)

// NewDriveDocuments creates a Drive client. endpoint overrides the API base
// URL (for example "http://127.0.0.1:8080/drive/v3/") and may be empty.
func NewDriveDocuments(ctx context.Context, client *http.Client, apiKey, endpoint string) (*DriveDocuments, error) {
	clientOpts := []option.ClientOption{option.WithHTTPClient(client)}
	if endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}

	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive client: %w", err)
	}

	d := &DriveDocuments{svc: svc}
	if apiKey != "" {
		d.opts = append(d.opts, googleapi.QueryParameter("key", apiKey))
	}
	return d, nil
}

// FindByName lists non-trashed files called name.
func (d *DriveDocuments) FindByName(ctx context.Context, name string) ([]Document, error) {
	q := fmt.Sprintf("name='%s' and trashed=false", escapeQuery(name))
	list, err := d.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		Spaces("drive").
		Context(ctx).
		Do(d.opts...)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	docs := make([]Document, 0, len(list.Files))
	for _, f := range list.Files {
		docs = append(docs, Document{ID: f.Id, Name: f.Name})
	}
	return docs, nil
}

// Create uploads a new JSON file.
func (d *DriveDocuments) Create(ctx context.Context, name string, body []byte) (Document, error) {
	f, err := d.svc.Files.Create(&drive.File{Name: name, MimeType: jsonMimeType}).
		Media(bytes.NewReader(body), googleapi.ContentType(jsonMimeType)).
		Fields("id, name").
		Context(ctx).
		Do(d.opts...)
	if err != nil {
		return Document{}, fmt.Errorf("creating file: %w", err)
	}
	return Document{ID: f.Id, Name: f.Name}, nil
}

// Read downloads the file content (alt=media).
func (d *DriveDocuments) Read(ctx context.Context, id string) ([]byte, error) {
	resp, err := d.svc.Files.Get(id).Context(ctx).Download(d.opts...)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading file content: %w", err)
	}
	return data, nil
}

// Update replaces metadata and content with one multipart upload.
func (d *DriveDocuments) Update(ctx context.Context, id, name string, body []byte) error {
	_, err := d.svc.Files.Update(id, &drive.File{Name: name, MimeType: jsonMimeType}).
		Media(bytes.NewReader(body), googleapi.ContentType(jsonMimeType)).
		Fields("id").
		Context(ctx).
		Do(d.opts...)
	if err != nil {
		return fmt.Errorf("updating file: %w", err)
	}
	return nil
}

// escapeQuery escapes a string literal for the Drive query language.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
