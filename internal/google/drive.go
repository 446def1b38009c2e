package google

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const PresentationMimeType = "application/vnd.google-apps.presentation"

// Drive wraps the file operations the builder needs.
type Drive struct {
	svc *drive.Service
}

func NewDrive(svc *drive.Service) *Drive {
	return &Drive{svc: svc}
}

// UploadPresentation uploads r and lets Drive convert it to a Slides document.
func (d *Drive) UploadPresentation(ctx context.Context, name string, r io.Reader, sourceMime string) (string, error) {
	file, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: PresentationMimeType,
	}).Media(r, googleapi.ContentType(sourceMime)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}
	return file.Id, nil
}

func (d *Drive) Copy(ctx context.Context, fileID, name string) (string, error) {
	file, err := d.svc.Files.Copy(fileID, &drive.File{Name: name}).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive copy %s: %w", fileID, err)
	}
	return file.Id, nil
}

// ShareAnyoneReader grants public read access.
func (d *Drive) ShareAnyoneReader(ctx context.Context, fileID string) error {
	_, err := d.svc.Permissions.Create(fileID, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("drive share %s: %w", fileID, err)
	}
	return nil
}

func (d *Drive) Delete(ctx context.Context, fileID string) error {
	if err := d.svc.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive delete %s: %w", fileID, err)
	}
	return nil
}
