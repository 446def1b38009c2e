package google

import (
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"
)

// Scopes requested for the service account.
var Scopes = []string{drive.DriveScope, slides.PresentationsScope}

// Clients bundles the Drive and Slides adapters sharing one credential.
type Clients struct {
	Drive  *Drive
	Slides *Slides
}

// NewClients authenticates with the service-account key at credentialsFile.
func NewClients(ctx context.Context, credentialsFile string, extra ...option.ClientOption) (*Clients, error) {
	opts := append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(Scopes...),
	}, extra...)

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	slidesSvc, err := slides.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create slides service: %w", err)
	}
	return &Clients{
		Drive:  NewDrive(driveSvc),
		Slides: NewSlides(slidesSvc),
	}, nil
}
