// Package uploads signs direct-to-Cloudinary uploads for mentor verification documents.
package uploads

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var ErrNotConfigured = errors.New("upload storage is not configured")

type Signature struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

type Signer struct {
	cld    *cloudinary.Cloudinary
	folder string
	now    func() time.Time
}

// NewSigner returns a Signer for the given CLOUDINARY_URL. An empty URL yields a
// Signer whose Sign always fails with ErrNotConfigured.
func NewSigner(cloudinaryURL, folder string) (*Signer, error) {
	s := &Signer{folder: folder, now: time.Now}
	if cloudinaryURL == "" {
		return s, nil
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	s.cld = cld
	return s, nil
}

// Sign produces upload parameters scoped to a per-user folder.
func (s *Signer) Sign(userID string) (*Signature, error) {
	if s.cld == nil {
		return nil, ErrNotConfigured
	}

	folder := s.folder + "/" + userID
	params, err := api.StructToParams(uploader.UploadParams{Folder: folder})
	if err != nil {
		return nil, fmt.Errorf("prepare signature params: %w", err)
	}

	timestamp := s.now().Unix()
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(params, s.cld.Config.Cloud.APISecret)
	if err != nil {
		return nil, fmt.Errorf("sign upload params: %w", err)
	}

	return &Signature{
		Signature: signature,
		Timestamp: timestamp,
		APIKey:    s.cld.Config.Cloud.APIKey,
		CloudName: s.cld.Config.Cloud.CloudName,
		Folder:    folder,
	}, nil
}
