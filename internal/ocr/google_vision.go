package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"docintake/internal/config"
	"docintake/internal/port"
)

// MaxImageBytes is the Cloud Vision inline image limit.
const MaxImageBytes = 20 * 1024 * 1024

// GoogleVisionRecognizer implements port.TextRecognizer using Google Cloud Vision.
type GoogleVisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionRecognizer creates a recognizer. Credentials come from
// cfg.CredentialsFile, then GOOGLE_CREDENTIALS (inline JSON), then
// GOOGLE_APPLICATION_CREDENTIALS, then application default credentials.
func NewGoogleVisionRecognizer(ctx context.Context, cfg *config.OCRConfig) (*GoogleVisionRecognizer, error) {
	const op = "NewGoogleVisionRecognizer"

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case os.Getenv("GOOGLE_CREDENTIALS") != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_CREDENTIALS"))))
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		opts = append(opts, option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, err.Error())
		}
		return nil, WrapOCRError(op, err, "failed to create client")
	}
	return &GoogleVisionRecognizer{client: client}, nil
}

// NewGoogleVisionRecognizerWithClient creates a recognizer with an explicit client.
func NewGoogleVisionRecognizerWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionRecognizer {
	return &GoogleVisionRecognizer{client: client}
}

func (g *GoogleVisionRecognizer) Recognize(ctx context.Context, image port.ImageInput) (string, error) {
	const op = "GoogleVisionRecognizer.Recognize"
	if len(image.Bytes) == 0 {
		return "", WrapOCRError(op, ErrEmptyImage, "")
	}
	if len(image.Bytes) > MaxImageBytes {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("image size %d bytes exceeds limit", len(image.Bytes)))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: image.Bytes},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			},
		},
	}
	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	return textFromResponse(resp)
}

// textFromResponse pulls the full text annotation out of a batch response.
func textFromResponse(resp *visionpb.BatchAnnotateImagesResponse) (string, error) {
	const op = "GoogleVisionRecognizer.Recognize"
	if resp == nil || len(resp.Responses) == 0 {
		return "", WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", r.Error.Message))
	}
	if r.FullTextAnnotation != nil {
		return strings.TrimSpace(r.FullTextAnnotation.Text), nil
	}
	if len(r.TextAnnotations) > 0 {
		return strings.TrimSpace(r.TextAnnotations[0].Description), nil
	}
	return "", nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionRecognizer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

var _ port.TextRecognizer = (*GoogleVisionRecognizer)(nil)
