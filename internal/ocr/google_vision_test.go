package ocr

import (
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/status"
)

func TestTextFromResponse(t *testing.T) {
	text, err := textFromResponse(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{FullTextAnnotation: &visionpb.TextAnnotation{Text: "AMOUNT DUE $84.20\n"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "AMOUNT DUE $84.20", text)

	text, err = textFromResponse(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			{TextAnnotations: []*visionpb.EntityAnnotation{{Description: "hello"}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	text, err = textFromResponse(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{}},
	})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTextFromResponse_Errors(t *testing.T) {
	_, err := textFromResponse(&visionpb.BatchAnnotateImagesResponse{})
	assert.ErrorIs(t, err, ErrOCRFailed)

	_, err = textFromResponse(&visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{Error: &status.Status{Code: 3, Message: "bad image"}}},
	})
	require.ErrorIs(t, err, ErrOCRFailed)
	assert.Contains(t, err.Error(), "bad image")
}
