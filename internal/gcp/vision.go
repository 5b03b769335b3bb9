package gcp

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// TextAnnotator is the subset of *vision.ImageAnnotatorClient used for text
// detection. It lets tests substitute the client.
type TextAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// VisionExtractor reads text from images with the Cloud Vision API.
type VisionExtractor struct {
	annotator TextAnnotator
	closer    func() error
}

// NewVisionExtractor creates an ImageAnnotatorClient. A non-empty endpoint overrides the default.
func NewVisionExtractor(ctx context.Context, endpoint string, opts ...option.ClientOption) (*VisionExtractor, error) {
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision.NewImageAnnotatorClient: %w", err)
	}
	return &VisionExtractor{annotator: client, closer: client.Close}, nil
}

// NewVisionExtractorFromAnnotator wraps an existing annotator.
func NewVisionExtractorFromAnnotator(annotator TextAnnotator) *VisionExtractor {
	return &VisionExtractor{annotator: annotator}
}

// TextDetectionRequest builds a single-image TEXT_DETECTION request for gcsURI.
func TextDetectionRequest(gcsURI string) *visionpb.BatchAnnotateImagesRequest {
	return &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{
				Source: &visionpb.ImageSource{ImageUri: gcsURI},
			},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION}},
		}},
	}
}

// ExtractText returns the description of the first text annotation for the image
// at gcsURI. The first annotation covers the whole image; no annotations yields "".
func (v *VisionExtractor) ExtractText(ctx context.Context, gcsURI string) (string, error) {
	resp, err := v.annotator.BatchAnnotateImages(ctx, TextDetectionRequest(gcsURI))
	if err != nil {
		return "", fmt.Errorf("text detection failed for %s: %w", gcsURI, err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}

	res := resp.GetResponses()[0]
	if res.GetError().GetCode() != 0 {
		return "", fmt.Errorf("text detection failed for %s: %w", gcsURI, status.ErrorProto(res.GetError()))
	}
	annotations := res.GetTextAnnotations()
	if len(annotations) == 0 {
		return "", nil
	}
	return annotations[0].GetDescription(), nil
}

func (v *VisionExtractor) Close() error {
	if v.closer != nil {
		return v.closer()
	}
	return nil
}
