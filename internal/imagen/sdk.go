package imagen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"imagestudio/internal/domain"
	"imagestudio/internal/infra"
)

// The SDK only accepts these ratios; anything else is left to the model default.
var sdkAspectRatios = map[string]bool{
	"1:1": true, "3:4": true, "4:3": true, "9:16": true, "16:9": true,
}

type imageModels interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// SDKGenerator calls Imagen through the google.golang.org/genai client with
// the Vertex AI backend. The SDK has no step or explicit size knobs, so only
// the prompt, negative prompt, ratio and guidance scale are carried over.
type SDKGenerator struct {
	models  imageModels
	model   string
	timeout time.Duration
	logger  *infra.Logger
}

// NewSDKGenerator creates a Vertex AI backed genai client. Credentials come
// from Application Default Credentials. timeout bounds each call.
func NewSDKGenerator(ctx context.Context, cfg *infra.Config, timeout time.Duration, logger *infra.Logger) (*SDKGenerator, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:     cfg.ProjectID,
		Location:    cfg.Location,
		Backend:     genai.BackendVertexAI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	})
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindAuth, Message: authFailureMessage, Cause: err}
	}
	return &SDKGenerator{
		models:  client.Models,
		model:   cfg.ImagenModel,
		timeout: timeout,
		logger:  infra.OrDiscard(logger),
	}, nil
}

func (g *SDKGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*Image, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("imagen: sdk generator not configured")
	}
	payload := BuildPayload(req)
	guidance := float32(payload.Parameters.GuidanceScale)
	config := &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		NegativePrompt:   req.NegativePrompt,
		GuidanceScale:    &guidance,
		IncludeRAIReason: true,
		OutputMIMEType:   "image/png",
	}
	if sdkAspectRatios[req.AspectRatio] {
		config.AspectRatio = req.AspectRatio
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateImages(ctx, g.model, payload.Prompt(), config)
	if err != nil {
		return nil, classifySDKError(err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, &domain.Error{Kind: domain.KindResponseShape, Message: "API did not return predictions. Check logs."}
	}

	first := resp.GeneratedImages[0]
	if first.Image == nil || len(first.Image.ImageBytes) == 0 {
		if first.RAIFilteredReason != "" {
			return nil, &domain.Error{
				Kind:    domain.KindSafety,
				Message: fmt.Sprintf("Generation blocked by safety filters (Reason: %s). Please modify your prompt.", first.RAIFilteredReason),
			}
		}
		return nil, &domain.Error{Kind: domain.KindResponseShape, Message: "Failed to parse expected image data from API response."}
	}

	mime := first.Image.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	g.logger.Debug().Str("model", g.model).Int("bytes", len(first.Image.ImageBytes)).Msg("imagen: sdk image generated")
	return &Image{Data: first.Image.ImageBytes, MIMEType: mime, Shape: "sdk"}, nil
}

func classifySDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &domain.Error{
			Kind:    domain.KindHTTP,
			Status:  apiErr.Code,
			Message: fmt.Sprintf("HTTP %d: %s", apiErr.Code, apiErr.Message),
			Detail:  apiErr.Status,
			Cause:   err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.Error{Kind: domain.KindTimeout, Message: "Image generation request timed out.", Cause: err}
	}
	return &domain.Error{Kind: domain.KindNetwork, Message: fmt.Sprintf("Network or request error during generation: %v", err), Cause: err}
}

var _ Generator = (*SDKGenerator)(nil)
