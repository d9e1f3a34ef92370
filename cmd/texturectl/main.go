package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultTextureType = "metal"

type textureRequest struct {
	Prompt         string `json:"prompt"`
	OutputFilename string `json:"output_filename"`
}

type textureResponse struct {
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

func main() {
	var (
		typeFlag    string
		urlFlag     string
		promptFlag  string
		outputFlag  string
		timeoutFlag time.Duration
	)
	flag.StringVar(&typeFlag, "type", defaultTextureType, "Material type used to build the default prompt and filename")
	flag.StringVar(&urlFlag, "url", "http://127.0.0.1:5000", "Base URL of the texture service")
	flag.StringVar(&promptFlag, "prompt", "", "Override the generated prompt")
	flag.StringVar(&outputFlag, "output", "", "Override the output filename")
	flag.DurationVar(&timeoutFlag, "timeout", 3*time.Minute, "Request timeout")
	flag.Parse()

	material := strings.TrimSpace(strings.ToLower(typeFlag))
	if material == "" {
		fmt.Fprintln(os.Stderr, "texture type is required")
		os.Exit(1)
	}

	req := defaultRequest(material)
	if p := strings.TrimSpace(promptFlag); p != "" {
		req.Prompt = p
	}
	if o := strings.TrimSpace(outputFlag); o != "" {
		req.OutputFilename = o
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
	defer cancel()

	path, err := requestTexture(ctx, http.DefaultClient, urlFlag, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "texture generation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(path)
}

func defaultRequest(material string) textureRequest {
	return textureRequest{
		Prompt:         fmt.Sprintf("Seamless %s surface texture, realistic PBR material, suitable for Blender.", material),
		OutputFilename: fmt.Sprintf("blender_%s_texture.png", material),
	}
}

func requestTexture(ctx context.Context, client *http.Client, baseURL string, body textureRequest) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/generate_texture"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var out textureResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error == "" {
			out.Error = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, out.Error)
	}
	if out.FilePath == "" {
		return "", fmt.Errorf("response did not include file_path")
	}
	return out.FilePath, nil
}
