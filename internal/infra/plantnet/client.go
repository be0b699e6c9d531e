package plantnet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/kisanmitra/internal/domain/plantid"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
)

const (
	providerName   = "plantnet"
	defaultBaseURL = "https://my-api.plantnet.org"
)

// Client calls the Pl@ntNet species and disease identification endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ plantid.Client = (*Client)(nil)

// NewClient builds an API client.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("plantnet api key cannot be empty")
	}
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// IdentifySpecies returns candidate species ordered by score.
func (c *Client) IdentifySpecies(ctx context.Context, img upstream.Image, organ string) ([]plantid.SpeciesMatch, error) {
	query := url.Values{}
	query.Set("include-related-images", "false")
	query.Set("no-reject", "false")
	query.Set("lang", "en")
	query.Set("api-key", c.apiKey)

	var raw speciesResponse
	found, err := c.post(ctx, "/v2/identify/all", query, img, organ, &raw)
	if err != nil || !found {
		return nil, err
	}
	out := make([]plantid.SpeciesMatch, 0, len(raw.Results))
	for _, r := range raw.Results {
		out = append(out, plantid.SpeciesMatch{
			Score:          r.Score,
			ScientificName: r.Species.ScientificNameWithoutAuthor,
			CommonNames:    r.Species.CommonNames,
			Family:         r.Species.Family.ScientificNameWithoutAuthor,
		})
	}
	return out, nil
}

// IdentifyDiseases returns candidate diseases ordered by score.
func (c *Client) IdentifyDiseases(ctx context.Context, img upstream.Image, organ string) ([]plantid.DiseaseMatch, error) {
	query := url.Values{}
	query.Set("api-key", c.apiKey)

	var raw diseaseResponse
	found, err := c.post(ctx, "/v2/diseases/identify", query, img, organ, &raw)
	if err != nil || !found {
		return nil, err
	}
	out := make([]plantid.DiseaseMatch, 0, len(raw.Results))
	for _, r := range raw.Results {
		name := r.Disease.Label
		if name == "" {
			name = r.Label
		}
		if name == "" {
			name = r.Name
		}
		out = append(out, plantid.DiseaseMatch{Score: r.Score, Name: name})
	}
	return out, nil
}

// post uploads the image and decodes the answer into dst. A 404 means the
// service found no match and is reported as found=false without an error.
func (c *Client) post(ctx context.Context, path string, query url.Values, img upstream.Image, organ string, dst any) (bool, error) {
	body, contentType, err := buildForm(img, organ)
	if err != nil {
		return false, fmt.Errorf("build plantnet form: %w", err)
	}
	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return false, fmt.Errorf("build plantnet request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("plantnet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return false, &upstream.StatusError{
			Provider: providerName,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(payload)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("decode plantnet response: %w", err)
	}
	return true, nil
}

func buildForm(img upstream.Image, organ string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="plant%s"`, img.Extension()))
	header.Set("Content-Type", img.MIMEType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("organs", organ); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

type speciesResponse struct {
	Results []struct {
		Score   float64 `json:"score"`
		Species struct {
			ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
			CommonNames                 []string `json:"commonNames"`
			Family                      struct {
				ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor"`
			} `json:"family"`
		} `json:"species"`
	} `json:"results"`
}

type diseaseResponse struct {
	Results []struct {
		Score   float64 `json:"score"`
		Name    string  `json:"name"`
		Label   string  `json:"label"`
		Disease struct {
			Label string `json:"label"`
		} `json:"disease"`
	} `json:"results"`
}
