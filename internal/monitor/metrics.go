package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"google.golang.org/protobuf/encoding/protodelim"
)

// protoAccept asks promhttp for length-delimited protobuf, which decodes
// without a text parser.
const protoAccept = `application/vnd.google.protobuf;proto=io.prometheus.client.MetricFamily;encoding=delimited`

// MetricsClient scrapes a middleout server's /metrics endpoint.
type MetricsClient struct {
	baseURL string
	client  *http.Client
}

// NewMetricsClient creates a new metrics client
func NewMetricsClient(baseURL string) *MetricsClient {
	return &MetricsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// Scrape fetches the server's metrics and reduces them to a Snapshot.
func (c *MetricsClient) Scrape(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", protoAccept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.google.protobuf") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	families, err := decodeFamilies(resp.Body)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(families, time.Now()), nil
}

// decodeFamilies reads length-delimited MetricFamily messages until EOF.
func decodeFamilies(r io.Reader) (map[string]*dto.MetricFamily, error) {
	br := bufio.NewReader(r)
	out := make(map[string]*dto.MetricFamily)
	for {
		mf := &dto.MetricFamily{}
		if err := protodelim.UnmarshalFrom(br, mf); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("failed to decode metric family: %w", err)
		}
		out[mf.GetName()] = mf
	}
}
