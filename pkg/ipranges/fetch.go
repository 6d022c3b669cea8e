package ipranges

import (
	"context"
	"crypto/md5" // #nosec G501 -- AWS publishes an MD5 checksum for the document.
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

const (
	// DefaultURL is where AWS publishes the IP ranges document.
	DefaultURL = "https://ip-ranges.amazonaws.com/ip-ranges.json"

	// TestHash disables checksum verification.
	TestHash = "test-hash"

	// MaxDocumentSize caps the document body. The published document is a
	// few MiB.
	MaxDocumentSize = 64 << 20
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, input FetchInput) ([]byte, error)
}

type FetchInput struct {
	URL string

	// ExpectedMD5 is the hex MD5 checksum the body must match. Empty or
	// TestHash skips verification.
	ExpectedMD5 string
}

// NewFetcher returns a Fetcher using the AWS SDK HTTP client with the given
// request timeout.
func NewFetcher(timeout time.Duration) Fetcher {
	return NewFetcherWithClient(awshttp.NewBuildableClient().WithTimeout(timeout))
}

func NewFetcherWithClient(httpClient HTTPClient) Fetcher {
	return &fetcher{
		httpClient: httpClient,
	}
}

type fetcher struct {
	httpClient HTTPClient
	maxSize    int64
}

func (f *fetcher) Fetch(ctx context.Context, input FetchInput) (body []byte, err error) {
	logger := log.FromContext(ctx).WithValues("url", input.URL)
	logger.Info("Started fetching IP ranges document")
	defer func() {
		if err == nil {
			logger.Info("Finished fetching IP ranges document", "bytes", len(body))
		} else {
			logger.Error(err, "Failed to fetch IP ranges document")
		}
	}()

	if input.URL == "" {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.URL must not be empty", input)
	}
	lowerURL := strings.ToLower(input.URL)
	if !strings.HasPrefix(lowerURL, "http://") && !strings.HasPrefix(lowerURL, "https://") {
		return nil, microerror.Maskf(errors.InvalidConfigError, "expected an HTTP URL, got %q", input.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return nil, microerror.Maskf(errors.DocumentFetchError, "failed to build request: %s", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, microerror.Maskf(errors.DocumentFetchError, "GET %s: %s", input.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, microerror.Maskf(errors.DocumentFetchError, "GET %s: unexpected status %s", input.URL, resp.Status)
	}

	maxSize := f.maxSize
	if maxSize <= 0 {
		maxSize = MaxDocumentSize
	}
	body, err = io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, microerror.Maskf(errors.DocumentFetchError, "failed to read body of %s: %s", input.URL, err)
	}
	if int64(len(body)) > maxSize {
		return nil, microerror.Maskf(errors.DocumentFetchError, "body of %s exceeds %d bytes", input.URL, maxSize)
	}

	if input.ExpectedMD5 == "" || input.ExpectedMD5 == TestHash {
		logger.Info("Skipped checksum verification")
		return body, nil
	}

	sum := md5.Sum(body) // #nosec G401
	actual := hex.EncodeToString(sum[:])
	if !strings.EqualFold(actual, input.ExpectedMD5) {
		return nil, microerror.Maskf(errors.DocumentChecksumMismatchError, "got %q, expected %q", actual, input.ExpectedMD5)
	}

	return body, nil
}
