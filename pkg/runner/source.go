package runner

import (
	"context"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/yurykabanov/sqljobrunner/pkg/query"
)

// Source produces one loggable result per call.
type Source interface {
	Query(ctx context.Context) (string, error)
}

// DirectSource queries the database itself.
type DirectSource struct {
	executor query.Executor
	query    string
}

func NewDirectSource(executor query.Executor, q string) *DirectSource {
	return &DirectSource{
		executor: executor,
		query:    q,
	}
}

func (s *DirectSource) Query(ctx context.Context) (string, error) {
	value, err := s.executor.Scalar(ctx, s.query)
	if err != nil {
		return "", err
	}

	return query.Format(value), nil
}

type httpClient interface {
	Do(*http.Request) (*http.Response, error)
}

// EndpointSource asks the local query endpoint and returns its response body.
type EndpointSource struct {
	client httpClient
	url    string
}

func NewEndpointSource(client httpClient, url string) *EndpointSource {
	return &EndpointSource{
		client: client,
		url:    url,
	}
}

func (s *EndpointSource) Query(ctx context.Context) (string, error) {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return "", errors.Wrap(err, "Unable to build request")
	}

	resp, err := s.client.Do(req.WithContext(ctx))
	if err != nil {
		return "", errors.Wrap(err, "Unable to call query endpoint")
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "Unable to read query endpoint response")
	}

	text := strings.TrimSpace(string(body))

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("query endpoint responded with %d: %s", resp.StatusCode, text)
	}

	return text, nil
}
