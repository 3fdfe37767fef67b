package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
)

var (
	ErrFetchFailed        = errors.New("failed to fetch resource")
	ErrFetchDetails       = errors.New("failed to fetch resource details")
	ErrUnexpectedEnvelope = errors.New("unexpected response envelope")
)

var messages = []struct {
	err error
	msg string
}{
	{ErrFetchFailed, "Failed to fetch resource"},
	{ErrFetchDetails, "Failed to fetch resource details"},
}

// Message is the text shown to the user for a fetch error.
func Message(err error) string {
	if err == nil {
		return ""
	}

	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}

	return err.Error()
}

//go:generate mockgen -source=service.go -destination=source_mock.go -package=record
type Source interface {
	Do(ctx context.Context, req invoicing.Request) (*invoicing.Response, error)
}

// Sink receives the state transitions of one fetch.
type Sink interface {
	SetLoading(loading bool)
	SetError(err error)
	SetData(records []Record)
}

type Service struct {
	source Source
	logger *slog.Logger
}

func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{source: source, logger: logger}
}

// Load fetches res and returns its records. A non-200 status returns
// ErrFetchFailed.
func (s *Service) Load(ctx context.Context, res Resource, params Params, req invoicing.Request) ([]Record, error) {
	if !res.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, string(res))
	}

	req.Method = http.MethodGet
	req.Path = res.Endpoint()
	req.Query = mergeQuery(req.Query, params)

	resp, err := s.source.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	return decodeEnvelope(resp)
}

// Fetch runs Load and reports progress to sink. Loading is always cleared on
// return; a canceled fetch leaves error and data as they were.
func (s *Service) Fetch(ctx context.Context, res Resource, params Params, sink Sink, req invoicing.Request) {
	sink.SetLoading(true)
	sink.SetError(nil)

	defer sink.SetLoading(false)

	records, err := s.Load(ctx, res, params, req)

	switch {
	case err == nil:
		sink.SetData(records)
	case invoicing.IsCanceled(err):
		s.logger.DebugContext(ctx, "fetch canceled", "resource", res)
	case errors.Is(err, ErrFetchFailed):
		s.logger.WarnContext(ctx, "fetch failed", "resource", res, "error", err)
		sink.SetData([]Record{})
		sink.SetError(ErrFetchFailed)
	default:
		s.logger.ErrorContext(ctx, "fetch error", "resource", res, "error", err)
		sink.SetError(describe(err))
	}
}

func describe(err error) error {
	if err.Error() == "" {
		return ErrFetchDetails
	}

	return err
}

func mergeQuery(q url.Values, params Params) url.Values {
	out := url.Values{}

	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}

	for k, vs := range params.Values() {
		out[k] = vs
	}

	return out
}

type envelope struct {
	Data *struct {
		Data []Record `json:"data"`
	} `json:"data"`
}

// decodeEnvelope extracts the records from {"data":{"data":[...]}}.
func decodeEnvelope(resp *invoicing.Response) ([]Record, error) {
	var env envelope
	if err := resp.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedEnvelope, err)
	}

	if env.Data == nil || env.Data.Data == nil {
		return []Record{}, nil
	}

	return env.Data.Data, nil
}
