package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/AnshRaj112/gather-web/internal/models"
)

const tracerName = "github.com/AnshRaj112/gather-web/internal/backend"

// maxResponseBytes bounds how much of a backend reply is read.
const maxResponseBytes = 1 << 20

// Factory builds HTTP handles against one backend base URL.
type Factory struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewFactory returns a Factory; timeout applies to every call.
func NewFactory(baseURL string, timeout time.Duration) *Factory {
	return &Factory{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer(tracerName),
	}
}

// New implements HandleFactory.
func (f *Factory) New(accessToken string, generation uint64) Handle {
	return &Client{
		baseURL:    f.baseURL,
		httpClient: f.httpClient,
		tracer:     f.tracer,
		token:      accessToken,
		generation: generation,
	}
}

// Client is the HTTP implementation of Handle.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	token      string
	generation uint64
}

type taggedResult struct {
	Ok  json.RawMessage            `json:"ok"`
	Err map[string]json.RawMessage `json:"err"`
}

func (c *Client) Generation() uint64 { return c.generation }

func (c *Client) ReadUser(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.callResult(ctx, "readUser", nil, &user)
	return user, err
}

func (c *Client) CreateUser(ctx context.Context, profile models.Profile) error {
	return c.callResult(ctx, "createUser", []any{profile.Normalized()}, nil)
}

func (c *Client) Update(ctx context.Context, profile models.Profile) error {
	return c.callResult(ctx, "update", []any{profile.Normalized()}, nil)
}

func (c *Client) Read(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.callResult(ctx, "read", nil, &user)
	return user, err
}

func (c *Client) Delete(ctx context.Context) (json.RawMessage, error) {
	body, err := c.call(ctx, "delete", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) GetGathering(ctx context.Context, id uint64) ([]models.Gathering, error) {
	body, err := c.call(ctx, "getGathering", []any{id})
	if err != nil {
		return nil, err
	}
	var out []models.Gathering
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, transportError("getGathering", fmt.Errorf("decode: %w", err))
	}
	return out, nil
}

func (c *Client) Rsvp(ctx context.Context, rsvp models.Rsvp, gatheringID uint64) error {
	return c.callResult(ctx, "rsvp", []any{rsvp, gatheringID}, nil)
}

// callResult performs a call whose reply is a tagged {ok}|{err} result.
// out may be nil when the ok payload is not needed.
func (c *Client) callResult(ctx context.Context, method string, args []any, out any) error {
	body, err := c.call(ctx, method, args)
	if err != nil {
		return err
	}
	var res taggedResult
	if err := json.Unmarshal(body, &res); err != nil {
		return transportError(method, fmt.Errorf("decode: %w", err))
	}
	if len(res.Err) > 0 {
		return variantError(method, firstVariant(res.Err))
	}
	if res.Ok == nil {
		return transportError(method, errors.New("result has neither ok nor err"))
	}
	if out != nil {
		if err := json.Unmarshal(res.Ok, out); err != nil {
			return transportError(method, fmt.Errorf("decode ok: %w", err))
		}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, args []any) (body []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "backend."+method, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("gather.backend.method", method))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if v := VariantOf(err); v != "" {
				span.SetAttributes(attribute.String("gather.backend.variant", v))
			}
		}
		span.End()
	}()

	if args == nil {
		args = []any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, transportError(method, fmt.Errorf("encode args: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+method, bytes.NewReader(payload))
	if err != nil {
		return nil, transportError(method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(method, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(method, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// An expired delegation is rejected before the call reaches the service.
		return nil, variantError(method, VariantNotAuthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, transportError(method, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return body, nil
}

// firstVariant picks the tag of a single-key err object. Keys are sorted
// so malformed multi-key replies classify deterministically.
func firstVariant(err map[string]json.RawMessage) string {
	keys := make([]string, 0, len(err))
	for k := range err {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}
