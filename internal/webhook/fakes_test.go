package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/nhle/inboundkit/internal/ai"
	"github.com/nhle/inboundkit/internal/apperr"
	"github.com/nhle/inboundkit/internal/inbound"
	"github.com/nhle/inboundkit/internal/model"
)

type replyCall struct {
	MessageID      string
	Req            model.ReplyRequest
	IdempotencyKey string
}

type fakeReplier struct {
	mu    sync.Mutex
	calls []replyCall
	err   error
}

func (f *fakeReplier) Reply(
	_ context.Context, id string, req model.ReplyRequest, opts ...inbound.CallOption,
) (*model.SendResult, error) {
	httpReq, _ := http.NewRequest(http.MethodPost, "http://x", nil)
	for _, o := range opts {
		o(httpReq)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, replyCall{
		MessageID:      id,
		Req:            req,
		IdempotencyKey: httpReq.Header.Get("Idempotency-Key"),
	})
	if f.err != nil {
		return nil, f.err
	}
	return &model.SendResult{ID: "out-1"}, nil
}

func (f *fakeReplier) Calls() []replyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]replyCall(nil), f.calls...)
}

type fakeRenderer struct {
	mu    sync.Mutex
	html  []string
	err   error
	bytes []byte
}

func (f *fakeRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = append(f.html, html)
	if f.err != nil {
		return nil, f.err
	}
	if f.bytes != nil {
		return f.bytes, nil
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fakeAnalyzer struct {
	mu     sync.Mutex
	inputs []ai.Input
	result *ai.Analysis
	err    error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, in ai.Input) (*ai.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeDomains struct {
	mu      sync.Mutex
	created []string
	checked []string
	err     error
}

func (f *fakeDomains) CreateDomain(_ context.Context, name string) (*model.Domain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Domain{ID: "dom-1", Domain: name, Status: model.DomainPending}, nil
}

func (f *fakeDomains) CheckDomain(_ context.Context, id string) (*model.Domain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, id)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Domain{ID: id, Domain: "example.com", Status: model.DomainVerified, IsFullyVerified: true}, nil
}

// variantFunc adapts a function to Variant.
type variantFunc func(ctx context.Context, email *model.InboundEmail) (Status, error)

func (f variantFunc) Name() string { return "test" }

func (f variantFunc) Handle(ctx context.Context, email *model.InboundEmail) (Status, error) {
	return f(ctx, email)
}

var errBoom = errors.New("database password is hunter2")

var upstream422 = &apperr.UpstreamError{Status: 422, Message: "Domain already exists"}

func payload(email string) *strings.Reader {
	return strings.NewReader(`{"event":"email.received","email":` + email + `}`)
}
