package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inboundkit/internal/ai"
	"github.com/nhle/inboundkit/internal/dedupe"
	"github.com/nhle/inboundkit/internal/dump"
	"github.com/nhle/inboundkit/internal/tmpl"
)

func TestCleanup_StoresBodiesAndReportsSavings(t *testing.T) {
	dir := t.TempDir()
	v := NewCleanup(&dump.FileSink{Dir: dir}, "", nil)
	h := NewRouter(RouterOptions{Variant: v})

	email := `{"id":"e1","cleanedContent":{"html":"<div>Answer</div><div class=\"gmail_quote\">On Mon someone wrote: old old old old old</div>"}}`
	rec := post(t, h, "/api/inbound", payload(email))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	details := body["details"].(map[string]interface{})
	assert.Greater(t, details["tokensSaved"].(float64), float64(0))

	raw, err := os.ReadFile(filepath.Join(dir, "e1.raw.html"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "gmail_quote")

	cleaned, err := os.ReadFile(filepath.Join(dir, "e1.cleaned.html"))
	require.NoError(t, err)
	assert.Contains(t, string(cleaned), "Answer")
	assert.NotContains(t, string(cleaned), "gmail_quote")
}

func TestCleanup_NoHTML(t *testing.T) {
	dir := t.TempDir()
	h := NewRouter(RouterOptions{Variant: NewCleanup(&dump.FileSink{Dir: dir}, "", nil)})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"textBody":"hi"}}`))
	require.Equal(t, http.StatusOK, rec.Code)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestPDF_NoContentIs400WithoutRender(t *testing.T) {
	renderer := &fakeRenderer{}
	replier := &fakeReplier{}
	h := NewRouter(RouterOptions{Variant: NewPDF(renderer, replier, tmpl.New(), "", "", nil)})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1","subject":"Empty"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No content to convert", decode(t, rec)["error"])
	assert.Empty(t, renderer.html)
	assert.Empty(t, replier.Calls())
}

func TestPDF_MissingIDIs400WithoutRender(t *testing.T) {
	renderer := &fakeRenderer{}
	replier := &fakeReplier{}
	h := NewRouter(RouterOptions{Variant: NewPDF(renderer, replier, tmpl.New(), "", "", nil)})

	rec := post(t, h, "/api/inbound", payload(`{"subject":"Hi","parsedData":{"htmlBody":"<p>Convert me</p>"}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing email id", decode(t, rec)["error"])
	assert.Empty(t, renderer.html)
	assert.Empty(t, replier.Calls())
}

func TestPDF_StripsRendersAndReplies(t *testing.T) {
	renderer := &fakeRenderer{bytes: []byte("%PDF-1.7 bytes")}
	replier := &fakeReplier{}
	v := NewPDF(renderer, replier, tmpl.New(), "", "Converter", nil)
	v.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	h := NewRouter(RouterOptions{Variant: v})

	email := `{
		"id": "e1",
		"subject": "Quarterly Report",
		"recipient": "pdf@in.example.com",
		"from": {"text": "a@example.com", "addresses": [{"address": "a@example.com"}]},
		"parsedData": {"htmlBody": "<div>Please convert</div><div class=\"gmail_quote\">quoted stuff</div>"}
	}`
	rec := post(t, h, "/api/inbound", payload(email))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, renderer.html, 1)
	assert.Contains(t, renderer.html[0], "Please convert")
	assert.NotContains(t, renderer.html[0], "quoted stuff")
	assert.Contains(t, renderer.html[0], "Converted to PDF by inboundkit")
	assert.Contains(t, renderer.html[0], "2024-05-01 12:00 UTC")

	calls := replier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "e1", calls[0].MessageID)
	assert.Equal(t, "pdf@in.example.com", calls[0].Req.From)
	assert.Equal(t, "Re: Quarterly Report", calls[0].Req.Subject)
	require.Len(t, calls[0].Req.Attachments, 1)

	att := calls[0].Req.Attachments[0]
	assert.Equal(t, "quarterly-report.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	data, err := base64.StdEncoding.DecodeString(att.Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 bytes", string(data))
}

func TestPDF_TextOnlyIsEscaped(t *testing.T) {
	renderer := &fakeRenderer{}
	h := NewRouter(RouterOptions{Variant: NewPDF(renderer, &fakeReplier{}, tmpl.New(), "me@example.com", "", nil)})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"textBody":"1 < 2 & <b>x</b>"}}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, renderer.html, 1)
	assert.Contains(t, renderer.html[0], "1 &lt; 2 &amp; &lt;b&gt;x&lt;/b&gt;")
}

func TestPDF_RenderFailureIs500(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("browserless 503")}
	replier := &fakeReplier{}
	h := NewRouter(RouterOptions{Variant: NewPDF(renderer, replier, tmpl.New(), "", "", nil)})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"htmlBody":"<p>x</p>"}}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, replier.Calls())
}

func TestPDFFilename(t *testing.T) {
	assert.Equal(t, "email.pdf", PDFFilename(""))
	assert.Equal(t, "re-hello-world.pdf", PDFFilename("Re: Hello, World!"))
	assert.LessOrEqual(t, len(PDFFilename(strings.Repeat("a", 200))), 64)
}

func safeAnalysis() *ai.Analysis {
	return &ai.Analysis{
		DetailedAnalysis:        "Routine newsletter.",
		PersonalizedSummary:     "Nothing to worry about.",
		SafetyScore:             90,
		ForwardedSubjectSummary: "Weekly newsletter",
	}
}

func TestAnalyze_AcksThenReplies(t *testing.T) {
	analyzer := &fakeAnalyzer{result: safeAnalysis()}
	replier := &fakeReplier{}
	jobs := NewDetached(time.Minute, nil)
	v := NewAnalyze(AnalyzeOptions{Analyzer: analyzer, Replier: replier, Jobs: jobs})
	h := NewRouter(RouterOptions{Variant: v})

	email := `{"id":"e1","subject":"Newsletter","recipient":"check@in.example.com","parsedData":{"htmlBody":"<p>Hello reader</p>"}}`
	rec := post(t, h, "/api/inbound", payload(email))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Analysis started", decode(t, rec)["message"])

	require.NoError(t, jobs.Wait(context.Background()))

	require.Len(t, analyzer.inputs, 1)
	assert.Contains(t, analyzer.inputs[0].Content, "Hello reader")

	calls := replier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "analysis-reply-e1", calls[0].IdempotencyKey)
	assert.Equal(t, "Email analysis: Weekly newsletter", calls[0].Req.Subject)
	assert.Contains(t, calls[0].Req.Text, "Safety score: 90/100")
	assert.Equal(t, "check@in.example.com", calls[0].Req.From)
}

func TestAnalyze_MissingIDIs400WithoutClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	analyzer := &fakeAnalyzer{result: safeAnalysis()}
	replier := &fakeReplier{}
	jobs := NewDetached(time.Minute, nil)
	h := NewRouter(RouterOptions{Variant: NewAnalyze(AnalyzeOptions{
		Analyzer: analyzer,
		Replier:  replier,
		Jobs:     jobs,
		Guard:    dedupe.NewRedisGuard(client, "test:", time.Hour),
	})})

	rec := post(t, h, "/api/inbound", payload(`{"parsedData":{"textBody":"hi"}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing email id", decode(t, rec)["error"])

	require.NoError(t, jobs.Wait(context.Background()))
	assert.Empty(t, analyzer.inputs)
	assert.Empty(t, replier.Calls())
	assert.Empty(t, mr.Keys())
}

func TestAnalyze_ReplayWithoutGuardReusesKey(t *testing.T) {
	replier := &fakeReplier{}
	jobs := NewDetached(time.Minute, nil)
	h := NewRouter(RouterOptions{Variant: NewAnalyze(AnalyzeOptions{
		Analyzer: &fakeAnalyzer{result: safeAnalysis()},
		Replier:  replier,
		Jobs:     jobs,
	})})

	for i := 0; i < 2; i++ {
		rec := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"textBody":"hi"}}`))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.NoError(t, jobs.Wait(context.Background()))

	calls := replier.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0].IdempotencyKey, calls[1].IdempotencyKey)
}

func TestAnalyze_ReplayWithGuardRepliesOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	analyzer := &fakeAnalyzer{result: safeAnalysis()}
	replier := &fakeReplier{}
	jobs := NewDetached(time.Minute, nil)
	h := NewRouter(RouterOptions{Variant: NewAnalyze(AnalyzeOptions{
		Analyzer: analyzer,
		Replier:  replier,
		Jobs:     jobs,
		Guard:    dedupe.NewRedisGuard(client, "test:", time.Hour),
	})})

	first := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"textBody":"hi"}}`))
	second := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"textBody":"hi"}}`))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "Already processing", decode(t, second)["message"])

	require.NoError(t, jobs.Wait(context.Background()))
	assert.Len(t, analyzer.inputs, 1)
	assert.Len(t, replier.Calls(), 1)
}

func TestAnalyze_FailureReleasesClaimAndReportsError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	replier := &fakeReplier{}
	jobs := NewDetached(time.Minute, nil)
	h := NewRouter(RouterOptions{Variant: NewAnalyze(AnalyzeOptions{
		Analyzer: &fakeAnalyzer{err: errors.New("model overloaded")},
		Replier:  replier,
		Jobs:     jobs,
		Guard:    dedupe.NewRedisGuard(client, "test:", time.Hour),
	})})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"textBody":"hi"}}`))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, jobs.Wait(context.Background()))

	var errs []JobError
	for je := range jobs.Errors() {
		errs = append(errs, je)
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "model overloaded")
	assert.Empty(t, replier.Calls())
	assert.False(t, mr.Exists("test:analysis-reply-e1"))
}

func TestAnalyze_RejectsAfterShutdown(t *testing.T) {
	jobs := NewDetached(time.Minute, nil)
	require.NoError(t, jobs.Wait(context.Background()))

	h := NewRouter(RouterOptions{Variant: NewAnalyze(AnalyzeOptions{
		Analyzer: &fakeAnalyzer{result: safeAnalysis()},
		Replier:  &fakeReplier{},
		Jobs:     jobs,
	})})

	rec := post(t, h, "/api/inbound", payload(`{"id":"e1","parsedData":{"textBody":"hi"}}`))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal(Status{Success: true, Message: "ok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"ok"}`, string(data))
}
