package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zhouzirui/mood-story/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mood-story/backend/internal/config"
	"github.com/zhouzirui/mood-story/backend/internal/model/story"
	emotionservice "github.com/zhouzirui/mood-story/backend/internal/service/emotion"
	"github.com/zhouzirui/mood-story/backend/internal/service/generation"
	"github.com/zhouzirui/mood-story/backend/internal/service/history"
	"github.com/zhouzirui/mood-story/backend/internal/service/pipeline"
	"github.com/zhouzirui/mood-story/backend/internal/service/prompt"
	"github.com/zhouzirui/mood-story/backend/internal/service/session"
)

type stubClassifier struct {
	label emotion.Label
	err   error
	calls int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (emotion.Label, error) {
	s.calls++
	return s.label, s.err
}

type stubGateway struct {
	mu          sync.Mutex
	storyErr    error
	imageErr    error
	storyPrompt string
	imagePrompt string
	calls       []string
}

func (g *stubGateway) GenerateStory(_ context.Context, p string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "story")
	g.storyPrompt = p
	if g.storyErr != nil {
		return "", g.storyErr
	}
	return "a story", nil
}

func (g *stubGateway) GenerateImage(_ context.Context, p string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "image")
	g.imagePrompt = p
	if g.imageErr != nil {
		return "", g.imageErr
	}
	return "https://img.example/ref", nil
}

type stateRecorder struct {
	mu     sync.Mutex
	states []pipeline.State
}

func (r *stateRecorder) observe(s pipeline.State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func TestGenerateRejectsBlankPrompts(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		classifier := &stubClassifier{label: emotion.Joy}
		gateway := &stubGateway{}
		h := history.New()
		rec := &stateRecorder{}

		orch := pipeline.New(classifier, gateway, nil, pipeline.Options{})
		_, err := orch.Generate(context.Background(), h, text, rec.observe)

		if !pipeline.IsValidation(err) {
			t.Fatalf("expected validation error for %q, got %v", text, err)
		}
		if classifier.calls != 0 || len(gateway.calls) != 0 {
			t.Fatalf("blank prompt reached collaborators: classifier=%d gateway=%v", classifier.calls, gateway.calls)
		}
		if h.Len() != 0 || len(rec.states) != 0 {
			t.Fatalf("blank prompt changed state: history=%d states=%v", h.Len(), rec.states)
		}
	}
}

func TestGenerateAppendsRecord(t *testing.T) {
	classifier := &stubClassifier{label: emotion.Sadness}
	gateway := &stubGateway{}
	h := history.New()
	rec := &stateRecorder{}
	text := "  My cat passed away today 😢\n"

	orch := pipeline.New(classifier, gateway, prompt.NewComposer(), pipeline.Options{})
	record, err := orch.Generate(context.Background(), h, text, rec.observe)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}

	if record.Input != text || record.Mood != emotion.Sadness {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Story != "a story" || record.Image != "https://img.example/ref" || record.ID == "" {
		t.Fatalf("unexpected record outputs: %+v", record)
	}

	all := h.All()
	if len(all) != 1 || all[0] != record {
		t.Fatalf("expected exactly the returned record in history, got %+v", all)
	}

	want := []pipeline.State{
		pipeline.StateClassifying,
		pipeline.StateComposing,
		pipeline.StateGeneratingStory,
		pipeline.StateGeneratingImage,
		pipeline.StateAppended,
		pipeline.StateIdle,
	}
	if strings.Join(statesToStrings(rec.states), ",") != strings.Join(statesToStrings(want), ",") {
		t.Fatalf("unexpected transitions: %v", rec.states)
	}
	if strings.Join(gateway.calls, ",") != "story,image" {
		t.Fatalf("unexpected call order: %v", gateway.calls)
	}
	if !strings.Contains(gateway.imagePrompt, prompt.ResolveStyle(emotion.Sadness)) {
		t.Fatalf("image prompt missing sadness style: %s", gateway.imagePrompt)
	}
}

func TestGenerateFallsBackToNeutral(t *testing.T) {
	classifier := &stubClassifier{err: &emotionservice.ClassificationError{Provider: "ark", Cause: errors.New("down")}}
	gateway := &stubGateway{}
	h := history.New()

	orch := pipeline.New(classifier, gateway, nil, pipeline.Options{})
	record, err := orch.Generate(context.Background(), h, "Went to the store.", nil)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if record.Mood != emotion.Neutral {
		t.Fatalf("expected neutral fallback, got %s", record.Mood)
	}
	if !strings.Contains(gateway.storyPrompt, "The mood is neutral.") {
		t.Fatalf("story prompt should carry neutral mood: %s", gateway.storyPrompt)
	}
}

func TestGenerateFailureLeavesHistory(t *testing.T) {
	cases := []struct {
		name    string
		gateway *stubGateway
		wantErr any
		calls   string
	}{
		{
			name:    "story",
			gateway: &stubGateway{storyErr: &generation.StoryGenerationError{Status: 503, Cause: errors.New("unavailable")}},
			wantErr: new(*generation.StoryGenerationError),
			calls:   "story",
		},
		{
			name:    "image",
			gateway: &stubGateway{imageErr: &generation.ImageGenerationError{Status: 500, Cause: errors.New("boom")}},
			wantErr: new(*generation.ImageGenerationError),
			calls:   "story,image",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := history.New()
			h.Append(story.Record{Input: "earlier"})
			rec := &stateRecorder{}

			orch := pipeline.New(&stubClassifier{label: emotion.Joy}, tc.gateway, nil, pipeline.Options{})
			_, err := orch.Generate(context.Background(), h, "hello", rec.observe)

			if !errors.As(err, tc.wantErr) {
				t.Fatalf("unexpected error type: %v", err)
			}
			if h.Len() != 1 {
				t.Fatalf("history changed on failure: %d", h.Len())
			}
			if strings.Join(tc.gateway.calls, ",") != tc.calls {
				t.Fatalf("unexpected calls: %v", tc.gateway.calls)
			}
			last := rec.states[len(rec.states)-2:]
			if last[0] != pipeline.StateFailed || last[1] != pipeline.StateIdle {
				t.Fatalf("expected failed then idle, got %v", rec.states)
			}
		})
	}
}

func TestGenerateParallel(t *testing.T) {
	gateway := &stubGateway{}
	h := history.New()

	orch := pipeline.New(&stubClassifier{label: emotion.Fear}, gateway, nil, pipeline.Options{Parallel: true})
	record, err := orch.Generate(context.Background(), h, "footsteps behind me", nil)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if len(gateway.calls) != 2 || h.Len() != 1 || record.Mood != emotion.Fear {
		t.Fatalf("unexpected parallel result: calls=%v history=%d", gateway.calls, h.Len())
	}

	failing := &stubGateway{imageErr: &generation.ImageGenerationError{Cause: errors.New("boom")}}
	orch = pipeline.New(&stubClassifier{label: emotion.Fear}, failing, nil, pipeline.Options{Parallel: true})
	if _, err := orch.Generate(context.Background(), h, "again", nil); err == nil {
		t.Fatal("expected parallel failure")
	}
	if h.Len() != 1 {
		t.Fatalf("failed parallel run appended: %d", h.Len())
	}
}

func TestGenerateUpdatesSessionPrompt(t *testing.T) {
	sessions := session.NewService()
	sess, _ := sessions.CreateSession(context.Background())

	orch := pipeline.New(&stubClassifier{label: emotion.Joy}, &stubGateway{}, nil, pipeline.Options{})
	if _, err := orch.Generate(context.Background(), sess, "sunny day", nil); err != nil {
		t.Fatalf("Generate err: %v", err)
	}
	if sess.Prompt() != "sunny day" || sess.History().Len() != 1 {
		t.Fatalf("unexpected session state: %+v", sess.Summary())
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	const text = "I finally got the job"

	var mu sync.Mutex
	var storyURI, imageURI string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if strings.HasPrefix(r.URL.Path, "/prompt/") {
			imageURI = r.RequestURI
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8})
			return
		}
		storyURI = r.RequestURI
		_, _ = w.Write([]byte("On Monday she walked in smiling."))
	}))
	defer srv.Close()

	cfg := config.DefaultGatewayConfig()
	cfg.StoryEndpoint = srv.URL + "/"
	cfg.ImageEndpoint = srv.URL + "/prompt/"
	cfg.ImageProbe = true
	cfg.Timeout = 2 * time.Second
	gateway := generation.NewPollinations(cfg)

	classifier := emotionservice.NewService(emotionservice.Config{Provider: emotionservice.ProviderHeuristic})
	composer := prompt.NewComposer()
	orch := pipeline.New(classifier, gateway, composer, pipeline.Options{})
	h := history.New()

	record, err := orch.Generate(context.Background(), h, text, nil)
	if err != nil {
		t.Fatalf("Generate err: %v", err)
	}

	expected := composer.Compose(text, emotion.Joy)
	if !strings.Contains(expected.Image, "clear happy face, authentic smile") {
		t.Fatalf("joy descriptor missing from image prompt: %s", expected.Image)
	}
	if !strings.HasPrefix(storyURI, "/"+url.PathEscape(expected.Story)+"?") {
		t.Fatalf("story request not percent-encoded as expected: %s", storyURI)
	}
	if !strings.HasPrefix(imageURI, "/prompt/"+url.PathEscape(expected.Image)+"?") {
		t.Fatalf("image request not percent-encoded as expected: %s", imageURI)
	}

	if h.Len() != 1 || record.Mood != emotion.Joy || record.Input != text {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Story != "On Monday she walked in smiling." || record.Image != gateway.ImageURL(expected.Image) {
		t.Fatalf("unexpected outputs: %+v", record)
	}
}

func statesToStrings(states []pipeline.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

