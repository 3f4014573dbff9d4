package caption

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clipline/internal/config"
	"clipline/internal/logging"
	"clipline/internal/oracle"
	"clipline/internal/store"
)

var mandatory = []string{"#shorts", "#viral", "#trending", "#fyp", "#foryou"}

func TestNormalizeHashtags(t *testing.T) {
	generated := []string{
		"funny", "#Funny", "# spaced tag ", "", "#", "#shorts", // dupes and junk
		"#comedy", "#standup", "#jokes", "#laugh", "#humor",
		"#clip", "#moments", "#best", "#daily", "#entertainment",
	}
	got := NormalizeHashtags(generated, mandatory, 25)

	for _, tag := range got {
		if !strings.HasPrefix(tag, "#") {
			t.Errorf("tag %q missing # prefix", tag)
		}
	}
	seen := map[string]bool{}
	for _, tag := range got {
		key := strings.ToLower(tag)
		if seen[key] {
			t.Errorf("duplicate tag %q", tag)
		}
		seen[key] = true
	}
	for _, m := range mandatory {
		if !seen[strings.ToLower(m)] {
			t.Errorf("mandatory tag %q missing", m)
		}
	}
	if got[0] != "#shorts" {
		t.Errorf("mandatory tags should lead, got %v", got[:3])
	}
}

func TestNormalizeHashtagsTrimsOverflowKeepingMandatory(t *testing.T) {
	var generated []string
	for r := 'a'; r <= 'z'; r++ {
		generated = append(generated, "#tag"+string(r))
	}
	got := NormalizeHashtags(generated, mandatory, 25)
	if len(got) != 25 {
		t.Fatalf("expected cap at 25 tags, got %d", len(got))
	}
	for i, m := range mandatory {
		if got[i] != m {
			t.Fatalf("mandatory tag %q trimmed away: %v", m, got[:len(mandatory)])
		}
	}
}

type stubOracle struct {
	metas []*oracle.Metadata
	errs  []error
	calls int
}

func (s *stubOracle) ScoreCandidates(context.Context, oracle.SelectionRequest) ([]oracle.Candidate, error) {
	return nil, errors.New("not used")
}

func (s *stubOracle) GenerateMetadata(context.Context, oracle.MetadataRequest) (*oracle.Metadata, error) {
	i := s.calls
	s.calls++
	if i >= len(s.metas) {
		i = len(s.metas) - 1
	}
	return s.metas[i], s.errs[i]
}

func testConfig() *config.Config {
	cfg := config.Default()
	return &cfg
}

func manyTags(n int) []string {
	var tags []string
	for i := 0; i < n; i++ {
		tags = append(tags, "#generated"+string(rune('a'+i)))
	}
	return tags
}

func testClip() *store.Clip {
	return &store.Clip{
		Ordinal:   1,
		Rationale: "strong hook",
		Captions:  []store.CaptionCue{{Start: 0, End: 3, Text: "watch this moment"}},
	}
}

func TestComposeFillsClip(t *testing.T) {
	stub := &stubOracle{
		metas: []*oracle.Metadata{{
			Title:       "This moment changes everything",
			Hashtags:    manyTags(20),
			Description: "A clip worth sharing.",
		}},
		errs: []error{nil},
	}
	composer := New(stub, testConfig(), logging.NewNop())

	clip := testClip()
	if err := composer.Compose(context.Background(), &store.Video{ID: "v1"}, clip); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if clip.Title == "" || clip.Description == "" {
		t.Fatalf("clip metadata not filled: %+v", clip)
	}
	cfg := testConfig()
	if len(clip.Hashtags) < cfg.Captions.MinHashtags || len(clip.Hashtags) > cfg.Captions.MaxHashtags {
		t.Fatalf("hashtag count %d outside [%d, %d]", len(clip.Hashtags), cfg.Captions.MinHashtags, cfg.Captions.MaxHashtags)
	}
}

func TestComposeRetriesOnceOnShortResponse(t *testing.T) {
	stub := &stubOracle{
		metas: []*oracle.Metadata{
			{Title: "Too few tags", Hashtags: manyTags(2)},
			{Title: "Enough tags now", Hashtags: manyTags(20)},
		},
		errs: []error{nil, nil},
	}
	composer := New(stub, testConfig(), logging.NewNop())

	clip := testClip()
	if err := composer.Compose(context.Background(), &store.Video{ID: "v1"}, clip); err != nil {
		t.Fatalf("compose should succeed on second attempt: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 oracle calls, got %d", stub.calls)
	}
}

func TestComposeGivesUpAfterRetry(t *testing.T) {
	stub := &stubOracle{
		metas: []*oracle.Metadata{{Title: "", Hashtags: nil}},
		errs:  []error{nil},
	}
	composer := New(stub, testConfig(), logging.NewNop())

	clip := testClip()
	if err := composer.Compose(context.Background(), &store.Video{ID: "v1"}, clip); err == nil {
		t.Fatal("expected error after failed retry")
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 oracle calls, got %d", stub.calls)
	}
	if clip.Title != "" {
		t.Fatalf("clip must stay untouched on failure: %+v", clip)
	}
}

func TestComposeTruncatesTitle(t *testing.T) {
	long := strings.Repeat("a", 200)
	stub := &stubOracle{
		metas: []*oracle.Metadata{{Title: long, Hashtags: manyTags(20)}},
		errs:  []error{nil},
	}
	composer := New(stub, testConfig(), logging.NewNop())

	clip := testClip()
	if err := composer.Compose(context.Background(), &store.Video{ID: "v1"}, clip); err != nil {
		t.Fatalf("compose: %v", err)
	}
	cfg := testConfig()
	if len([]rune(clip.Title)) != cfg.Captions.MaxTitleLength {
		t.Fatalf("expected title truncated to %d, got %d", cfg.Captions.MaxTitleLength, len(clip.Title))
	}
}
