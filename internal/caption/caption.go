// Package caption composes clip publishing metadata: title, hashtags
// and description, with the hashtag set held inside configured bounds.
package caption

import (
	"context"
	"fmt"
	"strings"

	"clipline/internal/config"
	"clipline/internal/logging"
	"clipline/internal/oracle"
	"clipline/internal/store"
)

// Composer generates and normalizes clip metadata via the oracle.
type Composer struct {
	oracle oracle.Oracle
	cfg    *config.Config
	log    *logging.Logger
}

// New returns a Composer over the given oracle backend.
func New(o oracle.Oracle, cfg *config.Config, logger *logging.Logger) *Composer {
	return &Composer{oracle: o, cfg: cfg, log: logging.WithComponent(logger, "caption")}
}

// Compose fills the clip's title, hashtags and description. A response
// that violates the metadata invariants gets one immediate re-ask
// before the error surfaces; the caller decides whether the clip ships
// without metadata.
func (c *Composer) Compose(ctx context.Context, video *store.Video, clip *store.Clip) error {
	req := oracle.MetadataRequest{
		ClipText:       captionText(clip),
		Hook:           clip.Rationale,
		MinHashtags:    c.cfg.Captions.MinHashtags,
		MaxHashtags:    c.cfg.Captions.MaxHashtags,
		MaxTitleLength: c.cfg.Captions.MaxTitleLength,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		meta, err := c.oracle.GenerateMetadata(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if err := c.apply(clip, meta); err != nil {
			lastErr = err
			c.log.Debugw("metadata rejected, re-asking",
				"video_id", video.ID, "ordinal", clip.Ordinal, "error", err)
			continue
		}
		return nil
	}
	return lastErr
}

func (c *Composer) apply(clip *store.Clip, meta *oracle.Metadata) error {
	title := truncateRunes(strings.TrimSpace(meta.Title), c.cfg.Captions.MaxTitleLength)
	if title == "" {
		return fmt.Errorf("empty title")
	}

	hashtags := NormalizeHashtags(meta.Hashtags, c.cfg.Captions.MandatoryHashtags, c.cfg.Captions.MaxHashtags)
	if len(hashtags) < c.cfg.Captions.MinHashtags {
		return fmt.Errorf("got %d hashtags, need at least %d", len(hashtags), c.cfg.Captions.MinHashtags)
	}

	clip.Title = title
	clip.Hashtags = hashtags
	clip.Description = strings.TrimSpace(meta.Description)
	return nil
}

// NormalizeHashtags merges the mandatory set with generated tags into a
// deduplicated, #-prefixed list capped at max. Mandatory tags come
// first so an overflow trim never removes them.
func NormalizeHashtags(generated, mandatory []string, max int) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		tag = strings.TrimPrefix(tag, "#")
		tag = strings.Join(strings.Fields(tag), "")
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, "#"+tag)
	}
	for _, tag := range mandatory {
		add(tag)
	}
	for _, tag := range generated {
		add(tag)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func captionText(clip *store.Clip) string {
	var b strings.Builder
	for _, cue := range clip.Captions {
		if trimmed := strings.TrimSpace(cue.Text); trimmed != "" {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(trimmed)
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
