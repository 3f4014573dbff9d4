package oracle

import (
	"fmt"
	"strings"
)

const defaultIntent = "Find the most engaging and viral moments"

// buildSelectionPrompt renders the clip-scoring prompt: the full
// timestamped transcript plus the selection constraints.
func buildSelectionPrompt(req SelectionRequest) string {
	var transcript strings.Builder
	for _, seg := range req.Segments {
		fmt.Fprintf(&transcript, "[%.1fs - %.1fs] %s\n", seg.Start, seg.End, seg.Text)
	}

	intent := strings.TrimSpace(req.Intent)
	if intent == "" {
		intent = defaultIntent
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are a viral short-form video expert for YouTube Shorts, TikTok, and Instagram Reels.

Your task is to identify up to %d non-overlapping segments (%.0f-%.0f seconds each) that have the highest viral potential.

IMPORTANT: The segments must NOT overlap. Each segment must be completely separate from the others.

Focus on:
- Emotional spikes (surprise, shock, excitement)
- Strong hooks (attention-grabbing openings)
- Curiosity gaps (makes viewers want to know more)
- Controversial or surprising moments
- High engagement moments (statements that prompt comments)

Each segment must be:
- Between %.0f and %.0f seconds
- Self-contained (makes sense on its own)
- Has a clear hook or emotional peak
- Must NOT overlap with other segments

Return a JSON object with a "segments" array:
{
  "segments": [
    {
      "start": 120.5,
      "end": 155.0,
      "hook": "Unexpected revelation about the topic",
      "confidence": 0.92
    }
  ]
}

Do not include any other text, only the JSON object.

`, req.MaxClips, req.MinDuration, req.MaxDuration, req.MinDuration, req.MaxDuration)

	fmt.Fprintf(&b, `Video transcript (duration: %.1fs):

%s
User request: %s

Spread the segments across the entire video duration if possible and focus on the most engaging moments.`,
		req.Duration, transcript.String(), intent)

	return b.String()
}

// buildMetadataPrompt renders the title/hashtag/description prompt for
// one rendered clip.
func buildMetadataPrompt(req MetadataRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a viral content expert for YouTube Shorts, TikTok, and Instagram Reels.

Generate engaging titles and hashtags that:
- Maximize curiosity and click-through rate
- Encourage comments and engagement
- Are honest (not clickbait lies)
- Optimize for retention
- Are suitable for English-speaking audiences

Title requirements:
- Maximum %d characters
- Attention-grabbing hook
- Creates curiosity gap
- Makes viewers want to watch

Hashtags requirements:
- %d-%d hashtags
- Mix of broad and niche tags
- Trending when possible
- Platform-appropriate

`, req.MaxTitleLength, req.MinHashtags, req.MaxHashtags)

	fmt.Fprintf(&b, `Clip content:
%s

Hook reason: %s

Generate:
1. A viral title (max %d chars)
2. %d-%d hashtags
3. A short description (2-3 sentences)

Return JSON format:
{
  "title": "...",
  "hashtags": ["#tag1", "#tag2"],
  "description": "..."
}`, req.ClipText, req.Hook, req.MaxTitleLength, req.MinHashtags, req.MaxHashtags)

	return b.String()
}
