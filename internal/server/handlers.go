package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"clipline/internal/store"
)

var validate = validator.New()

// ImportRequest is the body of POST /api/videos.
type ImportRequest struct {
	SourceURL    string `json:"source_url" validate:"required,url"`
	IntentPrompt string `json:"intent_prompt"`
}

func (s *Server) importVideo(c *fiber.Ctx) error {
	payload := new(ImportRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error", "message": fmt.Sprintf("invalid request body: %v", err),
		})
	}
	if err := validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error", "message": fmt.Sprintf("validation failed: %v", err),
		})
	}

	id := store.VideoIDFromURL(payload.SourceURL)
	video, created, err := s.st.CreateVideo(c.Context(), id, strings.TrimSpace(payload.SourceURL), strings.TrimSpace(payload.IntentPrompt))
	if err != nil {
		s.log.Errorw("import failed", "url", payload.SourceURL, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "failed to record video",
		})
	}

	status := fiber.StatusAccepted
	if !created {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   "ok",
		"video_id": video.ID,
		"created":  created,
	})
}

func (s *Server) getVideo(c *fiber.Ctx) error {
	video, err := s.st.GetVideo(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "lookup failed",
		})
	}
	if video == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error", "message": "video not found",
		})
	}
	return c.JSON(videoResponse(video))
}

func videoResponse(v *store.Video) fiber.Map {
	resp := fiber.Map{
		"status": "ok",
		"video": fiber.Map{
			"id":               v.ID,
			"source_url":       v.SourceURL,
			"intent_prompt":    v.IntentPrompt,
			"duration_seconds": v.DurationSeconds,
			"state":            string(v.Status),
			"stages":           stageFlags(v.Status),
			"created_at":       v.CreatedAt,
			"updated_at":       v.UpdatedAt,
		},
	}
	if v.Status == store.StatusFailed {
		resp["video"].(fiber.Map)["failed_stage"] = v.FailedStage
		resp["video"].(fiber.Map)["error"] = v.ErrorMessage
	}
	return resp
}

// stageFlags reports which pipeline stages have durably completed for a
// status.
func stageFlags(status store.Status) fiber.Map {
	rank := map[store.Status]int{
		store.StatusQueued:       0,
		store.StatusDownloading:  0,
		store.StatusDownloaded:   1,
		store.StatusTranscribing: 1,
		store.StatusTranscribed:  2,
		store.StatusSelecting:    2,
		store.StatusExtracting:   2,
		store.StatusDone:         3,
		store.StatusFailed:       -1,
	}
	r := rank[status]
	return fiber.Map{
		"downloaded":  r >= 1,
		"transcribed": r >= 2,
		"extracted":   r >= 3,
	}
}

// processVideo re-queues a settled video: a finished one re-runs
// selection and extraction, a failed one restarts from the top. Videos
// mid-flight are left alone.
func (s *Server) processVideo(c *fiber.Ctx) error {
	id := c.Params("id")
	video, err := s.st.GetVideo(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "lookup failed",
		})
	}
	if video == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error", "message": "video not found",
		})
	}

	switch video.Status {
	case store.StatusDone:
		err = s.st.Transition(c.Context(), id, store.StatusDone, store.StatusTranscribed)
	case store.StatusFailed:
		video.Status = store.StatusQueued
		video.FailedStage = ""
		video.ErrorMessage = ""
		err = s.st.UpdateVideo(c.Context(), video)
	default:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status": "error", "message": fmt.Sprintf("video is %s, nothing to re-run", video.Status),
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "re-queue failed",
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "ok"})
}

func (s *Server) cancelVideo(c *fiber.Ctx) error {
	id := c.Params("id")
	video, err := s.st.GetVideo(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "lookup failed",
		})
	}
	if video == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error", "message": "video not found",
		})
	}

	if s.canceller != nil && s.canceller.Cancel(id) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "ok"})
	}

	// Not actively processing: a queued video can still be withdrawn.
	if !video.Status.IsTerminal() {
		if err := s.st.MarkFailed(c.Context(), id, string(video.Status), store.CancelledReason); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"status": "error", "message": "cancel failed",
			})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "ok"})
	}
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"status": "error", "message": fmt.Sprintf("video is already %s", video.Status),
	})
}

func (s *Server) listClips(c *fiber.Ctx) error {
	id := c.Params("id")
	video, err := s.st.GetVideo(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "lookup failed",
		})
	}
	if video == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error", "message": "video not found",
		})
	}

	clips, err := s.st.ListClips(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "error", "message": "clip lookup failed",
		})
	}

	out := make([]fiber.Map, 0, len(clips))
	for _, clip := range clips {
		available := false
		filename := ""
		if clip.Rendered && clip.OutputPath != "" {
			filename = filepath.Base(clip.OutputPath)
			if _, statErr := os.Stat(clip.OutputPath); statErr == nil {
				available = true
			}
		}
		out = append(out, fiber.Map{
			"ordinal":     clip.Ordinal,
			"start":       clip.Start,
			"end":         clip.End,
			"score":       clip.Score,
			"rationale":   clip.Rationale,
			"title":       clip.Title,
			"hashtags":    clip.Hashtags,
			"description": clip.Description,
			"filename":    filename,
			"available":   available,
			"error":       clip.ErrorMessage,
		})
	}
	return c.JSON(fiber.Map{"status": "ok", "clips": out})
}

func (s *Server) getClipFile(c *fiber.Ctx) error {
	id := c.Params("id")
	filename := c.Params("filename")

	// Only bare filenames inside the video's clip directory are
	// servable.
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error", "message": "invalid filename",
		})
	}

	path := filepath.Join(s.cfg.ClipsDir(id), filename)
	if _, err := os.Stat(path); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status": "error", "message": "clip file not found",
		})
	}
	return c.SendFile(path)
}
