// Package embed derives per-lesson text embeddings for accepted courses and
// writes them to the embeddings side store keyed by video_id. It only ever
// reads Course records; it never mutates them.
package embed

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"

	"coursespider/internal/models"
	"coursespider/shared/config"

	"google.golang.org/genai"
)

// SideStore is the embedding sink, implemented by the SQLite mirror.
type SideStore interface {
	SaveEmbedding(videoID, model string, vector []byte) error
	HasEmbedding(videoID string) (bool, error)
}

type Embedder struct {
	client *genai.Client
	model  string
	store  SideStore
}

func NewEmbedder(ctx context.Context, cfg *config.EmbeddingsConfig, store SideStore) (*Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  cfg.Model,
		store:  store,
	}, nil
}

// EmbedCourse embeds every lesson of a course that does not yet have a
// stored vector. Per-lesson failures are logged and skipped so one bad
// lesson never blocks the rest.
func (e *Embedder) EmbedCourse(ctx context.Context, course *models.Course) error {
	embedded := 0
	for _, lesson := range course.Lessons {
		done, err := e.store.HasEmbedding(lesson.VideoID)
		if err != nil {
			return fmt.Errorf("failed to check embedding for %s: %w", lesson.VideoID, err)
		}
		if done {
			continue
		}

		text := lesson.Title
		if lesson.Description != "" {
			text += "\n" + lesson.Description
		}

		vector, err := e.embedText(ctx, text)
		if err != nil {
			log.Printf("Warning: failed to embed lesson %s (%s): %v", lesson.VideoID, lesson.Title, err)
			continue
		}
		if err := e.store.SaveEmbedding(lesson.VideoID, e.model, encodeVector(vector)); err != nil {
			return err
		}
		embedded++
	}

	if embedded > 0 {
		log.Printf("Embedded %d lessons for course %s", embedded, course.YoutubeID)
	}
	return nil
}

func (e *Embedder) embedText(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, err
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return result.Embeddings[0].Values, nil
}

// encodeVector packs float32s little-endian for BLOB storage.
func encodeVector(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
