package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"vidrag/types"
)

// VideoIndexer is the indexing pipeline seen from the transport.
type VideoIndexer interface {
	Index(ctx context.Context, videoID string) (created bool, err error)
	Drop(ctx context.Context, videoID string) error
}

// ContextRetriever turns queries into a grounding context for one video.
type ContextRetriever interface {
	Retrieve(ctx context.Context, videoID string, queries []string) (string, error)
}

// Answerer reformulates questions and generates grounded answers.
type Answerer interface {
	Reformulate(ctx context.Context, question string) []string
	GenerateAnswer(ctx context.Context, contextStr, question string) (string, error)
}

type RequestHandler struct {
	indexer   VideoIndexer
	retriever ContextRetriever
	answerer  Answerer
}

func NewRequestHandler(indexer VideoIndexer, retriever ContextRetriever, answerer Answerer) *RequestHandler {
	return &RequestHandler{
		indexer:   indexer,
		retriever: retriever,
		answerer:  answerer,
	}
}

func (h *RequestHandler) HandleIndex(c *fiber.Ctx) error {
	var params types.IndexParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	created, err := h.indexer.Index(c.UserContext(), params.VideoID)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("video %s is already indexed", params.VideoID)
	if created {
		msg = fmt.Sprintf("indexing complete for video %s", params.VideoID)
	}
	return c.JSON(types.IndexResponse{Message: msg})
}

func (h *RequestHandler) HandleQuery(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	queries := h.answerer.Reformulate(c.UserContext(), params.Question)

	contextStr, err := h.retriever.Retrieve(c.UserContext(), params.VideoID, queries)
	if err != nil {
		return err
	}

	answer, err := h.answerer.GenerateAnswer(c.UserContext(), contextStr, params.Question)
	if err != nil {
		return err
	}

	return c.JSON(types.QueryResponse{
		Question: params.Question,
		Answer:   answer,
	})
}

func (h *RequestHandler) HandleDrop(c *fiber.Ctx) error {
	videoID := c.Params("video_id")
	if videoID == "" {
		return ErrBadRequest()
	}

	if err := h.indexer.Drop(c.UserContext(), videoID); err != nil {
		return err
	}
	return c.JSON(types.IndexResponse{Message: fmt.Sprintf("index for video %s deleted", videoID)})
}
