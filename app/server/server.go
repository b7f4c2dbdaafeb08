package server

import (
	"context"
	"log"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"vidrag/app/agent"
	"vidrag/app/api"
	"vidrag/config"
	"vidrag/model"
	"vidrag/pipeline"
	"vidrag/retriever"
	"vidrag/store"
	"vidrag/transcript"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
}

func NewServer(cfg config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Stop() {
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	indexStore, err := s.newStore(ctx)
	if err != nil {
		log.Fatal("error to initialize index store: ", err)
		return
	}

	var (
		embedder = model.NewOpenAIEmbedder(s.cfg)
		fetcher  = transcript.NewYouTubeFetcher(s.cfg.TranscriptLang, s.cfg.FetchTimeout)
		indexer  = pipeline.NewIndexer(fetcher, embedder, indexStore, s.cfg.ChunkLength, s.cfg.ChunkOverlap)
		retr     = retriever.New(embedder, indexStore, s.cfg.TopKPerQuery)
		answerer = agent.New(s.cfg)
	)

	var (
		app            = fiber.New(fiberConfig)
		checkHandler   = api.NewCheckHandler()
		requestHandler = api.NewRequestHandler(indexer, retr, answerer)
		check          = app.Group("/check")
		apiv1          = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)
	apiv1.Post("/index", requestHandler.HandleIndex)
	apiv1.Post("/query", requestHandler.HandleQuery)
	apiv1.Delete("/index/:video_id", requestHandler.HandleDrop)

	s.logger.Info("server starting", "addr", s.cfg.ListenAddr, "store", s.cfg.StoreKind)
	if err := app.Listen(s.cfg.ListenAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
	}
}

func (s *Server) newStore(ctx context.Context) (store.IndexStore, error) {
	if s.cfg.StoreKind == "pgvector" {
		pg, err := store.NewPostgresStore(ctx, s.cfg.PostgresURL, 1536)
		if err != nil {
			return nil, err
		}
		if err := pg.Init(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	}
	return store.NewFSStore(s.cfg.IndexRoot)
}
