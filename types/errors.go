package types

import "errors"

// Error taxonomy of the two pipelines. Handlers wrap these with %w so the
// API layer can match with errors.Is and map them to status codes without
// leaking internals.
var (
	// ErrEmptyTranscript means the transcript text was empty or whitespace only.
	ErrEmptyTranscript = errors.New("empty transcript")

	// ErrTranscriptUnavailable means the video has no usable captions in the
	// required language. Permanent for that video, retrying does not help.
	ErrTranscriptUnavailable = errors.New("transcript not available")

	// ErrIndexNotFound means a query was issued for a video that was never
	// indexed. The caller should index the video first.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexingFailed covers unexpected failures while building an index.
	ErrIndexingFailed = errors.New("indexing failed")

	// ErrGenerationFailed covers language model failures during answering.
	ErrGenerationFailed = errors.New("answer generation failed")
)
