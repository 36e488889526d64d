package models

import "errors"

var (
	// ErrUnsupportedFileType rejects ingestion of anything but PDF uploads.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrEmbeddingUnavailable signals the embedding backend failed or
	// returned an unusable vector; the whole ingestion batch is rejected.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSessionNotFound signals an unknown session identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreFull signals the session store reached its configured cap.
	ErrStoreFull = errors.New("session store full")

	// ErrIndexUnavailable signals the vector index was never built or
	// cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrMalformedModelOutput signals the model response did not contain a
	// parseable JSON object.
	ErrMalformedModelOutput = errors.New("malformed model output")
)
