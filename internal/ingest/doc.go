// Package ingest implements the video ingestion pipeline: in response to an
// upload-finalized event it downloads the source object, extracts audio,
// thumbnail, and duration, transcribes the audio, and drives the record's
// processing status from pending through transcribing to ready or error.
//
// The pipeline is configured by stage toggles so one implementation covers
// the transcript-only and thumbnail-only trigger variants. Redelivered events
// for records already in a terminal status settle as no-ops, and all stage
// failures terminate in a best-effort error status write targeted by the
// path-derived record address.
package ingest
