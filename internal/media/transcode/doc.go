// Package transcode drives ffmpeg and ffprobe to extract the audio track,
// thumbnail frame, and duration the ingest pipeline derives from an uploaded
// video. Each operation is one blocking external-process invocation.
package transcode
