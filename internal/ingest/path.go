package ingest

import (
	"fmt"
	"path"
	"strings"

	"teamzones/internal/videostore"
)

// PathError indicates a trigger object path that does not match either upload
// layout. It is permanent: the event is dropped, never retried.
type PathError struct {
	ObjectPath string
	Reason     string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("parse object path %q: %s", e.ObjectPath, e.Reason)
}

// ParseObjectPath derives the record address from an upload key.
//
// Two layouts are recognized under the upload prefix:
//
//	videos/{weekId}/{videoId}.{ext}      -> week aggregate element
//	videos/{userId}/{videoId}/{filename} -> standalone per-user document
func ParseObjectPath(objectPath, uploadPrefix string) (videostore.Ref, error) {
	if !strings.HasPrefix(objectPath, uploadPrefix) {
		return videostore.Ref{}, &PathError{ObjectPath: objectPath, Reason: "missing upload prefix " + uploadPrefix}
	}
	rest := strings.TrimPrefix(objectPath, uploadPrefix)
	segments := strings.Split(rest, "/")
	for _, segment := range segments {
		if segment == "" {
			return videostore.Ref{}, &PathError{ObjectPath: objectPath, Reason: "empty path segment"}
		}
	}

	switch len(segments) {
	case 2:
		videoID := strings.TrimSuffix(segments[1], path.Ext(segments[1]))
		if videoID == "" {
			return videostore.Ref{}, &PathError{ObjectPath: objectPath, Reason: "empty video id"}
		}
		return videostore.Ref{
			Layout:  videostore.LayoutWeek,
			WeekID:  segments[0],
			VideoID: videoID,
		}, nil
	case 3:
		return videostore.Ref{
			Layout:  videostore.LayoutUser,
			UserID:  segments[0],
			VideoID: segments[1],
		}, nil
	default:
		return videostore.Ref{}, &PathError{ObjectPath: objectPath, Reason: fmt.Sprintf("expected 2 or 3 segments after prefix, got %d", len(segments))}
	}
}

// ThumbnailPath returns the derived object path for a source upload's
// thumbnail.
func ThumbnailPath(objectPath string) string {
	base := path.Base(objectPath)
	base = strings.TrimSuffix(base, path.Ext(base))
	return "thumbnails/" + base + ".jpg"
}
