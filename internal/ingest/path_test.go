package ingest

import (
	"errors"
	"testing"

	"teamzones/internal/videostore"
)

func TestParseObjectPathWeekLayout(t *testing.T) {
	ref, err := ParseObjectPath("videos/2024-W10/abc123.webm", "videos/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := videostore.Ref{Layout: videostore.LayoutWeek, WeekID: "2024-W10", VideoID: "abc123"}
	if ref != want {
		t.Fatalf("ref = %+v, want %+v", ref, want)
	}
}

func TestParseObjectPathUserLayout(t *testing.T) {
	ref, err := ParseObjectPath("videos/u1/vid7/clip.webm", "videos/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := videostore.Ref{Layout: videostore.LayoutUser, UserID: "u1", VideoID: "vid7"}
	if ref != want {
		t.Fatalf("ref = %+v, want %+v", ref, want)
	}
}

func TestParseObjectPathRejectsMalformedPaths(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"no prefix", "uploads/2024-W10/abc.webm"},
		{"too few segments", "videos/abc.webm"},
		{"too many segments", "videos/a/b/c/d.webm"},
		{"empty segment", "videos//abc.webm"},
		{"extension only", "videos/2024-W10/.webm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseObjectPath(tc.path, "videos/")
			var pathErr *PathError
			if !errors.As(err, &pathErr) {
				t.Fatalf("err = %v, want *PathError", err)
			}
			if pathErr.ObjectPath != tc.path {
				t.Fatalf("PathError.ObjectPath = %q, want %q", pathErr.ObjectPath, tc.path)
			}
		})
	}
}

func TestThumbnailPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"videos/2024-W10/abc123.webm", "thumbnails/abc123.jpg"},
		{"videos/u1/vid7/clip.mov", "thumbnails/clip.jpg"},
		{"videos/2024-W10/plain", "thumbnails/plain.jpg"},
	}
	for _, tc := range cases {
		if got := ThumbnailPath(tc.in); got != tc.want {
			t.Errorf("ThumbnailPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
