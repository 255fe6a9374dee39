package utils

import "testing"

func TestExtractObjectKeyFromURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"raw object key", "biz-1/logos/logo.png", "biz-1/logos/logo.png"},
		{"path traversal rejected", "biz-1/../other/logo.png", ""},
		{"gs url", "gs://my-bucket/biz-1/logos/logo.png", "biz-1/logos/logo.png"},
		{"gcs path-style url", "https://storage.googleapis.com/my-bucket/biz-1/logos/logo.png", "biz-1/logos/logo.png"},
		{"gcs virtual-host url", "https://my-bucket.storage.googleapis.com/biz-1/logos/logo.png", "biz-1/logos/logo.png"},
		{"key query param", "https://cdn.example.com/display?key=biz-1/logos/logo.png", "biz-1/logos/logo.png"},
		{"empty", "", ""},
		{"unknown host", "https://example.com/whatever.png", ""},
	}
	for _, tc := range cases {
		if got := ExtractObjectKeyFromURL(tc.in); got != tc.want {
			t.Fatalf("%s: ExtractObjectKeyFromURL(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}
