package respond

import "testing"

func TestRedactPath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "token path",
			in:   "/api/v1/applications/token/0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			want: "/api/v1/applications/token/[redacted]",
		},
		{
			name: "token path with suffix",
			in:   "/api/v1/applications/token/deadbeef/documents",
			want: "/api/v1/applications/token/[redacted]/documents",
		},
		{
			name: "id path untouched",
			in:   "/api/v1/applications/7d3e1f9a",
			want: "/api/v1/applications/7d3e1f9a",
		},
		{
			name: "health untouched",
			in:   "/api/v1/health",
			want: "/api/v1/health",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RedactPath(tc.in); got != tc.want {
				t.Fatalf("RedactPath(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
