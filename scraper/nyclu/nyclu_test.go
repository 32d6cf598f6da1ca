package nyclu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"unix", "<ul>\n<li>2011</li>\n</ul>", []string{"<ul>", "<li>2011</li>", "</ul>"}},
		{"windows", "a\r\nb", []string{"a", "b"}},
		{"old mac", "a\rb\r", []string{"a", "b", ""}},
		{"single line", "<li>2011</li>", []string{"<li>2011</li>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitLines(tt.doc)); diff != "" {
				t.Errorf("SplitLines (-want +got):\n%s", diff)
			}
		})
	}
}
