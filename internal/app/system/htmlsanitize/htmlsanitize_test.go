package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/govhub/internal/app/system/htmlsanitize"
)

func TestRichText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "进展顺利", "进展顺利"},
		{"safe markup", "<p><strong>Bold</strong> and <em>italic</em></p>", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"list", "<ul><li>Item 1</li><li>Item 2</li></ul>", "<ul><li>Item 1</li><li>Item 2</li></ul>"},
		{"script removed", "<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.RichText(tt.input); got != tt.want {
				t.Errorf("RichText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRichText_RemovesHandlers(t *testing.T) {
	got := htmlsanitize.RichText(`<a href="javascript:alert('xss')" onclick="x()">Click</a>`)
	if strings.Contains(got, "javascript:") || strings.Contains(got, "onclick") {
		t.Errorf("dangerous attributes kept: %q", got)
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"tags stripped", "<b>同意</b> 上报", "同意 上报"},
		{"entities kept readable", "Tom & Jerry's", "Tom & Jerry's"},
		{"script dropped", "<script>alert(1)</script>ok", "ok"},
		{"trimmed", "  退回修改  ", "退回修改"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPlainList(t *testing.T) {
	got := htmlsanitize.PlainList([]string{" 张三 ", "", "<i>李四</i>", "   "})
	if len(got) != 2 || got[0] != "张三" || got[1] != "李四" {
		t.Errorf("PlainList = %v", got)
	}
}
