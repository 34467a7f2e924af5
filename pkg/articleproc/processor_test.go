package articleproc

import (
	"strings"
	"testing"
)

func TestExtractProse(t *testing.T) {
	tests := []struct {
		name          string
		html          string
		wantWordCount int
		contains      []string
		notContains   []string
	}{
		{
			name: "Basic Article",
			html: `<html><body><div class="mw-parser-output">
				<p>Hello world. This is a test.</p>
				<p>Second paragraph here.</p>
				<h2><span class="mw-headline" id="References">References</span></h2>
				<div class="reflist">
					<ol class="references"><li>Ref 1</li></ol>
				</div>
				<p>This should be ignored.</p>
			</div></body></html>`,
			wantWordCount: 9,
			contains:      []string{"Hello world", "Second paragraph"},
			notContains:   []string{"This should be ignored"},
		},
		{
			name: "With Infobox and Citations",
			html: `<div class="mw-parser-output">
				<table>Infobox content</table>
				<p>The Eiffel Tower<sup>[1]</sup> is in Paris.</p>
				<p>It was built in 1889.</p>
				<style>.some-css {}</style>
				<h2><span class="mw-headline" id="History">History</span></h2>
				<p>More history.</p>
				<h2><span class="mw-headline" id="Sources">Sources</span></h2>
				<table class="navbox"><tr><td>Links</td></tr></table>
				<p>Ignored.</p>
			</div>`,
			wantWordCount: 13,
			contains:      []string{"The Eiffel Tower is in Paris", "built in 1889", "More history"},
			notContains:   []string{"Infobox", "[1]", ".some-css"},
		},
		{
			name: "Encyclopedia Entry With Sections",
			html: `<html><body><nav><p>Menu</p></nav>
				<div class="module-article-full_content">
					<section><p>Leonardo nasce nel 1452
					a Vinci.<br>Figlio di ser Piero.</p></section>
					<div><p>Muore nel 1519 ad Amboise.</p></div>
					<div class="bibliografia"><p>Vasari, Le vite.</p></div>
				</div></body></html>`,
			wantWordCount: 15,
			contains:      []string{"Leonardo nasce nel 1452 a Vinci. Figlio di ser Piero.", "Muore nel 1519 ad Amboise."},
			notContains:   []string{"Menu", "Vasari"},
		},
		{
			name:          "Empty Article",
			html:          `<div class="mw-parser-output"></div>`,
			wantWordCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ExtractProse(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("ExtractProse failed: %v", err)
			}

			if info.WordCount != tt.wantWordCount {
				t.Errorf("WordCount = %d, want %d", info.WordCount, tt.wantWordCount)
			}

			for _, c := range tt.contains {
				if !strings.Contains(info.Prose, c) {
					t.Errorf("Prose missing expected content: %q", c)
				}
			}

			for _, nc := range tt.notContains {
				if strings.Contains(info.Prose, nc) {
					t.Errorf("Prose contains unexpected content: %q", nc)
				}
			}
		})
	}
}

func TestExtractProse_OneParagraphPerLine(t *testing.T) {
	info, err := ExtractProse(strings.NewReader(`<div class="mw-parser-output"><p>Uno
due.</p><p>Tre.</p></div>`))
	if err != nil {
		t.Fatalf("ExtractProse failed: %v", err)
	}
	if info.Prose != "Uno due.\nTre." {
		t.Errorf("Prose = %q", info.Prose)
	}
	if info.Paragraphs != 2 {
		t.Errorf("Paragraphs = %d, want 2", info.Paragraphs)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Leonardo nasce nel 1452 a Vinci.\nMuore nel 1519.", "Leonardo nasce nel 1452 a Vinci.\nMuore nel 1519."},
		{"comparison signs are not markup", "1452 < 1519 > 1500", "1452 < 1519 > 1500"},
		{"html reduced", "<p>Ada was born in 1815.</p><p>She died in 1852.</p>", "Ada was born in 1815.\nShe died in 1852."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}
