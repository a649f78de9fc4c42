package llm

import "testing"

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON unchanged",
			input: `{"summary":"test"}`,
			want:  `{"summary":"test"}`,
		},
		{
			name:  "strips json fenced block",
			input: "```json\n{\"summary\":\"test\"}\n```",
			want:  `{"summary":"test"}`,
		},
		{
			name:  "strips plain fenced block",
			input: "```\n{\"summary\":\"test\"}\n```",
			want:  `{"summary":"test"}`,
		},
		{
			name:  "trims surrounding whitespace",
			input: "  {\"summary\":\"test\"}  ",
			want:  `{"summary":"test"}`,
		},
		{
			name:  "fenced block inside prose",
			input: "好的，结果如下：\n```json\n{\"summary\":\"test\"}\n```\n希望有帮助",
			want:  `{"summary":"test"}`,
		},
		{
			name:  "prose without fence",
			input: "Here you go: {\"summary\":\"test\"} done",
			want:  `{"summary":"test"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanJSONResponse(tt.input)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		lang  string
		want  string
	}{
		{
			name:  "sql fence",
			input: "```sql\nSELECT 1\n```",
			lang:  "sql",
			want:  "SELECT 1",
		},
		{
			name:  "bare fence with other language tag",
			input: "```postgresql\nSELECT 1\n```",
			lang:  "sql",
			want:  "SELECT 1",
		},
		{
			name:  "no fence",
			input: "  SELECT 1  ",
			lang:  "sql",
			want:  "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCodeFence(tt.input, tt.lang)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
