package llm

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "sql fence",
			in:   "```sql\nSELECT * FROM main_table\n```",
			want: "SELECT * FROM main_table",
		},
		{
			name: "uppercase tag",
			in:   "```SQL\nSELECT 1\n```",
			want: "SELECT 1",
		},
		{
			name: "json fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "bare fence",
			in:   "```\nSELECT 1\n```",
			want: "SELECT 1",
		},
		{
			name: "no fence",
			in:   "SELECT 1",
			want: "SELECT 1",
		},
		{
			name: "surrounding whitespace",
			in:   "  \n```sql\nSELECT 1\n```  \n",
			want: "SELECT 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v []map[string]string

	raw, ok := DecodeJSON(`[{"a":"b"}]`, &v)
	if !ok {
		t.Fatalf("expected ok for valid JSON, raw=%q", raw)
	}
	if len(v) != 1 || v[0]["a"] != "b" {
		t.Errorf("decoded = %v", v)
	}

	raw, ok = DecodeJSON("here is the JSON you asked for: []", &v)
	if ok {
		t.Fatal("expected failure for prose-wrapped JSON")
	}
	if raw != "here is the JSON you asked for: []" {
		t.Errorf("raw = %q, want original text", raw)
	}
}
