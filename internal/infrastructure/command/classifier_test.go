package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/shai-agent/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.CommandIntent
	}{
		{
			name: "createFile decodes escapes",
			raw:  `createFile "a.txt" "hello\nworld"`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "a.txt", Content: "hello\nworld"},
		},
		{
			name: "createFile keeps inner quotes",
			raw:  `createFile "app.js" "console.log(\"hi\")"`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "app.js", Content: `console.log("hi")`},
		},
		{
			name: "createFile is case insensitive",
			raw:  `CREATEFILE "x" ""`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "x"},
		},
		{
			name: "echo double quoted to double quoted",
			raw:  `echo "hi" > "out file.txt"`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "out file.txt", Content: "hi"},
		},
		{
			name: "echo single quoted to single quoted",
			raw:  `echo 'hi' > 'out.txt'`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "out.txt", Content: "hi"},
		},
		{
			name: "cat double quoted to bare",
			raw:  `cat "body { margin: 0; }" > style.css`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "style.css", Content: "body { margin: 0; }"},
		},
		{
			name: "echo single quoted to bare",
			raw:  `echo 'a\tb' > t.txt`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "t.txt", Content: "a\tb"},
		},
		{
			name: "echo bare to double quoted",
			raw:  `echo hello world > "greeting.txt"`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "greeting.txt", Content: "hello world"},
		},
		{
			name: "echo bare to bare",
			raw:  `echo hello world > greeting.txt`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "greeting.txt", Content: "hello world"},
		},
		{
			name: "quoted content containing redirect resolves to quoted reading",
			raw:  `echo "a > b" > "c.txt"`,
			want: domain.CommandIntent{Kind: domain.IntentFileCreate, Path: "c.txt", Content: "a > b"},
		},
		{
			name: "mkdir double quoted",
			raw:  `mkdir "TODO App"`,
			want: domain.CommandIntent{Kind: domain.IntentDirectoryCreate, Path: "TODO App"},
		},
		{
			name: "mkdir single quoted",
			raw:  `mkdir 'my dir'`,
			want: domain.CommandIntent{Kind: domain.IntentDirectoryCreate, Path: "my dir"},
		},
		{
			name: "mkdir bare",
			raw:  `mkdir src`,
			want: domain.CommandIntent{Kind: domain.IntentDirectoryCreate, Path: "src"},
		},
		{
			name: "mkdir with flags falls through",
			raw:  `mkdir -p a/b c`,
			want: domain.CommandIntent{Kind: domain.IntentRawShell},
		},
		{name: "ls", raw: "ls", want: domain.CommandIntent{Kind: domain.IntentList}},
		{name: "dir uppercase", raw: "DIR", want: domain.CommandIntent{Kind: domain.IntentList}},
		{name: "ls with flags falls through", raw: "ls -la", want: domain.CommandIntent{Kind: domain.IntentRawShell}},
		{name: "pwd", raw: "pwd", want: domain.CommandIntent{Kind: domain.IntentPrintWorkingDirectory}},
		{
			name: "cd quoted",
			raw:  `cd "TODO App"`,
			want: domain.CommandIntent{Kind: domain.IntentChangeDirectory, Target: "TODO App"},
		},
		{
			name: "cd parent",
			raw:  `cd ..`,
			want: domain.CommandIntent{Kind: domain.IntentChangeDirectory, Target: ".."},
		},
		{
			name: "unmatched input is raw shell",
			raw:  `npm install && npm test`,
			want: domain.CommandIntent{Kind: domain.IntentRawShell},
		},
		{
			name: "leading whitespace is not trimmed",
			raw:  ` pwd`,
			want: domain.CommandIntent{Kind: domain.IntentRawShell},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.want
			want.Raw = tt.raw
			if diff := cmp.Diff(want, Classify(tt.raw)); diff != "" {
				t.Fatalf("Classify(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestDecodeEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`say \"hi\"`, `say "hi"`},
		{`it\'s`, "it's"},
		{`col\tcol`, "col\tcol"},
		{`\n\t\"\'`, "\n\t\"'"},
	}
	for _, tt := range tests {
		if got := DecodeEscapes(tt.in); got != tt.want {
			t.Errorf("DecodeEscapes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripOuterQuotes(t *testing.T) {
	tests := map[string]string{
		`"x"`: "x",
		`'x'`: "x",
		`"x`:  "x",
		`x'`:  "x",
		`x`:   "x",
		`"`:   "",
		``:    "",
	}
	for in, want := range tests {
		if got := stripOuterQuotes(in); got != want {
			t.Errorf("stripOuterQuotes(%q) = %q, want %q", in, got, want)
		}
	}
}
