package finder_test

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/yeisme/filedock/pkg/internal/finder"
)

func TestTranslatorMatch(t *testing.T) {
	tr := finder.NewTranslator("en")

	tests := []struct {
		prefs []string
		want  language.Tag
	}{
		{nil, language.English},
		{[]string{"zh"}, language.Chinese},
		{[]string{"", "zh-CN,zh;q=0.9,en;q=0.8"}, language.Chinese},
		{[]string{"fr-FR"}, language.English},
		{[]string{"not a tag!!"}, language.English},
	}

	for _, tt := range tests {
		if got := tr.Match(tt.prefs...); got != tt.want {
			t.Errorf("Match(%q) = %s, want %s", tt.prefs, got, tt.want)
		}
	}

	if got := finder.NewTranslator("zh").Match("fr"); got != language.Chinese {
		t.Fatalf("default language = %s, want zh", got)
	}
}

func TestTranslatorTranslate(t *testing.T) {
	tr := finder.NewTranslator("en")

	got := tr.Translate(language.English, finder.ErrUploadedFileRenamed, "20261017093000123456.txt")
	want := `A file with the same name already exists. The uploaded file was renamed to "20261017093000123456.txt".`

	if got != want {
		t.Fatalf("Translate = %q", got)
	}

	if got := tr.Translate(language.English, finder.ErrorNumber(999), ""); got != "Unknown error." {
		t.Fatalf("unknown number = %q", got)
	}

	if got := tr.Translate(language.Und, finder.ErrInvalidName, ""); got != "Invalid file or folder name." {
		t.Fatalf("undetermined language = %q", got)
	}

	if got := tr.Translate(language.Chinese, finder.ErrUploadedTooBig, ""); got != "文件太大。" {
		t.Fatalf("zh = %q", got)
	}
}
