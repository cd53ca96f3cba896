package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestT(t *testing.T) {
	cases := []struct {
		name string
		lang string
		key  string
		want string
	}{
		{"serbian", LangSR, "QuizCreated", "Kviz je uspešno kreiran."},
		{"english", LangEN, "QuizCreated", "Quiz created successfully."},
		{"empty language defaults to serbian", "", "Forbidden", "Nemate dozvolu za ovu akciju."},
		{"unsupported language defaults to serbian", "de", "Forbidden", "Nemate dozvolu za ovu akciju."},
		{"unknown key returned as is", LangEN, "NoSuchKey", "NoSuchKey"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, T(tc.lang, tc.key))
		})
	}
}

func TestAllMessagesHaveBothLanguages(t *testing.T) {
	for key, msg := range messages {
		assert.NotEmpty(t, msg.sr, "missing sr translation for %s", key)
		assert.NotEmpty(t, msg.en, "missing en translation for %s", key)
	}
}
