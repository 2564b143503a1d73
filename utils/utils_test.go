package utils_test

import (
	"testing"

	"github.com/effective-security/moodlemcp/utils"
	"github.com/stretchr/testify/assert"
)

func Test_StripHTML(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		name string
		in   string
		exp  string
	}{
		{"empty", "", ""},
		{"blank", "  \n\t ", ""},
		{"plain", "  just   text \n\n here ", "just text\nhere"},
		{"paragraphs", "<p>Write an <b>essay</b></p><p>500 words</p>", "Write an essay\n500 words"},
		{"br", "line one<br>line two<br/>line three", "line one\nline two\nline three"},
		{"entities", "<p>Fish &amp; Chips&nbsp;&lt;3</p>", "Fish & Chips <3"},
		{"script", "<div>Visible<script>alert(1)</script><style>p{}</style></div>", "Visible"},
		{"list", "<ul><li>one</li><li>two</li></ul>", "one\ntwo"},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, utils.StripHTML(tc.in))
		})
	}
}

func Test_JSON(t *testing.T) {
	t.Parallel()

	val := map[string]any{"id": 1, "name": "Intro"}
	assert.Equal(t, `{"id":1,"name":"Intro"}`, utils.ToJSON(val))
	assert.Equal(t, "{\n\t\"id\": 1,\n\t\"name\": \"Intro\"\n}", utils.ToJSONIndent(val))
	assert.Equal(t, "{\n\t\"id\": 1\n}", utils.JSONIndent(`{"id":1}`))
	assert.Equal(t, "id: 1\nname: Intro\n", utils.ToYAML(val))
}
