package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare string", `"abc123"`, "abc123", false},
		{"populated object", `{"_id":"abc123","name":"Web"}`, "abc123", false},
		{"nested populated id", `{"_id":{"_id":"deep"}}`, "deep", false},
		{"plain id field", `{"id":"abc123"}`, "abc123", false},
		{"null", `null`, "", false},
		{"empty", ``, "", false},
		{"number", `42`, "", true},
		{"broken object", `{"_id":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractID(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefDecodesBothShapes(t *testing.T) {
	var resp Response
	raw := `{
		"_id": "r1",
		"userId": "u1",
		"questionnaireId": {"_id": "q1", "domainId": "web"},
		"mcqAnswers": [{"questionId": {"_id": "m1"}, "selectedOptionIndex": 2}],
		"textAnswers": [{"questionId": "t1", "answerText": "hi"}]
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))

	assert.Equal(t, Ref("q1"), resp.QuestionnaireID)
	assert.Equal(t, Ref("m1"), resp.MCQAnswers[0].QuestionID)
	assert.Equal(t, Ref("t1"), resp.TextAnswers[0].QuestionID)

	// once decoded a Ref marshals as the bare id
	out, err := json.Marshal(resp.MCQAnswers[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"questionId":"m1","selectedOptionIndex":2}`, string(out))
}

func TestRefList(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"selectedDomainIds":["web",{"_id":"ml"}]}`), &u))

	assert.Equal(t, []string{"web", "ml"}, u.SelectedDomainIDs.Strings())
	assert.True(t, u.SelectedDomainIDs.Contains("ml"))
	assert.False(t, u.SelectedDomainIDs.Contains("app"))
}

func TestProfileUpdateApplyTo(t *testing.T) {
	u := User{ID: "u1", Name: "Old", Branch: "ECE", SelectedDomainIDs: RefsOf([]string{"web"})}

	out := ProfileUpdate{Name: StringPtr("New")}.ApplyTo(u)
	assert.Equal(t, "New", out.Name)
	assert.Equal(t, "ECE", out.Branch)
	assert.Equal(t, []string{"web"}, out.SelectedDomainIDs.Strings())

	out.SelectedDomainIDs[0] = "changed"
	assert.Equal(t, Ref("web"), u.SelectedDomainIDs[0], "ApplyTo must not share the selection slice")
}

func TestQuestionsOrder(t *testing.T) {
	q := Questionnaire{
		MCQQuestions:  []MCQQuestion{{ID: "m1", Options: []string{"a", "b"}}},
		TextQuestions: []TextQuestion{{ID: "t1"}},
	}
	qs := q.Questions()
	require.Len(t, qs, 2)
	assert.Equal(t, QuestionMCQ, qs[0].Kind)
	assert.Equal(t, QuestionText, qs[1].Kind)
}
