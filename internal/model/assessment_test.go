package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func refsOf(t *testing.T, structure string) []SectionRef {
	t.Helper()
	a := &Assessment{Structure: json.RawMessage(structure)}
	return a.SectionRefs()
}

func TestSectionRefsNumericEntries(t *testing.T) {
	refs := refsOf(t, `{"sections": [3, 1, 7]}`)
	if len(refs) != 3 {
		t.Fatalf("got %d refs, want 3", len(refs))
	}
	for i, want := range []int64{3, 1, 7} {
		if refs[i].ID != want {
			t.Errorf("refs[%d].ID = %d, want %d", i, refs[i].ID, want)
		}
	}
}

func TestSectionRefsStringEntries(t *testing.T) {
	refs := refsOf(t, `{"sections": ["42", "Aptitude"]}`)
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	if refs[0].ID != 42 || refs[0].Name != "" {
		t.Errorf("numeric string parsed as %+v, want ID 42", refs[0])
	}
	if refs[1].Name != "Aptitude" || refs[1].ID != 0 {
		t.Errorf("name string parsed as %+v, want Name Aptitude", refs[1])
	}
}

func TestSectionRefsObjectEntries(t *testing.T) {
	refs := refsOf(t, `{"sections": [
		{"sectionId": 1},
		{"section_id": 2},
		{"id": 3},
		{"name": "Coding"},
		{"code": "APT-01"}
	]}`)
	if len(refs) != 5 {
		t.Fatalf("got %d refs, want 5", len(refs))
	}
	for i, want := range []int64{1, 2, 3} {
		if refs[i].ID != want {
			t.Errorf("refs[%d].ID = %d, want %d", i, refs[i].ID, want)
		}
	}
	if refs[3].Name != "Coding" {
		t.Errorf("refs[3].Name = %q, want Coding", refs[3].Name)
	}
	if refs[4].Name != "APT-01" {
		t.Errorf("refs[4].Name = %q, want APT-01", refs[4].Name)
	}
}

func TestSectionRefsSkipsMalformedEntries(t *testing.T) {
	refs := refsOf(t, `{"sections": [1, "", {}, true, 2]}`)
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	if refs[0].ID != 1 || refs[1].ID != 2 {
		t.Fatalf("refs = %+v, want IDs 1 and 2", refs)
	}
}

func TestSectionRefsEmptyOrInvalidStructure(t *testing.T) {
	cases := map[string]string{
		"empty structure":  ``,
		"not json":         `{{{`,
		"missing sections": `{}`,
		"empty list":       `{"sections": []}`,
	}
	for name, structure := range cases {
		if refs := refsOf(t, structure); len(refs) != 0 {
			t.Errorf("%s: got %d refs, want 0", name, len(refs))
		}
	}
}

func TestForCandidateStripsGradingData(t *testing.T) {
	q := &Question{
		ID:           5,
		SectionID:    10,
		QuestionText: "pick one",
		Type:         QuestionTypeMCQ,
		Points:       2,
		MCQOptions: []MCQOption{
			{ID: 1, OptionText: "right", IsCorrect: true},
			{ID: 2, OptionText: "wrong"},
		},
		TestCases: []TestCase{
			{ID: 1, Input: "1", ExpectedOutput: "1", Hidden: false},
			{ID: 2, Input: "2", ExpectedOutput: "2", Hidden: true},
		},
	}

	cq := q.ForCandidate()
	if len(cq.MCQOptions) != 2 {
		t.Fatalf("options = %d, want 2", len(cq.MCQOptions))
	}
	raw, err := json.Marshal(cq)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "is_correct") {
		t.Fatal("candidate view leaked is_correct")
	}
	if len(cq.SampleTestCases) != 1 || cq.SampleTestCases[0].Hidden {
		t.Fatalf("sample test cases = %+v, want only the visible one", cq.SampleTestCases)
	}
}
