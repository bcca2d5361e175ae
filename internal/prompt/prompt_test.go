package prompt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "iq-bot/internal/common/errors"
)

const testTemplateID = "6f1c2a9e-3b4d-4c5e-8f70-1a2b3c4d5e6f"

func mustJSONObject(t *testing.T, raw string) *Object {
	t.Helper()
	o := NewObject()
	require.NoError(t, json.Unmarshal([]byte(raw), o))
	return o
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"cache key", "iq:prompt-response:{id}:{team}", []string{"id", "team"}},
		{"duplicates collapse", "{a} vs {b} and {a}", []string{"a", "b"}},
		{"no markers", "plain text", nil},
		{"empty braces ignored", "{} {x}", []string{"x"}},
		{"nested braces", "{{a}}", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Placeholders(tt.in))
		})
	}
}

func TestResolveDirectMatch(t *testing.T) {
	params := ObjectOf("team", "Eagles")

	v, ok := Resolve("team", params)
	require.True(t, ok)
	assert.Equal(t, "Eagles", v.String())
}

func TestResolveUnwrapsSameNamedField(t *testing.T) {
	params := mustJSONObject(t, `{"team": {"team": "Eagles", "id": "T1"}}`)

	v, path, ok := ResolvePath("team", params)
	require.True(t, ok)
	assert.Equal(t, "Eagles", v.String())
	assert.Equal(t, "team.team", path)
}

func TestResolveStructuredWithoutSameNamedField(t *testing.T) {
	params := mustJSONObject(t, `{"team": {"id": "T1", "name": "Eagles"}}`)

	v, ok := Resolve("team", params)
	require.True(t, ok)
	assert.Equal(t, KindStructured, v.Kind())
	assert.Equal(t, `{"id":"T1","name":"Eagles"}`, v.String())
}

func TestResolveNested(t *testing.T) {
	params := mustJSONObject(t, `{"match": {"home_team": {"name": "Eagles"}}}`)

	v, path, ok := ResolvePath("name", params)
	require.True(t, ok)
	assert.Equal(t, "Eagles", v.String())
	assert.Equal(t, "match.home_team.name", path)
}

func TestResolveInsideListItems(t *testing.T) {
	params := mustJSONObject(t, `{"tags": ["x", "y"], "players": [{"id": 1}, {"name": "Ann"}]}`)

	v, path, ok := ResolvePath("name", params)
	require.True(t, ok)
	assert.Equal(t, "Ann", v.String())
	assert.Equal(t, "players[1].name", path)
}

func TestResolveFirstBranchWins(t *testing.T) {
	params := mustJSONObject(t, `{"a": {"name": "first"}, "b": {"name": "second"}}`)

	v, ok := Resolve("name", params)
	require.True(t, ok)
	assert.Equal(t, "first", v.String())
}

func TestResolveMissing(t *testing.T) {
	params := mustJSONObject(t, `{"a": {"b": 1}, "list": [1, 2]}`)

	_, ok := Resolve("c", params)
	assert.False(t, ok)

	_, ok = Resolve("x", nil)
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	t.Run("substitutes resolved values", func(t *testing.T) {
		params := mustJSONObject(t, `{"team": {"team": "Eagles"}, "season": 2024, "match": {"venue": {"city": "Leeds"}}}`)

		out, err := Format("{team} in {season} at {city}", params)
		require.NoError(t, err)
		assert.Equal(t, "Eagles in 2024 at Leeds", out)
	})

	t.Run("fails naming the missing parameter", func(t *testing.T) {
		params := ObjectOf("team", "Eagles")

		_, err := Format("How did {team} do against {compared_team}?", params)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTemplateParameterMissing))
		assert.Contains(t, err.Error(), "compared_team")
	})

	t.Run("reports the first missing name in appearance order", func(t *testing.T) {
		_, err := Format("{b} {a}", NewObject())
		require.Error(t, err)
		stdErr, ok := apperrors.AsStandard(err)
		require.True(t, ok)
		assert.Equal(t, "b", stdErr.Metadata["parameter"])
	})

	t.Run("formatted cache keys carry no placeholders", func(t *testing.T) {
		params := ObjectOf("id", "p1", "team", "T1", "season", 2024)

		out, err := Format("iq:prompt-response:{id}:{team}:{season}", params)
		require.NoError(t, err)
		assert.Equal(t, "iq:prompt-response:p1:T1:2024", out)
		assert.Empty(t, Placeholders(out))
	})

	t.Run("substituted values are not expanded again", func(t *testing.T) {
		params := ObjectOf("team", "{season}", "season", 2024)

		out, err := Format("{team}", params)
		require.NoError(t, err)
		assert.Equal(t, "{season}", out)
	})

	t.Run("text without markers is unchanged", func(t *testing.T) {
		out, err := Format("static", nil)
		require.NoError(t, err)
		assert.Equal(t, "static", out)
	})
}

func TestValidate(t *testing.T) {
	params := ObjectOf("team", "Eagles")

	ok, missing := Validate("{team} {season} {venue}", params)
	assert.False(t, ok)
	assert.Equal(t, []string{"season", "venue"}, missing)

	ok, missing = Validate("{team}", params)
	assert.True(t, ok)
	assert.Empty(t, missing)
}

func TestPrefixedAndFlatten(t *testing.T) {
	params := mustJSONObject(t, `{"team": {"id": "T1", "name": "Eagles"}, "season": "2024"}`)

	assert.Equal(t, []string{"fteam", "fseason"}, Prefixed(params, "f").Keys())
	assert.Equal(t, []string{"team_id", "team_name", "season"}, Flatten(params).Keys())
}

func TestCombinations(t *testing.T) {
	t.Run("first source varies slowest", func(t *testing.T) {
		combos := Combinations([]Source{
			{Name: "a", Values: []Value{String("a1"), String("a2")}},
			{Name: "b", Values: []Value{String("b1"), String("b2")}},
		})

		require.Len(t, combos, 4)
		var got [][2]string
		for _, c := range combos {
			a, _ := c.Get("a")
			b, _ := c.Get("b")
			got = append(got, [2]string{a.String(), b.String()})
		}
		assert.Equal(t, [][2]string{{"a1", "b1"}, {"a1", "b2"}, {"a2", "b1"}, {"a2", "b2"}}, got)
	})

	t.Run("no sources yields one empty combination", func(t *testing.T) {
		combos := Combinations(nil)
		require.Len(t, combos, 1)
		assert.Equal(t, 0, combos[0].Len())
	})

	t.Run("empty candidate list yields nothing", func(t *testing.T) {
		combos := Combinations([]Source{
			{Name: "a", Values: []Value{String("a1")}},
			{Name: "b", Values: nil},
		})
		assert.Empty(t, combos)
	})

	t.Run("size is the product of list sizes", func(t *testing.T) {
		combos := Combinations([]Source{
			{Name: "a", Values: []Value{String("1"), String("2"), String("3")}},
			{Name: "b", Values: []Value{String("1"), String("2")}},
			{Name: "c", Values: []Value{String("1"), String("2")}},
		})
		assert.Len(t, combos, 12)
	})
}

func TestDeriveID(t *testing.T) {
	teamA := Structured(ObjectOf("id", "T1", "name", "Eagles"))
	teamB := Structured(ObjectOf("id", "T2", "name", "Hawks"))

	t.Run("known value", func(t *testing.T) {
		id, err := DeriveID(testTemplateID, []Value{teamA, teamB})
		require.NoError(t, err)
		assert.Equal(t, "272888ea-9c2d-5f0c-b707-08af1a29a0ae", id)
	})

	t.Run("order independent", func(t *testing.T) {
		first, err := DeriveID(testTemplateID, []Value{teamA, teamB})
		require.NoError(t, err)
		second, err := DeriveID(testTemplateID, []Value{teamB, teamA})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("scalars contribute their text", func(t *testing.T) {
		id, err := DeriveIDFromObject(testTemplateID, ObjectOf("player", "P1", "team", teamA))
		require.NoError(t, err)
		assert.Equal(t, "1c57ab91-eab0-5b56-aeb8-db40adc94538", id)
	})

	t.Run("no values uses the default name", func(t *testing.T) {
		id, err := DeriveID(testTemplateID, nil)
		require.NoError(t, err)
		assert.Equal(t, "8922b543-7190-5749-b9dc-8866ef6c46d9", id)
	})

	t.Run("spaces are not trimmed", func(t *testing.T) {
		plain, err := DeriveID(testTemplateID, []Value{String("T1")})
		require.NoError(t, err)
		spaced, err := DeriveID(testTemplateID, []Value{String(" T1")})
		require.NoError(t, err)
		assert.NotEqual(t, plain, spaced)
	})

	t.Run("invalid template id is a configuration error", func(t *testing.T) {
		_, err := DeriveID("not-a-uuid", []Value{teamA})
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConfiguration))
	})
}

func TestObjectJSONKeepsOrder(t *testing.T) {
	raw := `{"zeta":1,"alpha":{"b":true,"a":null},"list":[{"y":"1"},"x",2.5]}`
	o := mustJSONObject(t, raw)

	assert.Equal(t, []string{"zeta", "alpha", "list"}, o.Keys())

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(data))
	assert.Equal(t, raw, string(data))
}

func TestObjectYAMLKeepsOrder(t *testing.T) {
	src := "zeta: 1\nalpha:\n  name: Eagles\n  id: T1\nitems:\n  - a\n  - b\n"

	var o Object
	require.NoError(t, yaml.Unmarshal([]byte(src), &o))

	assert.Equal(t, []string{"zeta", "alpha", "items"}, o.Keys())
	alpha, _ := o.Get("alpha")
	assert.Equal(t, []string{"name", "id"}, alpha.Object().Keys())
	zeta, _ := o.Get("zeta")
	assert.Equal(t, "1", zeta.String())
	items, _ := o.Get("items")
	assert.Len(t, items.List(), 2)
}

func TestValueRendering(t *testing.T) {
	assert.Equal(t, "", Scalar(nil).String())
	assert.True(t, Value{}.IsNull())
	assert.Equal(t, "true", Scalar(true).String())
	assert.Equal(t, "3.5", Scalar(3.5).String())
	assert.Equal(t, "42", Scalar(42).String())
	assert.Equal(t, `["a",1]`, FromAny([]any{"a", 1}).String())
	assert.Equal(t, "T1", Structured(ObjectOf("id", "T1")).Identity())
	assert.Equal(t, `{"name":"x"}`, Structured(ObjectOf("name", "x")).Identity())
}

func TestFromAnySortsMapKeys(t *testing.T) {
	v := FromAny(map[string]any{"b": 1, "a": 2})
	assert.Equal(t, []string{"a", "b"}, v.Object().Keys())
}

func TestObjectCloneIsDeep(t *testing.T) {
	o := mustJSONObject(t, `{"team": {"id": "T1"}}`)
	c := o.Clone()

	team, _ := c.Get("team")
	team.Object().Set("id", String("T9"))

	orig, _ := o.Get("team")
	id, _ := orig.Object().Get("id")
	assert.Equal(t, "T1", id.String())
}
