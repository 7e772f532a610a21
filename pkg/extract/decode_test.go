package extract_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/pkg/extract"
)

type sample struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Ratio   float64  `json:"ratio"`
	Enabled bool     `json:"enabled"`
	Tags    []string `json:"tags"`
}

var sampleSchema = extract.Schema{
	Name: "sample",
	Fields: []extract.Field{
		{Name: "name", Kind: extract.KindString, Required: true},
		{Name: "count", Kind: extract.KindInteger, Required: true},
		{Name: "ratio", Kind: extract.KindNumber, Default: 0.5},
		{Name: "enabled", Kind: extract.KindBool, Default: true},
		{Name: "tags", Kind: extract.KindArray, Default: []string{}},
	},
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       string
		want      sample
		wantErr   error
		wantField string
		wantKind  extract.Kind
	}{
		{
			name: "all fields present",
			raw:  `{"name":"a","count":2,"ratio":0.9,"enabled":false,"tags":["x"]}`,
			want: sample{Name: "a", Count: 2, Ratio: 0.9, Enabled: false, Tags: []string{"x"}},
		},
		{
			name: "optional fields take defaults",
			raw:  `{"name":"a","count":1}`,
			want: sample{Name: "a", Count: 1, Ratio: 0.5, Enabled: true, Tags: []string{}},
		},
		{
			name: "null optional field takes default",
			raw:  `{"name":"a","count":1,"ratio":null}`,
			want: sample{Name: "a", Count: 1, Ratio: 0.5, Enabled: true, Tags: []string{}},
		},
		{
			name: "unknown fields are ignored",
			raw:  `{"name":"a","count":1,"extra":{"deep":true}}`,
			want: sample{Name: "a", Count: 1, Ratio: 0.5, Enabled: true, Tags: []string{}},
		},
		{
			name:    "syntax error is malformed",
			raw:     `{"name": "a",`,
			wantErr: extract.ErrMalformed,
		},
		{
			name:      "missing required field",
			raw:       `{"count":1}`,
			wantErr:   extract.ErrSchemaMismatch,
			wantField: "name",
			wantKind:  extract.KindString,
		},
		{
			name:      "wrong kind for required field",
			raw:       `{"name":"a","count":"many"}`,
			wantErr:   extract.ErrSchemaMismatch,
			wantField: "count",
			wantKind:  extract.KindInteger,
		},
		{
			name:      "fractional integer",
			raw:       `{"name":"a","count":1.5}`,
			wantErr:   extract.ErrSchemaMismatch,
			wantField: "count",
			wantKind:  extract.KindInteger,
		},
		{
			name:      "wrong kind for optional field",
			raw:       `{"name":"a","count":1,"tags":"x"}`,
			wantErr:   extract.ErrSchemaMismatch,
			wantField: "tags",
			wantKind:  extract.KindArray,
		},
		{
			name:     "document is not an object",
			raw:      `[1,2]`,
			wantErr:  extract.ErrSchemaMismatch,
			wantKind: extract.KindObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := extract.Decode[sample](tt.raw, sampleSchema)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				var decErr *extract.DecodeError
				require.ErrorAs(t, err, &decErr)
				assert.Equal(t, tt.raw, decErr.Raw)
				assert.Equal(t, tt.wantField, decErr.Field)
				if tt.wantKind != "" {
					assert.Equal(t, tt.wantKind, decErr.Expected)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_MalformedKeepsMessage(t *testing.T) {
	t.Parallel()

	_, err := extract.Decode[sample](`not json`, sampleSchema)
	require.Error(t, err)

	var decErr *extract.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.NotEmpty(t, decErr.Msg)
	assert.Contains(t, err.Error(), "decoding sample")
}

func TestDecode_TypeErrorFromTarget(t *testing.T) {
	t.Parallel()

	// The schema does not declare "count" so the mismatch comes from the
	// target struct instead.
	s := extract.Schema{Name: "loose"}
	_, err := extract.Decode[sample](`{"count":"x"}`, s)
	require.ErrorIs(t, err, extract.ErrSchemaMismatch)

	var decErr *extract.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "count", decErr.Field)
	assert.Equal(t, extract.KindInteger, decErr.Expected)
}

func TestDecode_Idempotent(t *testing.T) {
	t.Parallel()

	text := "Sure!\n```json\n{\"name\":\"idem\",\"count\":3,\"tags\":[\"a\",\"b\"]}\n```"

	first, err := extract.ExtractAndDecode[sample](text, sampleSchema)
	require.NoError(t, err)

	second, err := extract.ExtractAndDecode[sample](text, sampleSchema)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Re-decoding the decoded value yields the same value.
	encoded, err := json.Marshal(first)
	require.NoError(t, err)

	again, err := extract.Decode[sample](string(encoded), sampleSchema)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestExtractAndDecode_NoJSON(t *testing.T) {
	t.Parallel()

	_, err := extract.ExtractAndDecode[sample]("nothing structured", sampleSchema)
	require.ErrorIs(t, err, extract.ErrNoJSONFound)
	assert.Contains(t, err.Error(), "extracting sample")
}
