package tradovate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame_Kinds(t *testing.T) {
	tests := []struct {
		raw  string
		kind FrameKind
	}{
		{"o", FrameOpen},
		{"h", FrameHeartbeat},
		{"c", FrameClose},
		{`c[3000,"Go away!"]`, FrameUnknown},
		{"hello", FrameUnknown},
		{"open", FrameUnknown},
		{" h", FrameUnknown},
		{"", FrameUnknown},
		{"x", FrameUnknown},
		{`a{"s":200}`, FrameUnknown},
		{`a[{"s":200}`, FrameUnknown},
	}
	for _, tt := range tests {
		f, err := ParseFrame([]byte(tt.raw))
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.kind, f.Kind, tt.raw)
	}
}

func TestParseFrame_DataKeepsEveryElement(t *testing.T) {
	f, err := ParseFrame([]byte(`a[{"s":200,"i":1},{"e":"chart","d":{"charts":[]}}]`))
	require.NoError(t, err)
	assert.Equal(t, FrameData, f.Kind)
	require.Len(t, f.Messages, 2)
	assert.JSONEq(t, `{"s":200,"i":1}`, string(f.Messages[0]))
	assert.JSONEq(t, `{"e":"chart","d":{"charts":[]}}`, string(f.Messages[1]))
}

func TestParseFrame_MalformedData(t *testing.T) {
	_, err := ParseFrame([]byte(`a[{"s":]`))
	assert.Error(t, err)
}

func TestEncodeRequest(t *testing.T) {
	assert.Equal(t, "authorize\n1\n\ntok", EncodeRequest("authorize", 1, "", "tok"))
	assert.Equal(t, "md/getChart\n2\nq\n{}", EncodeRequest("md/getChart", 2, "q", "{}"))
}
