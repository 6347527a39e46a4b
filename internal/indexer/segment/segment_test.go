package segment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/descriptor"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

func TestUnwrapJSWrapper(t *testing.T) {
	blob, err := ReadFile(filepath.Join("testdata", "search-index.js"))
	require.NoError(t, err)
	assert.Equal(t, FormatJS, blob.Format)
	assert.False(t, blob.CreatedAt.IsZero())

	idx, err := descriptor.Decode(blob.Payload)
	require.NoError(t, err)
	assert.Len(t, idx.Items, 34)
	assert.Equal(t, "os", idx.Crates[0].Name)
}

func TestUnwrapFormatsAgreeOnVersion(t *testing.T) {
	js, err := ReadFile(filepath.Join("testdata", "search-index.js"))
	require.NoError(t, err)

	raw, err := Unwrap(append([]byte("\n  "), js.Payload...))
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, raw.Format)
	assert.Equal(t, js.Version, raw.Version)

	packed, err := Unwrap(Pack(js.Payload, 1, 34, time.Unix(1700000000, 0)))
	require.NoError(t, err)
	assert.Equal(t, FormatContainer, packed.Format)
	assert.Equal(t, js.Version, packed.Version)
	assert.Equal(t, js.Payload, packed.Payload)
	assert.Equal(t, int64(1700000000), packed.CreatedAt.Unix())
}

func TestUnwrapRejectsCorruption(t *testing.T) {
	payload := []byte(`{"c":{}}`)
	good := Pack(payload, 1, 0, time.Now())

	flipped := append([]byte(nil), good...)
	flipped[len(flipped)-2] ^= 0xff
	truncated := good[:len(good)-1]
	badVersion := append([]byte(nil), good...)
	badVersion[4] = 9

	for name, data := range map[string][]byte{
		"checksum":     flipped,
		"truncated":    truncated,
		"version":      badVersion,
		"no literal":   []byte("var x = 1;"),
		"unterminated": []byte("var searchIndex = JSON.parse('{\"a\":1}"),
		"bad escape":   []byte("var searchIndex = JSON.parse('\\u12');"),
	} {
		_, err := Unwrap(data)
		assert.ErrorIs(t, err, apperrors.ErrCorruptIndex, name)
	}
}

func TestUnescapeJS(t *testing.T) {
	got, err := unescapeJS([]byte(`{\` + "\n" + `"a":"it\'s é\x41\\"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":"it's éA\"}`, string(got))
}

func TestWriterAndLatest(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	none, err := Latest(dir)
	require.NoError(t, err)
	assert.Empty(t, none)

	first, err := w.Write([]byte(`{"a":{}}`), 1, 0)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := w.Write([]byte(`{"b":{}}`), 1, 0)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	blob, err := ReadFile(latest)
	require.NoError(t, err)
	assert.Equal(t, `{"b":{}}`, string(blob.Payload))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}

	_, err = w.Write(nil, 0, 0)
	assert.Error(t, err)
}
