package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fiore/internal/encoding"
)

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "Descrizione;Importo\nCaffè;12,50\nFattura n° 3;-3,00\n"
	r, err := encoding.NewUTF8Reader(bytes.NewReader([]byte(input)), "")
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestNewUTF8Reader_Latin1Fallback(t *testing.T) {
	// Windows-1252 "Caffè;Città\n": è = 0xE8, à = 0xE0
	latin1 := []byte{'C', 'a', 'f', 'f', 0xE8, ';', 'C', 'i', 't', 't', 0xE0, '\n'}

	got, err := encoding.ToUTF8(latin1, "")
	require.NoError(t, err)
	assert.Equal(t, "Caffè;Città\n", string(got))
}

func TestNewUTF8Reader_DeclaredCharset(t *testing.T) {
	latin1 := []byte{'C', 'a', 'f', 'f', 0xE8}

	got, err := encoding.ToUTF8(latin1, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "Caffè", string(got))
}

func TestNewUTF8Reader_DeclaredUTF8IsUntouched(t *testing.T) {
	got, err := encoding.ToUTF8([]byte("Caffè"), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "Caffè", string(got))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<Fattura/>")...)

	got, err := encoding.ToUTF8(input, "")
	require.NoError(t, err)
	assert.Equal(t, "<Fattura/>", string(got))
}
