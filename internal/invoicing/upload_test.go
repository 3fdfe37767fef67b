package invoicing_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
)

func TestUpload_AttachesBearerAndNormalizesText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/upload", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		content, _ := io.ReadAll(file)
		assert.Equal(t, "fattura.xml", header.Filename)
		assert.Equal(t, "<Città/>", string(content))

		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	client := invoicing.NewUpload(invoicing.Options{
		BaseURL: ts.URL,
		Tokens:  invoicing.NewMemoryTokenStore("tok"),
	})

	latin1 := []byte{'<', 'C', 'i', 't', 't', 0xE0, '/', '>'}

	resp, err := client.Upload(context.Background(), "/files/upload", invoicing.File{
		Name:    "fattura.xml",
		Content: bytes.NewReader(latin1),
	}, invoicing.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestUpload_RefreshesExpiredJWTFirst(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	var order []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)

		if r.URL.Path == "/auth/refresh-token" {
			w.Write([]byte(`{"accessToken":"renewed"}`))
			return
		}

		assert.Equal(t, "Bearer renewed", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	tokens := invoicing.NewMemoryTokenStore(expired)
	client := invoicing.NewUpload(invoicing.Options{
		BaseURL: ts.URL,
		Tokens:  tokens,
		Now:     func() time.Time { return now },
	})

	_, err = client.Upload(context.Background(), "/files/upload", invoicing.File{
		Name:    "scan.pdf",
		Content: bytes.NewReader([]byte("%PDF")),
	}, invoicing.Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/auth/refresh-token", "/files/upload"}, order)

	stored, _ := tokens.Token(context.Background())
	assert.Equal(t, "renewed", stored)
}
