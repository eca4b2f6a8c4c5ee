package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/card-statement-extractor/internal/models"
)

func setupTestApp() *fiber.App {
	h := NewHandler(models.DefaultOptions(), nil)
	h.now = func() time.Time { return time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC) }
	return NewApp(h, 4)
}

func decode(t *testing.T, body io.Reader) ExtractResponse {
	t.Helper()
	var out ExtractResponse
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
}

func TestExtractEndpointRequiresFile(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("POST", "/api/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestExtractEndpointRejectsNonPDF(t *testing.T) {
	app := setupTestApp()

	body, ct := multipartBody(t, map[string]string{"notes.txt": "hello"}, nil)
	req := httptest.NewRequest("POST", "/api/extract", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	out := decode(t, resp.Body)
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "Only PDF files")
}

func TestExtractEndpointInvalidOption(t *testing.T) {
	app := setupTestApp()

	body, ct := multipartBody(t, map[string]string{"a.pdf": "x"}, map[string]string{"sort_by_date": "maybe"})
	req := httptest.NewRequest("POST", "/api/extract", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExtractEndpointUnreadablePDF(t *testing.T) {
	app := setupTestApp()

	body, ct := multipartBody(t, map[string]string{"broken.pdf": "not really a pdf"}, nil)
	req := httptest.NewRequest("POST", "/api/extract", body)
	req.Header.Set("Content-Type", ct)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	out := decode(t, resp.Body)
	assert.True(t, out.Success)
	assert.True(t, out.NoData)
	assert.Empty(t, out.Movements)
	require.Len(t, out.Documents, 1)
	assert.Equal(t, "broken.pdf", out.Documents[0].Name)
	assert.Contains(t, out.Documents[0].Warning, "extraction failed")
}

const statementText = `12345678901234567890123 20240103 03/01/2024 05/01/2024 AMAZON EU SARL 12,50
12345678901234567890124 20240101 01/01/2024 01/01/2024 AUTOSTRADE 4,80
12345678901234567890125 20240201 01/02/2024 02/02/2024 FARMACIA 9,90`

func postJSON(t *testing.T, app *fiber.App, payload any) ExtractResponse {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/extract/text", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return decode(t, resp.Body)
}

func TestExtractTextEndpoint(t *testing.T) {
	app := setupTestApp()

	out := postJSON(t, app, map[string]any{
		"documents": []map[string]any{
			{"name": "gennaio.pdf", "pages": []any{statementText, nil, ""}},
			{"name": "vuoto.pdf", "pages": []any{""}},
		},
	})

	assert.True(t, out.Success)
	assert.NotEmpty(t, out.RequestID)
	require.Len(t, out.Movements, 3)
	assert.Equal(t, "AUTOSTRADE", out.Movements[0].Description)
	assert.Equal(t, "FARMACIA", out.Movements[2].Description)

	require.Len(t, out.Documents, 2)
	assert.Equal(t, 3, out.Documents[0].Pages)
	assert.Equal(t, "no movements found", out.Documents[1].Warning)

	require.Len(t, out.Monthly, 2)
	assert.Equal(t, 2, out.Monthly[0].Count)
	assert.Equal(t, 17.30, out.Monthly[0].Total)

	assert.Equal(t, []string{"Data", "Descrizione", "Importo"}, out.Columns)
	assert.Equal(t, "movimenti_estratti_20240201_093000.csv", out.Filename)
	assert.True(t, strings.HasPrefix(out.CSV, "Data,Descrizione,Importo\n01/01/2024,AUTOSTRADE,4.80\n"))
}

func TestExtractTextEndpointOptions(t *testing.T) {
	app := setupTestApp()

	out := postJSON(t, app, map[string]any{
		"documents": []map[string]any{{"pages": []string{statementText}}},
		"options":   map[string]bool{"sortByDate": false, "includeExtraColumns": true},
	})

	require.Len(t, out.Movements, 3)
	assert.Equal(t, "AMAZON EU SARL", out.Movements[0].Description)
	assert.Equal(t, "document-1", out.Documents[0].Name)
	assert.Len(t, out.Columns, 5)
	assert.Contains(t, out.CSV, "Codice_Riferimento")
}

func TestExtractTextEndpointSingleMovementHasNoMonthly(t *testing.T) {
	app := setupTestApp()

	out := postJSON(t, app, map[string]any{
		"documents": []map[string]any{{"pages": []string{"03/01/2024 05/01/2024 BAR 1,20"}}},
	})

	require.Len(t, out.Movements, 1)
	assert.Empty(t, out.Movements[0].ReferenceCode)
	assert.Empty(t, out.Monthly)
	assert.Equal(t, 1, out.Stats.PeriodDays)
}

func TestExtractTextEndpointNoDocuments(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("POST", "/api/extract/text", strings.NewReader(`{"documents":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExtractTextEndpointPartialOptionsKeepDefaults(t *testing.T) {
	app := setupTestApp()

	page := "03/01/2024 05/01/2024 BAR 1,20\n03/01/2024 05/01/2024 BAR 1,20\n01/01/2024 02/01/2024 EDICOLA 2,00"
	out := postJSON(t, app, map[string]any{
		"documents": []map[string]any{{"pages": []string{page}}},
		"options":   map[string]bool{"includeExtraColumns": true},
	})

	require.Len(t, out.Movements, 2, "duplicates should be removed by default")
	assert.Equal(t, "EDICOLA", out.Movements[0].Description, "movements should be sorted by default")
	assert.Len(t, out.Columns, 5)
}

func TestExtractTextEndpointNullOptionsUseDefaults(t *testing.T) {
	app := setupTestApp()

	out := postJSON(t, app, map[string]any{
		"documents": []map[string]any{{"pages": []string{"03/01/2024 05/01/2024 BAR 1,20\n03/01/2024 05/01/2024 BAR 1,20"}}},
		"options":   nil,
	})

	require.Len(t, out.Movements, 1)
	assert.Len(t, out.Columns, 3)
}
