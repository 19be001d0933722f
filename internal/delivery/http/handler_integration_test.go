package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/platelens/backend/config"
	"github.com/platelens/backend/internal/domain"
	"github.com/platelens/backend/internal/infrastructure/storage"
	"github.com/platelens/backend/internal/logger"
	"github.com/platelens/backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)
	logger.Initialize(logger.Options{Level: "error"})

	os.Exit(m.Run())
}

// pngHeader is enough of a PNG for content sniffing
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// mockModelClient is a mock implementation of domain.ModelClient
type mockModelClient struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (m *mockModelClient) GenerateContent(ctx context.Context, prompt string, image *domain.Image) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// failingRepository fails every storage operation
type failingRepository struct{}

func (failingRepository) Save(ctx context.Context, record *domain.MealLogRecord) error {
	return errors.New("disk full")
}

func (failingRepository) Recent(ctx context.Context, limit int) ([]domain.MealLogRecord, error) {
	return nil, errors.New("disk full")
}

// countingRepository records how often the meal log is touched
type countingRepository struct {
	saves   int
	recents int
}

func (r *countingRepository) Save(ctx context.Context, record *domain.MealLogRecord) error {
	r.saves++
	return nil
}

func (r *countingRepository) Recent(ctx context.Context, limit int) ([]domain.MealLogRecord, error) {
	r.recents++
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
			MaxUploadMB:    16,
		},
	}
}

func newSQLiteRepository(t *testing.T) domain.MealLogRepository {
	t.Helper()
	repo, err := storage.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "food_logs.db"))
	require.NoError(t, err)
	return repo
}

// setupTestRouter wires a router around a mock model and the given repository
func setupTestRouter(model domain.ModelClient, repo domain.MealLogRepository) *gin.Engine {
	var analysis *usecase.AnalysisService
	if model != nil {
		analysis = usecase.NewAnalysisService(model)
	}

	var meals *usecase.MealLogService
	if repo != nil {
		meals = usecase.NewMealLogService(repo, usecase.MealLogServiceConfig{HistoryLimit: 10})
	}

	return SetupRouter(testConfig(), NewHandler(analysis, meals, nil))
}

// newUploadRequest builds a multipart POST to /api/v1/analyze
func newUploadRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "body: %s", w.Body.String())
	return response
}

func postJSON(router *gin.Engine, path, payload string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeBody(t, w)
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "platelens-backend", response["service"])
		assert.NotEmpty(t, response["version"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(method, "/health", nil))

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

// TestAnalyzeEndpoint tests photo upload and analysis
func TestAnalyzeEndpoint(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{
		"foods": [{"name": "Rice", "confidence": "92%", "nutrition": {"calories": "200 kcal", "carbs": 45}}],
		"total": {"calories": 200, "carbs": 45, "proteins": 4, "fats": 1},
		"daily_values": {"calorie_percentage": 10},
		"health_score": 7
	}` + "\n```"

	t.Run("no image part is rejected before calling the model or the store", func(t *testing.T) {
		model := &mockModelClient{reply: reply}
		repo := &countingRepository{}
		router := setupTestRouter(model, repo)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "photo", "meal.png", pngHeader))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No image uploaded", decodeBody(t, w)["error"])
		assert.Equal(t, 0, model.calls)
		assert.Equal(t, 0, repo.saves)
		assert.Equal(t, 0, repo.recents)
	})

	t.Run("request without multipart body is rejected", func(t *testing.T) {
		model := &mockModelClient{reply: reply}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/analyze", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, model.calls)
	})

	t.Run("empty filename is rejected as no image selected", func(t *testing.T) {
		model := &mockModelClient{reply: reply}
		repo := &countingRepository{}
		router := setupTestRouter(model, repo)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "", pngHeader))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No image selected", decodeBody(t, w)["error"])
		assert.Equal(t, 0, model.calls)
		assert.Equal(t, 0, repo.saves)
	})

	t.Run("empty image file is rejected", func(t *testing.T) {
		model := &mockModelClient{reply: reply}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "meal.png", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Uploaded image is empty", decodeBody(t, w)["error"])
		assert.Equal(t, 0, model.calls)
	})

	t.Run("non-image upload is rejected", func(t *testing.T) {
		model := &mockModelClient{reply: reply}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "notes.txt", []byte("just some text")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Uploaded file is not a supported image", decodeBody(t, w)["error"])
		assert.Equal(t, 0, model.calls)
	})

	t.Run("returns parsed analysis", func(t *testing.T) {
		model := &mockModelClient{reply: reply}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "meal.png", pngHeader))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 1, model.calls)

		response := decodeBody(t, w)
		foods := response["foods"].([]interface{})
		require.Len(t, foods, 1)
		food := foods[0].(map[string]interface{})
		assert.Equal(t, "Rice", food["name"])
		assert.Equal(t, "92%", food["confidence"])
		assert.Equal(t, "200 kcal", food["nutrition"].(map[string]interface{})["calories"])
		assert.Equal(t, float64(7), response["health_score"])
		assert.Equal(t, []interface{}{}, response["health_benefits"])
		assert.Equal(t, []interface{}{}, food["allergens"])
	})

	t.Run("off-shape reply is returned as sent", func(t *testing.T) {
		model := &mockModelClient{reply: `{"foods":[{"name":"rice","allergens":"none","origin":{"region":"Asia"},"weight":12.0}],"extra":1}`}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "meal.png", pngHeader))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"weight":12.0`)

		response := decodeBody(t, w)
		assert.Equal(t, float64(1), response["extra"])
		food := response["foods"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "none", food["allergens"])
		assert.Equal(t, map[string]interface{}{"region": "Asia"}, food["origin"])
	})

	t.Run("unparseable reply maps to bad gateway", func(t *testing.T) {
		model := &mockModelClient{reply: "I could not find any food here."}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "meal.png", pngHeader))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, domain.ErrParseFailure.Error(), decodeBody(t, w)["error"])
	})

	t.Run("model failure maps to bad gateway", func(t *testing.T) {
		model := &mockModelClient{err: errors.New("status 429: quota exceeded")}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "meal.png", pngHeader))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, decodeBody(t, w)["error"], "quota exceeded")
	})

	t.Run("unconfigured analysis returns service unavailable", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUploadRequest(t, "image", "meal.png", pngHeader))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

// TestCulturalInfoEndpoint tests the cultural info lookup
func TestCulturalInfoEndpoint(t *testing.T) {
	t.Run("returns trimmed model text", func(t *testing.T) {
		model := &mockModelClient{reply: "  Pho is a Vietnamese noodle soup.\n"}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/cultural_info/pho", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Pho is a Vietnamese noodle soup.", decodeBody(t, w)["info"])
		require.Len(t, model.prompts, 1)
		assert.Contains(t, model.prompts[0], "pho")
	})

	t.Run("decodes escaped food names", func(t *testing.T) {
		model := &mockModelClient{reply: "ok"}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/cultural_info/pad%20thai", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, model.prompts[0], "pad thai")
	})

	t.Run("blank food name is invalid input", func(t *testing.T) {
		model := &mockModelClient{reply: "ok"}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/cultural_info/%20", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, model.calls)
	})

	t.Run("model failure maps to bad gateway", func(t *testing.T) {
		model := &mockModelClient{err: errors.New("timeout")}
		router := setupTestRouter(model, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/cultural_info/sushi", nil))

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

// TestMealLogEndpoints tests saving and listing meals against a real SQLite file
func TestMealLogEndpoints(t *testing.T) {
	t.Run("saved meals come back newest first", func(t *testing.T) {
		router := setupTestRouter(nil, newSQLiteRepository(t))

		for _, name := range []string{"oatmeal", "salad", "curry"} {
			w := postJSON(router, "/api/v1/save_meal", `{"meal": {"foods": [{"name": "`+name+`"}]}, "score": 8}`)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "success", decodeBody(t, w)["status"])
			// Keep timestamps distinct at microsecond resolution
			time.Sleep(2 * time.Millisecond)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/meal_history", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var history []map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
		require.Len(t, history, 3)
		assert.JSONEq(t, `{"foods": [{"name": "curry"}]}`, string(history[0]["meal"]))
		assert.JSONEq(t, `{"foods": [{"name": "oatmeal"}]}`, string(history[2]["meal"]))
		assert.Equal(t, "8", string(history[0]["score"]))
		assert.NotContains(t, history[0], "id")

		var date string
		require.NoError(t, json.Unmarshal(history[0]["date"], &date))
		_, err := time.Parse(domain.TimestampLayout, date)
		assert.NoError(t, err)
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		router := setupTestRouter(nil, newSQLiteRepository(t))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/meal_history", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("invalid save requests are rejected", func(t *testing.T) {
		router := setupTestRouter(nil, newSQLiteRepository(t))

		tests := []struct {
			name    string
			payload string
		}{
			{"malformed body", `{"meal":`},
			{"missing meal", `{"score": 5}`},
			{"null meal", `{"meal": null, "score": 5}`},
			{"missing score", `{"meal": {"foods": []}}`},
		}

		for _, tt := range tests {
			w := postJSON(router, "/api/v1/save_meal", tt.payload)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: Status = %d, want %d", tt.name, w.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("storage failure maps to internal error", func(t *testing.T) {
		router := setupTestRouter(nil, failingRepository{})

		w := postJSON(router, "/api/v1/save_meal", `{"meal": {}, "score": 5}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, domain.ErrStorageFailure.Error(), decodeBody(t, w)["error"])

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/meal_history", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("unconfigured meal log returns service unavailable", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := postJSON(router, "/api/v1/save_meal", `{"meal": {}, "score": 5}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

// TestReportEndpoint tests nutrition report rendering
func TestReportEndpoint(t *testing.T) {
	t.Run("renders structured and text report", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := postJSON(router, "/api/v1/report", `{
			"foods": ["rice", "beans"],
			"portions": ["1 cup"],
			"calories": 450,
			"macronutrients": {"carbs": 70, "proteins": 18, "fats": 6},
			"dietary_concerns": ["high sodium"]
		}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		response := decodeBody(t, w)
		assert.NotNil(t, response["report"])
		text, ok := response["text"].(string)
		require.True(t, ok)
		assert.Contains(t, text, "rice")
		assert.Contains(t, text, "Proteins: 18g")
		assert.Contains(t, text, "Calories: 450 kcal")
		assert.Contains(t, text, "high sodium")
	})

	t.Run("empty object still renders every section", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := postJSON(router, "/api/v1/report", `{}`)

		require.Equal(t, http.StatusOK, w.Code)
		report, ok := decodeBody(t, w)["report"].(map[string]interface{})
		require.True(t, ok)
		for _, section := range []string{"foods_identified", "serving_info", "nutrition_facts", "health_notes"} {
			assert.Contains(t, report, section)
		}
	})

	t.Run("keeps decimal text of amounts", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		w := postJSON(router, "/api/v1/report", `{"calories": 450.0, "macronutrients": {"carbs": 12.0}}`)

		require.Equal(t, http.StatusOK, w.Code)
		text := decodeBody(t, w)["text"].(string)
		assert.Contains(t, text, "Calories: 450.0 kcal")
		assert.Contains(t, text, "Carbohydrates: 12.0g")
	})

	t.Run("non-object body is rejected", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		for _, payload := range []string{`[1, 2]`, `null`, `"text"`} {
			w := postJSON(router, "/api/v1/report", payload)
			if w.Code != http.StatusBadRequest {
				t.Errorf("payload %s: Status = %d, want %d", payload, w.Code, http.StatusBadRequest)
			}
		}
	})
}

// TestHealthScoreEndpoint tests the standalone health score calculation
func TestHealthScoreEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
	}{
		{"no foods", `{"foods": []}`, 7},
		{"two foods", `{"foods": [{"name": "rice"}, {"name": "beans"}]}`, 7},
		{"three distinct foods", `{"foods": [{"name": "rice"}, {"name": "beans"}, {"name": "salsa"}]}`, 8},
		{"duplicates do not add variety", `{"foods": [{"name": "Rice"}, {"name": "rice"}, {"name": "beans"}]}`, 7},
		{"missing foods", `{}`, 7},
		{"full analysis with off-shape fields", `{"foods": [{"name": "rice", "allergens": "none"}, {"name": "beans", "origin": {"region": "MX"}}, {"name": "salsa"}], "extra": 1}`, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(nil, nil)

			w := postJSON(router, "/api/v1/health_score", tt.payload)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, decodeBody(t, w)["health_score"])
		})
	}

	t.Run("malformed body is rejected", func(t *testing.T) {
		router := setupTestRouter(nil, nil)

		for _, payload := range []string{`{"foods": "rice"}`, `[1, 2]`, `null`, `{"foods": [`} {
			w := postJSON(router, "/api/v1/health_score", payload)
			if w.Code != http.StatusBadRequest {
				t.Errorf("payload %s: Status = %d, want %d", payload, w.Code, http.StatusBadRequest)
			}
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter(nil, nil)
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestAPIVersioning tests that routes only exist under /api/v1
func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter(nil, nil)

	incorrectPaths := []struct {
		method string
		path   string
	}{
		{"POST", "/analyze"},
		{"POST", "/api/analyze"},
		{"GET", "/api/v1/analyze"},
		{"POST", "/api/v1/meal_history"},
		{"GET", "/api/v1/save_meal"},
	}

	for _, tt := range incorrectPaths {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s: Status = %d, want %d", tt.method, tt.path, w.Code, http.StatusNotFound)
		}
	}
}

// TestJSONResponses tests that handler responses are JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/analyze"},
		{"POST", "/api/v1/save_meal"},
		{"POST", "/api/v1/report"},
		{"POST", "/api/v1/health_score"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter(&mockModelClient{}, newSQLiteRepository(t))

			req := httptest.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.True(t, json.Valid(w.Body.Bytes()), "body: %s", w.Body.String())
		})
	}
}
