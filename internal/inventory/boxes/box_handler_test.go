package boxes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter() (*gin.Engine, *MockRecorder) {
	gin.SetMode(gin.TestMode)
	service, recorder := newTestService()
	router := gin.New()
	NewBoxHandler(service).RegisterRoutes(router, func(c *gin.Context) { c.Next() })
	return router, recorder
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBoxRoutes(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectWrite    bool
		expectedStatus int
	}{
		{"list", http.MethodGet, "/boxes", nil, false, http.StatusOK},
		{"get missing", http.MethodGet, "/boxes/BOX9", nil, false, http.StatusNotFound},
		{"create", http.MethodPost, "/boxes", gin.H{"id": "BOX3", "recipient": "Cleo", "site": "East"}, true, http.StatusCreated},
		{"create missing site", http.MethodPost, "/boxes", gin.H{"id": "BOX3", "recipient": "Cleo"}, false, http.StatusBadRequest},
		{"update", http.MethodPatch, "/boxes/BOX1", gin.H{"recipient": "Dana", "site": "West"}, true, http.StatusOK},
		{"add item", http.MethodPost, "/boxes/BOX1/items", gin.H{"item_id": "EQ001", "quantity": 3}, true, http.StatusOK},
		{"add item without item id", http.MethodPost, "/boxes/BOX1/items", gin.H{"quantity": 3}, false, http.StatusBadRequest},
		{"add unknown item", http.MethodPost, "/boxes/BOX1/items", gin.H{"item_id": "EQ404", "quantity": 1}, false, http.StatusNotFound},
		{"add too many", http.MethodPost, "/boxes/BOX1/items", gin.H{"item_id": "EQ001", "quantity": 7}, false, http.StatusConflict},
		{"restore", http.MethodPatch, "/boxes/BOX2/items/EQ002/restore-to-storage", gin.H{"quantity": 4}, true, http.StatusOK},
		{"restore too many", http.MethodPatch, "/boxes/BOX2/items/EQ002/restore-to-storage", gin.H{"quantity": 9}, false, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, recorder := setupRouter()
			if tt.expectWrite {
				recorder.On("PerformUpdates", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
			}

			w := perform(router, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectWrite {
				recorder.AssertExpectations(t)
			} else {
				recorder.AssertNotCalled(t, "PerformUpdates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAddItemRouteBindsBoxFromPath(t *testing.T) {
	router, recorder := setupRouter()
	recorder.On("PerformUpdates", mock.Anything, mock.Anything, map[string]interface{}{
		"/storage/EQ001/qty":      2,
		"/boxes/BOX1/items/EQ001": 3,
	}, mock.Anything).Return(nil).Once()

	w := perform(router, http.MethodPost, "/boxes/BOX1/items", gin.H{"item_id": "EQ001", "quantity": 3})

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recorder.AssertExpectations(t)
}
