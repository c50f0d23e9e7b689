package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/sakashimaa/eventhub/pkg/config"
	"github.com/sakashimaa/eventhub/pkg/server"
	"github.com/sakashimaa/eventhub/pkg/utils"
	inventoryHttp "github.com/sakashimaa/eventhub/services/inventory/internal/transport/http"
	"go.uber.org/zap"
)

func (s *IntegrationTestSuite) TestHTTP_DecrementMapsErrors() {
	eventID := s.seedEvent("Club", time.Now().Add(72*time.Hour))
	ttID := s.seedTicketType(eventID, "GA", 1000, 1)

	app := server.New("inventory-test", config.HTTP{Timeout: 5 * time.Second}, zap.NewNop())
	inventoryHttp.RegisterRoutes(app, inventoryHttp.NewInventoryHandler(s.InventoryService, zap.NewNop()))

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"ok", fmt.Sprintf("/internal/ticket-types/%d/decrement", ttID), `{"quantity":1}`, http.StatusOK, ""},
		{"insufficient", fmt.Sprintf("/internal/ticket-types/%d/decrement", ttID), `{"quantity":1}`, http.StatusConflict, inventoryHttp.CodeInsufficientQuota},
		{"not found", "/internal/ticket-types/999999/decrement", `{"quantity":1}`, http.StatusNotFound, inventoryHttp.CodeNotFound},
		{"zero quantity", fmt.Sprintf("/internal/ticket-types/%d/decrement", ttID), `{"quantity":0}`, http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		s.Require().NoError(err, tc.name)
		s.Require().Equal(tc.status, resp.StatusCode, tc.name)

		if tc.code != "" {
			var body utils.ErrorBody
			s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body), tc.name)
			s.Require().Equal(tc.code, body.Code, tc.name)
		}
		_ = resp.Body.Close()
	}
}
