package afip

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSDK struct {
	lastVoucher int64
	caeReply    string
	calls       []string
	caeBody     map[string]any
}

func (f *fakeSDK) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sdk-token", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "wsfe", body["wsid"])
		assert.Equal(t, "20409378472", body["tax_id"])
		f.calls = append(f.calls, "auth")
		_, _ = w.Write([]byte(`{"expiration":"2026-10-18T00:00:00","token":"tok","sign":"sig"}`))
	})
	mux.HandleFunc("/requests", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok", body["token"])
		assert.Equal(t, "sig", body["sign"])
		method, _ := body["method"].(string)
		f.calls = append(f.calls, method)
		switch method {
		case "FECompUltimoAutorizado":
			_ = json.NewEncoder(w).Encode(map[string]any{"CbteNro": f.lastVoucher})
		case "FECAESolicitar":
			f.caeBody, _ = body["params"].(map[string]any)
			_, _ = w.Write([]byte(f.caeReply))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	return mux
}

func newTestClient(t *testing.T, sdk *fakeSDK) *Client {
	t.Helper()
	srv := httptest.NewServer(sdk.handler(t))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, time.Second)
	c.now = func() time.Time { return time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC) }
	return c
}

var testCreds = Credentials{Environment: EnvironmentDev, CUIT: "20409378472", AccessToken: "sdk-token"}

func TestIssueInvoiceApproved(t *testing.T) {
	sdk := &fakeSDK{
		lastVoucher: 41,
		caeReply:    `{"FeDetResp":{"FECAEDetResponse":[{"Resultado":"A","CAE":"74123456789012","CAEFchVto":"20261027"}]}}`,
	}
	c := newTestClient(t, sdk)

	inv, err := c.IssueInvoice(context.Background(), testCreds, InvoiceRequest{Total: 1500.456})
	require.NoError(t, err)

	assert.Equal(t, []string{"auth", "FECompUltimoAutorizado", "FECAESolicitar"}, sdk.calls)
	assert.Equal(t, "74123456789012", inv.CAE)
	assert.Equal(t, int64(42), inv.Number)
	assert.Equal(t, DefaultPointOfSale, inv.PointOfSale)
	assert.Equal(t, InvoiceTypeFacturaC, inv.Type)
	assert.Equal(t, "2026-10-27", inv.CAEExpiration.Format("2006-01-02"))

	req := sdk.caeBody["FeCAEReq"].(map[string]any)
	detail := req["FeDetReq"].(map[string]any)["FECAEDetRequest"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 42, detail["CbteDesde"])
	assert.EqualValues(t, 42, detail["CbteHasta"])
	assert.Equal(t, "20261017", detail["CbteFch"])
	assert.EqualValues(t, 1500.46, detail["ImpTotal"])
	assert.EqualValues(t, 1500.46, detail["ImpNeto"])
	assert.EqualValues(t, 0, detail["ImpIVA"])
	assert.EqualValues(t, 99, detail["DocTipo"])
	assert.Equal(t, "PES", detail["MonId"])
}

func TestIssueInvoiceRejectedSurfacesFirstObservation(t *testing.T) {
	sdk := &fakeSDK{
		caeReply: `{"FeDetResp":{"FECAEDetResponse":{"Resultado":"R","Observaciones":{"Obs":[{"Code":10016,"Msg":"Fecha fuera de rango"},{"Code":1,"Msg":"otro"}]}}}}`,
	}
	c := newTestClient(t, sdk)

	_, err := c.IssueInvoice(context.Background(), testCreds, InvoiceRequest{Total: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Equal(t, "AFIP rejected: Fecha fuera de rango", err.Error())
}

func TestIssueInvoiceRejectedWithoutObservations(t *testing.T) {
	sdk := &fakeSDK{caeReply: `{"FeDetResp":{"FECAEDetResponse":[{"Resultado":"R"}]}}`}
	c := newTestClient(t, sdk)

	_, err := c.IssueInvoice(context.Background(), testCreds, InvoiceRequest{Total: 10})
	assert.EqualError(t, err, "AFIP rejected: unknown error")
}

func TestAuthenticateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Authenticate(context.Background(), testCreds)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "invalid token", httpErr.Body)
}
