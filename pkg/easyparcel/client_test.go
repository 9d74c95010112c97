package easyparcel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := &Client{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     server.URL + "/?ac=",
		apiKey:      "test-key",
		environment: demoEnv,
	}
	return client, server
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(context.Background(), config.EasyParcelConfig{}, nil)
	assert.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(context.Background(), config.EasyParcelConfig{APIKey: "k", Env: "staging"}, nil)
	assert.ErrorIs(t, err, errInvalidEnv)

	client, err := NewClient(context.Background(), config.EasyParcelConfig{APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, demoEnv, client.Environment())
}

func TestCreateShipmentSuccess(t *testing.T) {
	var captured url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		captured = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"api_status": "Success",
			"error_code": "0",
			"error_remark": "",
			"result": [{
				"status": "Success",
				"remarks": "",
				"order_number": "EI-ABC123",
				"courier": "Poslaju",
				"price": "7.50"
			}]
		}`))
	})

	shipment, err := client.CreateShipment(context.Background(), ShipmentRequest{
		ReferenceID: "JRM-1001",
		ServiceID:   "EP-CS0W",
		PickupDate:  "2026-09-02",
		WeightKg:    decimal.NewFromFloat(1.2),
		Content:     "Health supplements",
		ParcelValue: decimal.NewFromInt(120),
		Sender:      Party{Name: "JRM Holistic", Postcode: "47810", State: "sgr"},
		Receiver:    Party{Name: "Aminah", Postcode: "81100", State: "jhr"},
	})
	require.NoError(t, err)

	assert.Equal(t, "EI-ABC123", shipment.OrderNumber)
	assert.Equal(t, "Poslaju", shipment.CourierName)
	assert.True(t, shipment.Price.Equal(decimal.NewFromFloat(7.5)))

	assert.Equal(t, "test-key", captured.Get("api"))
	assert.Equal(t, "EP-CS0W", captured.Get("bulk[0][service_id]"))
	assert.Equal(t, "2026-09-02", captured.Get("bulk[0][collect_date]"))
	assert.Equal(t, "1.2", captured.Get("bulk[0][weight]"))
	assert.Equal(t, "MY", captured.Get("bulk[0][pick_country]"))
}

func TestCreateShipmentInsufficientBalance(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"api_status": "Fail",
			"error_code": "5",
			"error_remark": "Insufficient credit balance"
		}`))
	})

	_, err := client.CreateShipment(context.Background(), ShipmentRequest{
		ServiceID:  "EP-CS0W",
		PickupDate: "2026-09-02",
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestCreateShipmentAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"api_status": "Fail",
			"error_code": "2",
			"error_remark": "Invalid service id"
		}`))
	})

	_, err := client.CreateShipment(context.Background(), ShipmentRequest{
		ServiceID:  "bogus",
		PickupDate: "2026-09-02",
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "2", apiErr.Code)
	assert.Contains(t, apiErr.Remark, "Invalid service id")
}

func TestCreateShipmentRequiresInput(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.CreateShipment(context.Background(), ShipmentRequest{PickupDate: "2026-09-02"})
	assert.Error(t, err)

	_, err = client.CreateShipment(context.Background(), ShipmentRequest{ServiceID: "EP-CS0W"})
	assert.Error(t, err)
}

func TestPayShipmentSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "EI-ABC123", r.PostForm.Get("bulk[0][order_no]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"api_status": "Success",
			"error_code": "0",
			"error_remark": "",
			"result": [{
				"status": "Success",
				"orderno": "EI-ABC123",
				"parcel": [{
					"parcelno": "EP-PQ123",
					"awb": "PL061339956MY",
					"awb_id_link": "https://connect.easyparcel.my/awb/PL061339956MY.pdf",
					"tracking_url": "https://track.easyparcel.my/PL061339956MY"
				}]
			}]
		}`))
	})

	payment, err := client.PayShipment(context.Background(), "EI-ABC123")
	require.NoError(t, err)
	assert.Equal(t, "PL061339956MY", payment.AWBNumber)
	assert.Equal(t, "PL061339956MY", payment.TrackingNumber)
	assert.Contains(t, payment.AWBLink, ".pdf")
}

func TestPayShipmentFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"api_status": "Success",
			"error_code": "0",
			"error_remark": "",
			"result": [{
				"status": "Fail",
				"remarks": "Order already paid",
				"orderno": "EI-ABC123"
			}]
		}`))
	})

	_, err := client.PayShipment(context.Background(), "EI-ABC123")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Remark, "already paid")
}

func TestCheckBalance(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"api_status": "Success",
			"error_code": "0",
			"error_remark": "",
			"result": "42.80"
		}`))
	})

	balance, err := client.CheckBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(42.8)))
}

func TestRateCheck(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"api_status": "Success",
			"error_code": "0",
			"error_remark": "",
			"result": [{
				"status": "Success",
				"rates": [
					{"service_id": "EP-CS0W", "courier_name": "Poslaju", "service_name": "Next Day", "price": "7.50", "delivery": "1-2 days"},
					{"service_id": "EP-CS0X", "courier_name": "J&T", "service_name": "Standard", "price": "6.30", "delivery": "2-3 days"}
				]
			}]
		}`))
	})

	rates, err := client.RateCheck(context.Background(), RateRequest{
		PickupPostcode:   "47810",
		PickupState:      "sgr",
		DeliveryPostcode: "81100",
		DeliveryState:    "jhr",
		WeightKg:         decimal.NewFromFloat(1.2),
	})
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "EP-CS0W", rates[0].ServiceID)
	assert.True(t, rates[1].Price.Equal(decimal.NewFromFloat(6.3)))
}

func TestPostContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.CheckBalance(ctx)
	assert.True(t, errors.Is(err, context.Canceled) || err != nil)
}
