package easyparcel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

const (
	demoEnv = "demo"
	liveEnv = "live"

	demoBaseURL = "http://demo.connect.easyparcel.my/?ac="
	liveBaseURL = "https://connect.easyparcel.my/?ac="

	actionSubmitOrder  = "EPSubmitOrderBulk"
	actionPayOrder     = "EPPayOrderBulk"
	actionCheckBalance = "EPCheckCreditBalance"
	actionRateCheck    = "EPRateCheckingBulk"

	defaultTimeout = 30 * time.Second
)

var (
	errAPIKeyRequired = errors.New("easyparcel api key is required")
	errInvalidEnv     = fmt.Errorf("easyparcel environment must be %q or %q", demoEnv, liveEnv)

	// ErrInsufficientBalance flags a booking rejected for lack of credit.
	ErrInsufficientBalance = errors.New("easyparcel credit balance insufficient")
)

// APIError carries the aggregator's error code and remark verbatim.
type APIError struct {
	Action string
	Code   string
	Remark string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("easyparcel %s failed: [%s] %s", e.Action, e.Code, e.Remark)
}

// Client calls the EasyParcel connect API. One instance is safe for
// concurrent use; every call is bounded by the configured timeout.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	environment string
}

// NewClient validates the configuration and returns a ready client.
func NewClient(ctx context.Context, cfg config.EasyParcelConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	env := strings.TrimSpace(strings.ToLower(cfg.Env))
	if env == "" {
		env = demoEnv
	}
	var baseURL string
	switch env {
	case demoEnv:
		baseURL = demoBaseURL
	case liveEnv:
		baseURL = liveBaseURL
	default:
		return nil, errInvalidEnv
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("easyparcel client initialized (%s)", env))
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		apiKey:      apiKey,
		environment: env,
	}, nil
}

// Environment reports the normalized environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreateShipment books a shipment order with the aggregator. The returned
// order is created but unpaid; PayShipment issues the airway bill.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	if strings.TrimSpace(req.ServiceID) == "" {
		return nil, errors.New("service id is required")
	}
	if strings.TrimSpace(req.PickupDate) == "" {
		return nil, errors.New("pickup date is required")
	}

	form := url.Values{}
	form.Set("api", c.apiKey)
	form.Set("bulk[0][reference]", req.ReferenceID)
	form.Set("bulk[0][service_id]", req.ServiceID)
	form.Set("bulk[0][collect_date]", req.PickupDate)
	form.Set("bulk[0][weight]", req.WeightKg.String())
	form.Set("bulk[0][content]", req.Content)
	form.Set("bulk[0][value]", req.ParcelValue.String())
	applyParty(form, "pick", req.Sender)
	applyParty(form, "send", req.Receiver)

	var payload struct {
		apiEnvelope
		Result []submitResult `json:"result"`
	}
	if err := c.post(ctx, actionSubmitOrder, form, &payload); err != nil {
		return nil, err
	}
	if err := checkEnvelope(actionSubmitOrder, payload.apiEnvelope); err != nil {
		return nil, err
	}
	if len(payload.Result) == 0 {
		return nil, &APIError{Action: actionSubmitOrder, Code: "-", Remark: "empty result"}
	}

	result := payload.Result[0]
	if !strings.EqualFold(result.Status, "Success") {
		return nil, resultError(actionSubmitOrder, result.Remarks)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(result.Price))
	if err != nil {
		price = decimal.Zero
	}
	return &Shipment{
		OrderNumber: result.OrderNumber,
		CourierName: result.CourierName,
		Price:       price,
	}, nil
}

// PayShipment pays a previously created order and returns the airway bill.
func (c *Client) PayShipment(ctx context.Context, orderNumber string) (*PaymentResult, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, errors.New("order number is required")
	}

	form := url.Values{}
	form.Set("api", c.apiKey)
	form.Set("bulk[0][order_no]", orderNumber)

	var payload struct {
		apiEnvelope
		Result []payResult `json:"result"`
	}
	if err := c.post(ctx, actionPayOrder, form, &payload); err != nil {
		return nil, err
	}
	if err := checkEnvelope(actionPayOrder, payload.apiEnvelope); err != nil {
		return nil, err
	}
	if len(payload.Result) == 0 {
		return nil, &APIError{Action: actionPayOrder, Code: "-", Remark: "empty result"}
	}

	result := payload.Result[0]
	if !strings.EqualFold(result.Status, "Success") {
		return nil, resultError(actionPayOrder, result.Remarks)
	}
	if len(result.Parcels) == 0 {
		return nil, &APIError{Action: actionPayOrder, Code: "-", Remark: "no parcel in payment result"}
	}

	parcel := result.Parcels[0]
	return &PaymentResult{
		OrderNumber:    result.OrderNumber,
		AWBNumber:      parcel.AWB,
		AWBLink:        parcel.AWBLink,
		TrackingURL:    parcel.TrackingURL,
		TrackingNumber: parcel.AWB,
	}, nil
}

// CheckBalance returns the remaining prepaid credit.
func (c *Client) CheckBalance(ctx context.Context) (decimal.Decimal, error) {
	form := url.Values{}
	form.Set("api", c.apiKey)

	var payload struct {
		apiEnvelope
		Result string `json:"result"`
	}
	if err := c.post(ctx, actionCheckBalance, form, &payload); err != nil {
		return decimal.Zero, err
	}
	if err := checkEnvelope(actionCheckBalance, payload.apiEnvelope); err != nil {
		return decimal.Zero, err
	}

	balance, err := decimal.NewFromString(strings.TrimSpace(payload.Result))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing balance %q: %w", payload.Result, err)
	}
	return balance, nil
}

// RateCheck quotes available courier services for a route and weight.
func (c *Client) RateCheck(ctx context.Context, req RateRequest) ([]Rate, error) {
	form := url.Values{}
	form.Set("api", c.apiKey)
	form.Set("bulk[0][pick_code]", req.PickupPostcode)
	form.Set("bulk[0][pick_state]", req.PickupState)
	form.Set("bulk[0][pick_country]", "MY")
	form.Set("bulk[0][send_code]", req.DeliveryPostcode)
	form.Set("bulk[0][send_state]", req.DeliveryState)
	form.Set("bulk[0][send_country]", "MY")
	form.Set("bulk[0][weight]", req.WeightKg.String())

	var payload struct {
		apiEnvelope
		Result []rateResult `json:"result"`
	}
	if err := c.post(ctx, actionRateCheck, form, &payload); err != nil {
		return nil, err
	}
	if err := checkEnvelope(actionRateCheck, payload.apiEnvelope); err != nil {
		return nil, err
	}
	if len(payload.Result) == 0 {
		return nil, &APIError{Action: actionRateCheck, Code: "-", Remark: "empty result"}
	}

	result := payload.Result[0]
	if !strings.EqualFold(result.Status, "Success") {
		return nil, resultError(actionRateCheck, result.Remarks)
	}

	rates := make([]Rate, 0, len(result.Rates))
	for _, svc := range result.Rates {
		price, err := decimal.NewFromString(strings.TrimSpace(svc.Price))
		if err != nil {
			price = decimal.Zero
		}
		rates = append(rates, Rate{
			ServiceID:     svc.ServiceID,
			CourierName:   svc.CourierName,
			ServiceName:   svc.ServiceName,
			Price:         price,
			EstimatedDays: svc.DeliveryDays,
		})
	}
	return rates, nil
}

func (c *Client) post(ctx context.Context, action string, form url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+action, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s: %s", action, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parsing %s response: %w", action, err)
	}
	return nil
}

func applyParty(form url.Values, prefix string, party Party) {
	country := party.Country
	if country == "" {
		country = "MY"
	}
	form.Set(fmt.Sprintf("bulk[0][%s_name]", prefix), party.Name)
	form.Set(fmt.Sprintf("bulk[0][%s_contact]", prefix), party.Phone)
	form.Set(fmt.Sprintf("bulk[0][%s_mail]", prefix), party.Email)
	form.Set(fmt.Sprintf("bulk[0][%s_addr1]", prefix), party.Address1)
	form.Set(fmt.Sprintf("bulk[0][%s_addr2]", prefix), party.Address2)
	form.Set(fmt.Sprintf("bulk[0][%s_code]", prefix), party.Postcode)
	form.Set(fmt.Sprintf("bulk[0][%s_city]", prefix), party.City)
	form.Set(fmt.Sprintf("bulk[0][%s_state]", prefix), party.State)
	form.Set(fmt.Sprintf("bulk[0][%s_country]", prefix), country)
}

func checkEnvelope(action string, env apiEnvelope) error {
	if strings.EqualFold(env.APIStatus, "Success") {
		return nil
	}
	if isInsufficientBalance(env.ErrorRemark) {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, env.ErrorRemark)
	}
	return &APIError{Action: action, Code: env.ErrorCode, Remark: env.ErrorRemark}
}

func resultError(action, remark string) error {
	if isInsufficientBalance(remark) {
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, remark)
	}
	return &APIError{Action: action, Code: "-", Remark: remark}
}

func isInsufficientBalance(remark string) bool {
	lowered := strings.ToLower(remark)
	return strings.Contains(lowered, "insufficient") && (strings.Contains(lowered, "credit") || strings.Contains(lowered, "balance"))
}
